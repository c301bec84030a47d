package stub

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/me/romecli/pkg/model"
)

const ctxKeyAccount ctxKey = "account"

const tokenTTL = 30 * time.Minute

// issueToken signs a JWT whose subject is the user's ID.
func (s *Server) issueToken(userID int) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// authenticate resolves the bearer token on r to a registered account.
func (s *Server) authenticate(r *http.Request) *account {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return nil
	}
	userID, err := strconv.Atoi(sub)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.users {
		if acct.ID == userID {
			return acct
		}
	}
	return nil
}

// requireUser rejects requests without a valid bearer token.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct := s.authenticate(r)
		if acct == nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAccount, acct)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects authenticated requests from non-admin accounts.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if acct := accountFromContext(r.Context()); acct == nil || acct.Role != model.RoleAdmin {
			writeDetail(w, http.StatusForbidden, "Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accountFromContext(ctx context.Context) *account {
	if acct, ok := ctx.Value(ctxKeyAccount).(*account); ok {
		return acct
	}
	return nil
}

// handleToken exchanges form-encoded credentials for an access token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	acct := s.users[email]
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.Hash, []byte(password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := s.issueToken(acct.ID)
	if err != nil {
		s.logger.Error("sign token", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// handleRegister creates a new account with the default user role.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "email and password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	acct := &account{
		ID:    s.nextUserID,
		Email: req.Email,
		Hash:  hash,
		Role:  model.RoleUser,
	}
	s.nextUserID++
	s.users[req.Email] = acct

	writeJSON(w, http.StatusOK, model.User{ID: acct.ID, Email: acct.Email, Role: acct.Role})
}

// handleMe returns the profile of the authenticated account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := accountFromContext(r.Context())
	writeJSON(w, http.StatusOK, model.User{ID: acct.ID, Email: acct.Email, Role: acct.Role})
}
