// Package stub implements a self-contained replica of the backend API the
// client talks to: token auth, registration, page KPI counters and a couple
// of content endpoints. State lives in memory, so it is suited for local
// development and tests rather than production use.
package stub

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/me/romecli/pkg/model"
)

// account is a registered user with a bcrypt password hash.
type account struct {
	ID    int
	Email string
	Hash  []byte
	Role  model.Role
}

// pageRecord holds a page and its accumulated KPI counters.
type pageRecord struct {
	Name         string
	Visits       int
	TotalSeconds int
}

// Server is the stub backend. All handlers share one mutex; the state is
// small enough that contention does not matter here.
type Server struct {
	router chi.Router
	logger *slog.Logger
	secret []byte

	mu         sync.Mutex
	users      map[string]*account
	nextUserID int
	pages      map[int]*pageRecord
	nextPageID int
	posts      []model.Post
}

// Option configures optional Server settings.
type Option func(*Server)

// WithSecret overrides the JWT signing secret.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// New creates a stub server seeded with the admin account and the five
// content pages the client navigates between.
func New(logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger.With("component", "stub"),
		secret:     []byte("local-dev-secret"),
		users:      make(map[string]*account),
		nextUserID: 1,
		pages:      make(map[int]*pageRecord),
		nextPageID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.seed()
	s.routes()
	return s
}

func (s *Server) seed() {
	// Low bcrypt cost: this server backs local development and tests.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		panic("stub: seed admin hash: " + err.Error())
	}
	s.users["admin@example.com"] = &account{
		ID:    s.nextUserID,
		Email: "admin@example.com",
		Hash:  hash,
		Role:  model.RoleAdmin,
	}
	s.nextUserID++

	for _, name := range []string{"intro", "description", "conclusion", "posts", "api"} {
		s.pages[s.nextPageID] = &pageRecord{Name: name}
		s.nextPageID++
	}

	s.posts = []model.Post{
		{ID: 1, UserID: 1, Title: "sunt aut facere repellat", Body: "quia et suscipit\nsuscipit recusandae"},
		{ID: 2, UserID: 1, Title: "qui est esse", Body: "est rerum tempore vitae\nsequi sint nihil"},
		{ID: 3, UserID: 2, Title: "ea molestias quasi", Body: "et iusto sed quo iure"},
		{ID: 4, UserID: 2, Title: "eum et est occaecati", Body: "ullam et saepe reiciendis voluptatem"},
		{ID: 5, UserID: 3, Title: "nesciunt quas odio", Body: "repudiandae veniam quaerat sunt sed"},
		{ID: 6, UserID: 3, Title: "dolorem eum magni", Body: "ut aspernatur corporis harum nihil"},
	}
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Post("/auth/token", s.handleToken)
	r.Post("/auth/register", s.handleRegister)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/auth/me", s.handleMe)
		r.Get("/posts", s.handleListPosts)
		r.Post("/invert-image", s.handleInvertImage)
		r.Get("/pages/{id}", s.handleGetPage)
		r.Post("/kpi/visit", s.handleVisit)
		r.Post("/kpi/time", s.handleTime)
	})

	// Admin-only routes
	r.Group(func(r chi.Router) {
		r.Use(s.requireUser, s.requireAdmin)
		r.Get("/kpi", s.handleKPI)
		r.Post("/pages", s.handleCreatePage)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}
