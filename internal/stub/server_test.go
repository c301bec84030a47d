package stub

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/me/romecli/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(testLogger()))
	t.Cleanup(ts.Close)
	return ts
}

// login exchanges credentials for an access token, failing the test on rejection.
func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	resp, err := http.PostForm(ts.URL+"/auth/token", form)
	if err != nil {
		t.Fatalf("POST /auth/token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	return body.AccessToken
}

// request performs an authorized request and returns the response.
func request(t *testing.T, method, rawURL, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, rawURL, err)
	}
	return resp
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	return body.Detail
}

func TestToken_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	form := url.Values{"username": {"admin@example.com"}, "password": {"nope"}}
	resp, err := http.PostForm(ts.URL+"/auth/token", form)
	if err != nil {
		t.Fatalf("POST /auth/token: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "Incorrect email or password" {
		t.Errorf("detail = %q", detail)
	}
}

func TestRegisterLoginWhoami(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/auth/register", "application/json",
		strings.NewReader(`{"email":"new@example.com","password":"secret"}`))
	if err != nil {
		t.Fatalf("POST /auth/register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	token := login(t, ts, "new@example.com", "secret")

	me := request(t, http.MethodGet, ts.URL+"/auth/me", token, nil)
	defer me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("whoami status = %d", me.StatusCode)
	}
	var user model.User
	if err := json.NewDecoder(me.Body).Decode(&user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Email != "new@example.com" || user.Role != model.RoleUser {
		t.Errorf("user = %+v", user)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	body := `{"email":"admin@example.com","password":"whatever"}`
	resp, err := http.Post(ts.URL+"/auth/register", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /auth/register: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "Email already registered" {
		t.Errorf("detail = %q", detail)
	}
}

func TestWhoami_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, http.MethodGet, ts.URL+"/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "Could not validate credentials" {
		t.Errorf("detail = %q", detail)
	}
}

func TestWhoami_ForgedToken(t *testing.T) {
	ts := newTestServer(t)

	resp := request(t, http.MethodGet, ts.URL+"/auth/me", "not-a-jwt", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestKPI_AccumulatesVisitsAndTime(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	for i := 0; i < 2; i++ {
		resp := request(t, http.MethodPost, ts.URL+"/kpi/visit", token,
			strings.NewReader(`{"page_id":4}`))
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("visit status = %d", resp.StatusCode)
		}
	}
	resp := request(t, http.MethodPost, ts.URL+"/kpi/time", token,
		strings.NewReader(`{"page_id":4,"seconds":42}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("time status = %d", resp.StatusCode)
	}

	kpiResp := request(t, http.MethodGet, ts.URL+"/kpi", token, nil)
	defer kpiResp.Body.Close()
	if kpiResp.StatusCode != http.StatusOK {
		t.Fatalf("kpi status = %d", kpiResp.StatusCode)
	}
	var entries []model.KPIEntry
	if err := json.NewDecoder(kpiResp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode kpi: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("kpi entries = %d, want 5", len(entries))
	}
	var posts *model.KPIEntry
	for i := range entries {
		if entries[i].PageName == "posts" {
			posts = &entries[i]
		}
	}
	if posts == nil {
		t.Fatal("no entry for posts page")
	}
	if posts.Visits != 2 || posts.TotalTimeSeconds != 42 {
		t.Errorf("posts entry = %+v, want 2 visits and 42 seconds", *posts)
	}
}

func TestKPI_AdminOnly(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/auth/register", "application/json",
		strings.NewReader(`{"email":"user@example.com","password":"pw"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	token := login(t, ts, "user@example.com", "pw")

	kpiResp := request(t, http.MethodGet, ts.URL+"/kpi", token, nil)
	if kpiResp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", kpiResp.StatusCode)
	}
	if detail := decodeDetail(t, kpiResp); detail != "Admins only" {
		t.Errorf("detail = %q", detail)
	}
}

func TestTime_SecondsRequired(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	resp := request(t, http.MethodPost, ts.URL+"/kpi/time", token,
		strings.NewReader(`{"page_id":1}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "seconds required" {
		t.Errorf("detail = %q", detail)
	}
}

func TestVisit_UnknownPage(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	resp := request(t, http.MethodPost, ts.URL+"/kpi/visit", token,
		strings.NewReader(`{"page_id":99}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPosts_ReturnsFeed(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	resp := request(t, http.MethodGet, ts.URL+"/posts", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var posts []model.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(posts) == 0 {
		t.Fatal("empty post feed")
	}
	if posts[0].Title == "" || posts[0].ID == 0 {
		t.Errorf("posts[0] = %+v", posts[0])
	}
}

func TestPages_CreateAndGet(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	resp := request(t, http.MethodPost, ts.URL+"/pages", token,
		strings.NewReader(`{"name":"archive"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created model.Page
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	resp.Body.Close()
	if created.ID != 6 || created.Name != "archive" {
		t.Errorf("created = %+v", created)
	}

	got := request(t, http.MethodGet, ts.URL+"/pages/6", token, nil)
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", got.StatusCode)
	}

	missing := request(t, http.MethodGet, ts.URL+"/pages/99", token, nil)
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing page status = %d, want 404", missing.StatusCode)
	}
	if detail := decodeDetail(t, missing); detail != "Page not found" {
		t.Errorf("detail = %q", detail)
	}
}

func TestInvertImage(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "test.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(buf.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/invert-image", &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /invert-image: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}

	out, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	got := color.RGBAModel.Convert(out.At(0, 0)).(color.RGBA)
	want := color.RGBA{G: 255, B: 255, A: 255}
	if got != want {
		t.Errorf("pixel (0,0) = %+v, want %+v", got, want)
	}
}

func TestInvertImage_Unreadable(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "admin@example.com", "admin123")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "junk.bin")
	part.Write([]byte("not an image"))
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/invert-image", &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /invert-image: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
