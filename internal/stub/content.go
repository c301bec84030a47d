package stub

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/go-chi/chi/v5"

	"github.com/me/romecli/pkg/model"
)

// handleListPosts returns the demo post feed.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	posts := make([]model.Post, len(s.posts))
	copy(posts, s.posts)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, posts)
}

// handleCreatePage registers a new page with zeroed KPI counters.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name required")
		return
	}

	s.mu.Lock()
	id := s.nextPageID
	s.nextPageID++
	s.pages[id] = &pageRecord{Name: req.Name}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.Page{ID: id, Name: req.Name})
}

// handleGetPage looks up a page by its path ID.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Page not found")
		return
	}

	s.mu.Lock()
	page, ok := s.pages[id]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Page not found")
		return
	}
	writeJSON(w, http.StatusOK, model.Page{ID: id, Name: page.Name})
}

// handleInvertImage decodes the uploaded image, inverts its colors and
// returns the result as PNG.
func (s *Server) handleInvertImage(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Невозможно прочитать изображение")
		return
	}

	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			out.Set(x, y, color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A})
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		s.logger.Error("encode inverted image", "error", err,
			"request_id", RequestIDFromContext(r.Context()))
	}
}
