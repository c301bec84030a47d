package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/me/romecli/pkg/model"
)

// Posts fetches the proxied post list via GET /posts (bearer-authenticated).
func (c *Client) Posts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := c.getJSON(ctx, "/posts", &posts); err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	return posts, nil
}

// CreatePage registers a new trackable page via POST /pages (admin only).
func (c *Client) CreatePage(ctx context.Context, name string) (*model.Page, error) {
	resp, err := c.postJSON(ctx, "/pages", map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create page: %w", statusError(resp))
	}

	var page model.Page
	if err := decodeJSON(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page, nil
}

// GetPage fetches a page by ID via GET /pages/{id}.
func (c *Client) GetPage(ctx context.Context, id int) (*model.Page, error) {
	var page model.Page
	if err := c.getJSON(ctx, "/pages/"+strconv.Itoa(id), &page); err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &page, nil
}

// InvertImage uploads an image via POST /invert-image and returns the
// color-inverted PNG bytes.
func (c *Client) InvertImage(ctx context.Context, r io.Reader, filename string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("invert image: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("invert image: read input: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("invert image: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/invert-image", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("invert image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invert image: %w", statusError(resp))
	}
	return io.ReadAll(resp.Body)
}
