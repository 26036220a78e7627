// Package wordpress publishes articles through the WordPress REST API.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/infrastructure/config"
)

var (
	// ErrNotConfigured is returned when url or credentials are missing
	ErrNotConfigured = errors.New("wordpress: not configured")
	// ErrAuthFailed is returned when the site rejects the credentials
	ErrAuthFailed = errors.New("wordpress: authentication failed")
	// ErrUnexpectedStatus is returned for any other unexpected response
	ErrUnexpectedStatus = errors.New("wordpress: unexpected status")
)

const maxBodyBytes = 8 << 20

// Client talks to {url}/wp-json/wp/v2 with Basic or JWT auth.
type Client struct {
	siteURL  string
	apiURL   string
	username string
	password string
	useJWT   bool
	http     *http.Client
	logger   *zap.Logger

	mu    sync.Mutex
	token string
}

var _ article.Gateway = (*Client)(nil)

// NewClient returns ErrNotConfigured when cfg lacks url or credentials.
func NewClient(cfg config.WordPressConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		siteURL:  cfg.URL,
		apiURL:   cfg.URL + "/wp-json/wp/v2",
		username: cfg.Username,
		password: cfg.Password,
		useJWT:   cfg.UseJWT,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.Named("wordpress"),
	}, nil
}

// EditURL is the wp-admin edit page of a post.
func (c *Client) EditURL(postID int64) string {
	return fmt.Sprintf("%s/wp-admin/post.php?post=%d&action=edit", c.siteURL, postID)
}

// TestConnection lists one post with the configured credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/posts?per_page=1", nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("wordpress: test connection: %w", err)
	}
	return nil
}

type postBody struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Status     string            `json:"status"`
	Excerpt    string            `json:"excerpt"`
	Slug       string            `json:"slug,omitempty"`
	Categories []int64           `json:"categories"`
	Tags       []int64           `json:"tags"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// CreatePost creates a post and expects 201 Created.
func (c *Client) CreatePost(ctx context.Context, req article.PostRequest) (article.PostResult, error) {
	status := req.Status
	if status == "" {
		status = "draft"
	}
	body := postBody{
		Title:      req.Title,
		Content:    req.Content,
		Status:     status,
		Excerpt:    req.Excerpt,
		Slug:       req.Slug,
		Categories: nonNil(req.CategoryIDs),
		Tags:       nonNil(req.TagIDs),
		Meta:       req.Meta,
	}
	resp, err := c.doJSON(ctx, http.MethodPost, "/posts", body, http.StatusCreated)
	if err != nil {
		return article.PostResult{}, fmt.Errorf("wordpress: create post: %w", err)
	}
	result := article.PostResult{
		ID:     gjson.GetBytes(resp, "id").Int(),
		Link:   gjson.GetBytes(resp, "link").String(),
		Status: gjson.GetBytes(resp, "status").String(),
	}
	c.logger.Info("Post created", zap.Int64("post_id", result.ID), zap.String("link", result.Link))
	return result, nil
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, want int) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, &requestBody{contentType: "application/json", data: raw}, want)
}

type requestBody struct {
	contentType string
	data        []byte
}

func (c *Client) do(ctx context.Context, method, path string, body *requestBody, want int) ([]byte, error) {
	auth, err := c.authorization(ctx)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == want:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if c.useJWT {
			c.resetToken()
		}
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, errorMessage(data, resp.StatusCode))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, errorMessage(data, resp.StatusCode))
	}
}

// errorMessage prefers the REST error message over the raw body.
func errorMessage(body []byte, status int) string {
	if msg := gjson.GetBytes(body, "message").String(); msg != "" {
		return strconv.Itoa(status) + " " + msg
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strconv.Itoa(status) + " " + string(bytes.TrimSpace(body))
}
