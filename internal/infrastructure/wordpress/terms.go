package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/seoblog/backend/internal/domain/content"
)

// Taxonomy endpoints.
const (
	Categories = "categories"
	Tags       = "tags"
)

// CreateCategory creates a category and returns its ID.
func (c *Client) CreateCategory(ctx context.Context, name, description string) (int64, error) {
	return c.createTerm(ctx, Categories, map[string]string{"name": name, "description": description})
}

// CreateTag creates a tag and returns its ID.
func (c *Client) CreateTag(ctx context.Context, name string) (int64, error) {
	return c.createTerm(ctx, Tags, map[string]string{"name": name})
}

// FindCategory looks a category up by the slug of name. ok is false when absent.
func (c *Client) FindCategory(ctx context.Context, name string) (id int64, ok bool, err error) {
	return c.findTerm(ctx, Categories, name)
}

// FindTag looks a tag up by the slug of name.
func (c *Client) FindTag(ctx context.Context, name string) (id int64, ok bool, err error) {
	return c.findTerm(ctx, Tags, name)
}

// EnsureCategories resolves names to category IDs, creating missing ones.
func (c *Client) EnsureCategories(ctx context.Context, names []string) ([]int64, error) {
	return c.EnsureTerms(ctx, Categories, names)
}

// EnsureTags resolves names to tag IDs, creating missing ones.
func (c *Client) EnsureTags(ctx context.Context, names []string) ([]int64, error) {
	return c.EnsureTerms(ctx, Tags, names)
}

// EnsureTerms finds or creates each named term of taxonomy. Blank and
// repeated names are skipped.
func (c *Client) EnsureTerms(ctx context.Context, taxonomy string, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := content.Slugify(name)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}

		id, ok, err := c.findTerm(ctx, taxonomy, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			id, err = c.createTerm(ctx, taxonomy, map[string]string{"name": name})
			if err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) findTerm(ctx context.Context, taxonomy, name string) (int64, bool, error) {
	q := url.Values{"slug": {content.Slugify(name)}}
	data, err := c.do(ctx, http.MethodGet, "/"+taxonomy+"?"+q.Encode(), nil, http.StatusOK)
	if err != nil {
		return 0, false, fmt.Errorf("wordpress: find %s %q: %w", taxonomy, name, err)
	}
	first := gjson.GetBytes(data, "0.id")
	if !first.Exists() {
		return 0, false, nil
	}
	return first.Int(), true, nil
}

func (c *Client) createTerm(ctx context.Context, taxonomy string, payload map[string]string) (int64, error) {
	data, err := c.doJSON(ctx, http.MethodPost, "/"+taxonomy, payload, http.StatusCreated)
	if err != nil {
		return 0, fmt.Errorf("wordpress: create %s %q: %w", taxonomy, payload["name"], err)
	}
	return gjson.GetBytes(data, "id").Int(), nil
}
