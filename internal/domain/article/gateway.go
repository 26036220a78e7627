package article

import "context"

// PostRequest is a post to create on the publishing platform.
type PostRequest struct {
	Title       string
	Content     string
	Excerpt     string
	Slug        string
	Status      string
	CategoryIDs []int64
	TagIDs      []int64
	Meta        map[string]string
}

// PostResult identifies a created post.
type PostResult struct {
	ID     int64
	Link   string
	Status string
}

// Gateway publishes articles to an external blog platform.
type Gateway interface {
	TestConnection(ctx context.Context) error
	EnsureCategories(ctx context.Context, names []string) ([]int64, error)
	EnsureTags(ctx context.Context, names []string) ([]int64, error)
	CreatePost(ctx context.Context, post PostRequest) (PostResult, error)
	EditURL(postID int64) string
}
