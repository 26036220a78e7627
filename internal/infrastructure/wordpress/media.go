package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// UploadMedia uploads a file to the media library and sets its alt text.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte, altText string) (int64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/media", &requestBody{contentType: w.FormDataContentType(), data: buf.Bytes()}, http.StatusCreated)
	if err != nil {
		return 0, fmt.Errorf("wordpress: upload media: %w", err)
	}
	id := gjson.GetBytes(resp, "id").Int()

	if altText != "" {
		if err := c.UpdateMedia(ctx, id, map[string]string{"alt_text": altText}); err != nil {
			// the file exists even if the alt text update failed
			c.logger.Warn("Media alt text update failed", zap.Int64("media_id", id), zap.Error(err))
		}
	}
	return id, nil
}

// UpdateMedia updates fields of an uploaded media item.
func (c *Client) UpdateMedia(ctx context.Context, id int64, fields map[string]string) error {
	if _, err := c.doJSON(ctx, http.MethodPost, "/media/"+strconv.FormatInt(id, 10), fields, http.StatusOK); err != nil {
		return fmt.Errorf("wordpress: update media %d: %w", id, err)
	}
	return nil
}
