package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// authorization returns the Authorization header value. JWT tokens are
// fetched once and reused until the site rejects them.
func (c *Client) authorization(ctx context.Context) (string, error) {
	if !c.useJWT {
		creds := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		return "Basic " + creds, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return "Bearer " + c.token, nil
	}
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return "Bearer " + token, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL+"/wp-json/jwt-auth/v1/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("wordpress: jwt token: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: jwt token: %s", ErrAuthFailed, errorMessage(data, resp.StatusCode))
	}
	token := gjson.GetBytes(data, "token").String()
	if token == "" {
		return "", fmt.Errorf("%w: jwt token missing from response", ErrAuthFailed)
	}
	c.logger.Debug("JWT token acquired")
	return token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
