package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UserPayload is the profile save request body expected by the backend.
type UserPayload struct {
	DeviceID  string   `json:"deviceId"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	City      string   `json:"city"`
	Birthday  string   `json:"birthday"`
	Interests []string `json:"interests"`
}

// Client calls the secure profile backend. Calls are fire-and-await with
// no internal retry; failures raise to the caller.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new backend client
func NewClient(baseURL, authToken string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SaveUserData posts the collected profile to the backend. Any non-200
// status or transport failure is an error.
func (c *Client) SaveUserData(ctx context.Context, user *UserPayload) error {
	requestBody, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/save-user-data", bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend save failed (status %d): %s", resp.StatusCode, string(body))
	}

	c.logger.Info("Saved user data to backend", zap.String("device_id", user.DeviceID))
	return nil
}
