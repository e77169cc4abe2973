// Package findface implements the HTTP client for the external
// face-recognition service described in spec.md §6: a bearer-token login
// followed by multipart submissions of face crops. Grounded on
// infrastructure/clients/findface_async.py's pooled httpx.Client — the Go
// translation keeps a single pooled *http.Client alive across submissions
// instead of dialing fresh per request.
package findface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"faceworker/internal/domain"
)

// Client submits face events to the face-recognition service over a pooled
// HTTP transport, authenticating with a bearer token obtained at startup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Config holds the dial parameters from spec.md §4.4 and §6.
type Config struct {
	BaseURL        string
	User           string
	Password       string
	UUID           string
	MaxConnections int
	Timeout        time.Duration
}

// New creates a Client with a connection pool sized per cfg.MaxConnections,
// matching spec.md §4.4's "max_connections = 20, keep-alive enabled".
func New(cfg Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
	}
}

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
	UUID     string `json:"uuid"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login performs the startup `POST /login` call from spec.md §6 and stores
// the returned bearer token for use by Submit. Failure here is a startup
// failure (domain.PermanentUpstreamError or network error), exit code 2.
func (c *Client) Login(ctx context.Context, user, password, uuid string) error {
	body, err := json.Marshal(loginRequest{User: user, Password: password, UUID: uuid})
	if err != nil {
		return fmt.Errorf("findface: encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("findface: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransientNetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &domain.PermanentUpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed loginResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("findface: decode login response: %w", err)
	}
	c.token = parsed.Token
	return nil
}

// Submit sends one Event's face crop to the service per spec.md §6's wire
// protocol: a multipart body of event_id, camera_id, timestamp, bbox, and
// the JPEG-encoded crop. Returns a *domain.TransientNetworkError or a 5xx
// classified as transient for the Forwarder's retry loop, and a
// *domain.PermanentUpstreamError for 4xx.
func (c *Client) Submit(ctx context.Context, event *domain.Event) error {
	crop, err := event.Crop()
	if err != nil {
		return fmt.Errorf("findface: crop event %s: %w", event.EventID, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	_ = writer.WriteField("event_id", event.EventID)
	_ = writer.WriteField("camera_id", fmt.Sprintf("%d", event.Frame.CameraID))
	_ = writer.WriteField("timestamp", event.Timestamp.Format(time.RFC3339))
	_ = writer.WriteField("bbox", fmt.Sprintf("%d,%d,%d,%d", event.Bbox.X1, event.Bbox.Y1, event.Bbox.X2, event.Bbox.Y2))

	part, err := writer.CreateFormFile("image", "face.jpg")
	if err != nil {
		return fmt.Errorf("findface: build form file: %w", err)
	}
	if _, err := part.Write(crop); err != nil {
		return fmt.Errorf("findface: write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("findface: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events/create_from_image/", &buf)
	if err != nil {
		return fmt.Errorf("findface: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransientNetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return &domain.TransientNetworkError{Err: fmt.Errorf("findface: http %d: %s", resp.StatusCode, respBody)}
	}
	return &domain.PermanentUpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
}
