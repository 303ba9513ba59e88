// Package cloudclient talks to the cloud node: registration and login over
// HTTP, snapshot delivery for sync, and reachability over gRPC health.
package cloudclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
)

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// Client is the HTTP side of the cloud node API. It satisfies
// syncer.Transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

var _ syncer.Transport = (*Client)(nil)

// New returns a client for the cloud node at baseURL. timeout bounds every
// request, snapshot uploads included, so it should be generous.
func New(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("module", "cloud_client"),
	}
}

// Register creates the cloud account linked to req.LocalUserID.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates against the cloud node and returns its access token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", "", models.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push delivers snap for the local user userID.
func (c *Client) Push(ctx context.Context, userID, token string, snap *syncer.Snapshot) (*syncer.IngestResult, error) {
	var res syncer.IngestResult
	if err := c.do(ctx, http.MethodPost, "/api/sync/user/"+url.PathEscape(userID), token, snap, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &common.TransportError{StatusCode: http.StatusOK, Body: "cloud node reported failure"}
	}
	return &res, nil
}

// SyncHistory returns the most recent sync audit records the cloud node
// holds for the local user userID.
func (c *Client) SyncHistory(ctx context.Context, userID, token string) ([]models.SyncRecord, error) {
	var resp struct {
		Success bool                `json:"success"`
		History []models.SyncRecord `json:"sync_history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID)+"/sync/status", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.mapError(ctx, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &common.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// mapError turns a non-200 answer into the error taxonomy: 404 from the
// sync endpoint means the user is not registered remotely, 401 is
// unauthorized, other 4xx are validation failures, and everything else is a
// transport error worth retrying.
func (c *Client) mapError(ctx context.Context, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var er models.ErrorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		msg = er.Error
	}

	c.logger.Warn(ctx, "cloud request failed", "path", path, "status", resp.StatusCode, "error", msg)

	switch {
	case resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/api/sync/"):
		return fmt.Errorf("%w: %s", common.ErrorUnregisteredRemoteUser, msg)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return common.Validationf("%s", msg)
	default:
		return &common.TransportError{StatusCode: resp.StatusCode, Body: msg}
	}
}
