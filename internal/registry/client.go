package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"toll-engine/internal/config"
	"toll-engine/internal/utils"
)

type ownerResponse struct {
	Success   bool   `json:"success"`
	OwnerName string `json:"owner_name"`
	Plate     string `json:"plate"`
}

// Client resolves plates against an external vehicle registry service.
type Client struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:       cfg.Registry.ServiceURL,
		internalToken: cfg.Registry.InternalToken,
		httpClient: &http.Client{
			Timeout: cfg.Registry.Timeout,
		},
	}
}

func (c *Client) Resolve(ctx context.Context, plate string) (Owner, error) {
	if c.baseURL == "" {
		return Owner{}, fmt.Errorf("registry service URL is not configured")
	}

	normalized := utils.NormalizePlate(plate)
	if normalized == "" {
		return Owner{}, fmt.Errorf("invalid plate number")
	}

	u, err := url.Parse(c.baseURL + "/internal/registry/owners")
	if err != nil {
		return Owner{}, fmt.Errorf("invalid registry service URL: %w", err)
	}

	q := u.Query()
	q.Set("plate", normalized)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Owner{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	var resp *http.Response
	var lastErr error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
		if attempt == maxRetries-1 {
			return Owner{}, fmt.Errorf("failed to execute request after %d attempts: %w", maxRetries, lastErr)
		}
		select {
		case <-ctx.Done():
			return Owner{}, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 200 * time.Millisecond):
		}
		req, _ = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if c.internalToken != "" {
			req.Header.Set("X-Internal-Token", c.internalToken)
		}
	}
	if resp == nil {
		return Owner{}, fmt.Errorf("failed to execute request: %w", lastErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Owner{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return Owner{Name: "Unregistered", Registered: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Owner{}, fmt.Errorf("registry service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response ownerResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Owner{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if !response.Success || response.OwnerName == "" {
		return Owner{Name: "Unregistered", Registered: false}, nil
	}

	return Owner{Name: response.OwnerName, Registered: true}, nil
}
