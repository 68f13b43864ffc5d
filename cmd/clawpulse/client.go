package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// HTTPDoer is the interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// APIClient wraps HTTP calls to the sync relay API.
type APIClient struct {
	BaseURL      string
	SharedSecret string
	HTTPClient   HTTPDoer
}

// PushRequest is the API payload for uploading a datapoint.
type PushRequest struct {
	Token   string `json:"token"`
	Payload string `json:"payload"`
}

// PushResponse is the API response from uploading a datapoint.
type PushResponse struct {
	Status    string `json:"status"`
	TTLHours  int    `json:"ttl_hours"`
	ExpiresAt string `json:"expires_at"`
}

// PulledDatapoint is one stored payload as returned by the server.
type PulledDatapoint struct {
	Payload   string `json:"payload"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

// PullResponse is the API response from fetching a token's datapoints.
type PullResponse struct {
	Count      int               `json:"count"`
	Datapoints []PulledDatapoint `json:"datapoints"`
}

// StatusResponse is the API response from the status endpoint.
type StatusResponse struct {
	Count  int64  `json:"count"`
	Oldest string `json:"oldest_created_at"`
	Newest string `json:"newest_created_at"`
}

// WipeResponse is the API response from deleting a token's data.
type WipeResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}

func (c *APIClient) newRequest(method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.SharedSecret != "" {
		req.Header.Set("X-Sync-Secret", c.SharedSecret)
	}
	return req, nil
}

// Push uploads an encrypted payload. ttlHours of 0 means use the server default.
func (c *APIClient) Push(token, payload string, ttlHours int) (PushResponse, error) {
	body, err := json.Marshal(PushRequest{Token: token, Payload: payload})
	if err != nil {
		return PushResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(http.MethodPost, "/api/v1/sync", body)
	if err != nil {
		return PushResponse{}, err
	}
	if ttlHours > 0 {
		req.Header.Set("X-TTL-Hours", strconv.Itoa(ttlHours))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return PushResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return PushResponse{}, readAPIError(resp)
	}

	var result PushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return PushResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// Pull fetches all live datapoints for the token, oldest first.
func (c *APIClient) Pull(token string) (PullResponse, error) {
	req, err := c.newRequest(http.MethodGet, "/api/v1/sync/"+url.PathEscape(token), nil)
	if err != nil {
		return PullResponse{}, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return PullResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PullResponse{}, readAPIError(resp)
	}

	var result PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return PullResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// Status fetches the datapoint count and timestamps without payload bytes.
func (c *APIClient) Status(token string) (StatusResponse, error) {
	req, err := c.newRequest(http.MethodGet, "/api/v1/sync/"+url.PathEscape(token)+"/status", nil)
	if err != nil {
		return StatusResponse{}, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusResponse{}, readAPIError(resp)
	}

	var result StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return StatusResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// Wipe deletes everything stored under the token.
func (c *APIClient) Wipe(token string) (WipeResponse, error) {
	req, err := c.newRequest(http.MethodDelete, "/api/v1/sync/"+url.PathEscape(token), nil)
	if err != nil {
		return WipeResponse{}, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return WipeResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WipeResponse{}, readAPIError(resp)
	}

	var result WipeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return WipeResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("server error (%d)", resp.StatusCode)
}
