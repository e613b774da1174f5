// Package client is a thin HTTP client for the tts-api service, used by the
// ttsctl command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	api "github.com/synthbed/tts-api/api/v1"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

func (c *Client) CreateJob(ctx context.Context, request api.CreateJobRequest) (*api.CreateJobResponse, error) {
	var response api.CreateJobResponse
	if err := c.do(ctx, http.MethodPost, "/v1/tts/async", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*api.Job, error) {
	var response api.Job
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+id, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) ListJobs(ctx context.Context, page int, pageSize int) (*api.JobList, error) {
	path := "/v1/jobs?page=" + strconv.Itoa(page) + "&page_size=" + strconv.Itoa(pageSize)
	var response api.JobList
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) CancelJob(ctx context.Context, id string) (*api.Job, error) {
	var response api.Job
	if err := c.do(ctx, http.MethodDelete, "/v1/jobs/"+id, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) ListLanguages(ctx context.Context) (*api.LanguageList, error) {
	var response api.LanguageList
	if err := c.do(ctx, http.MethodGet, "/v1/languages", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) Health(ctx context.Context) (*api.Health, error) {
	var response api.Health
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// DownloadAudio returns the raw artifact bytes.
func (c *Client) DownloadAudio(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/download/"+id, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func apiError(resp *http.Response) error {
	var apiErr api.Error
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%s (status %d)", apiErr.Message, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
