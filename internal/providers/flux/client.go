// Package flux submits image edit jobs to the BFL API and polls them to
// completion. Generation runs as an asynchronous backend job: the submit
// call returns a polling URL, and the job is checked on a fixed interval
// until it reports a terminal status or the polling ceiling passes. The
// interval stays fixed because job completion time is roughly uniform.
package flux

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"moodshift/internal/domain"
)

const (
	defaultBaseURL      = "https://api.bfl.ai"
	submitPath          = "/v1/flux-2-klein-9b"
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 500 * time.Millisecond
	defaultPollTimeout  = 120 * time.Second
)

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// Timeout bounds each individual HTTP call; PollTimeout bounds the
	// whole polling loop and is intentionally much longer.
	Timeout      time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Client{
		httpClient:   client,
		baseURL:      base,
		apiKey:       strings.TrimSpace(opts.APIKey),
		pollInterval: interval,
		pollTimeout:  pollTimeout,
	}
}

type submitRequest struct {
	Prompt       string `json:"prompt"`
	InputImage   string `json:"input_image"`
	OutputFormat string `json:"output_format"`
}

type submitResponse struct {
	PollingURL string `json:"polling_url"`
}

type pollResponse struct {
	Status string `json:"status"`
	Result struct {
		Sample string `json:"sample"`
	} `json:"result"`
}

// GenerateImage submits an edit job and returns the finished image bytes.
// The caller's context cancels both the polling loop and in-flight requests;
// the client's own polling ceiling applies on top of it.
func (c *Client) GenerateImage(ctx context.Context, prompt, inputImageB64 string) ([]byte, error) {
	pollingURL, err := c.submit(ctx, prompt, inputImageB64)
	if err != nil {
		return nil, err
	}

	sampleURL, err := c.pollForResult(ctx, pollingURL)
	if err != nil {
		return nil, err
	}

	return c.fetchResult(ctx, sampleURL)
}

func (c *Client) submit(ctx context.Context, prompt, inputImageB64 string) (string, error) {
	payload := submitRequest{
		Prompt:       prompt,
		InputImage:   inputImageB64,
		OutputFormat: "png",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.WrapService(err, "flux: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return "", domain.WrapService(err, "flux: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapService(err, "flux: submit failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", domain.ServiceFailure("flux: insufficient credits")
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", domain.ServiceFailure("flux: rate limited")
	case resp.StatusCode >= 300:
		return "", domain.ServiceFailure("flux: submit returned http %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.WrapService(err, "flux: decode submit response")
	}
	if out.PollingURL == "" {
		return "", domain.ServiceFailure("flux: no polling_url in submit response")
	}
	return out.PollingURL, nil
}

// pollForResult checks job status on the fixed interval until a terminal
// status or the deadline. A pending status is re-checked, never treated as
// a failed call.
func (c *Client) pollForResult(ctx context.Context, pollingURL string) (string, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for time.Now().Before(deadline) {
		status, raw, err := c.checkStatus(ctx, pollingURL)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case "Ready":
			if status.Result.Sample == "" {
				return "", domain.ServiceFailure("flux: job ready but no sample url")
			}
			return status.Result.Sample, nil
		case "Failed", "Error":
			return "", domain.ServiceFailure("flux: generation failed: %s", raw)
		}

		select {
		case <-ctx.Done():
			return "", domain.WrapService(ctx.Err(), "flux: polling canceled")
		case <-time.After(c.pollInterval):
		}
	}
	return "", domain.ServiceFailure("flux: polling timed out after %s", c.pollTimeout)
}

func (c *Client) checkStatus(ctx context.Context, pollingURL string) (pollResponse, string, error) {
	var status pollResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollingURL, nil)
	if err != nil {
		return status, "", domain.WrapService(err, "flux: build poll request")
	}
	req.Header.Set("x-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, "", domain.WrapService(err, "flux: poll failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, "", domain.WrapService(err, "flux: read poll response")
	}
	if resp.StatusCode >= 300 {
		return status, "", domain.ServiceFailure("flux: poll returned http %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return status, "", domain.WrapService(err, "flux: decode poll response")
	}
	return status, string(raw), nil
}

func (c *Client) fetchResult(ctx context.Context, sampleURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sampleURL, nil)
	if err != nil {
		return nil, domain.WrapService(err, "flux: build result request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapService(err, "flux: fetch result failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return nil, domain.ServiceFailure("flux: result fetch returned http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapService(err, "flux: read result")
	}
	return data, nil
}
