// Package veo talks to the Vertex AI Veo long-running prediction API: one
// call to start a generation, repeated polls against the returned operation,
// and a final download of the produced video bytes.
package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/MarcoDiFrancesco/telegram-video-gen/internal/domain"
)

const (
	defaultLocation     = "us-central1"
	defaultTimeout      = 60 * time.Second
	defaultPollInterval = 5 * time.Second

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	gcsBaseURL         = "https://storage.googleapis.com"

	// Error bodies are clipped before ending up in wrapped errors.
	maxErrorBody = 4096
)

// Options controls how the Veo client is configured. TokenSource, HTTPClient,
// the base URLs, and PollInterval exist so tests can substitute fakes; zero
// values fall back to production defaults.
type Options struct {
	ProjectID      string
	Location       string
	TokenSource    oauth2.TokenSource
	HTTPClient     *http.Client
	BaseURL        string
	StorageBaseURL string
	PollInterval   time.Duration
}

// Client is a Veo API client authenticated with a bearer token that is
// refreshed on every call.
type Client struct {
	projectID    string
	location     string
	baseURL      string
	storageURL   string
	tokens       oauth2.TokenSource
	httpClient   *http.Client
	pollInterval time.Duration
}

// GenerateParams are the remote-side knobs for one generation instance.
type GenerateParams struct {
	Model           string
	DurationSeconds int
	Resolution      string
	GenerateAudio   bool
	SampleCount     int
}

// Job identifies an in-flight generation operation. It lives for one pipeline
// run and is never persisted.
type Job struct {
	OperationName string
	Model         string
}

// Video is one generated sample as returned on the wire. The API populates
// exactly one of the two fields.
type Video struct {
	GCSURI      string `json:"gcsUri,omitempty"`
	BytesBase64 string `json:"bytesBase64Encoded,omitempty"`
}

// PollResult is the terminal outcome of a poll loop. Done=false with Err set
// means the wall-clock budget ran out before the remote finished.
type PollResult struct {
	Done          bool
	Videos        []Video
	FilteredCount int
	Err           error
}

type submitRequest struct {
	Instances  []submitInstance `json:"instances"`
	Parameters submitParameters `json:"parameters"`
}

type submitInstance struct {
	Prompt string `json:"prompt"`
}

type submitParameters struct {
	DurationSeconds int    `json:"durationSeconds"`
	Resolution      string `json:"resolution"`
	GenerateAudio   bool   `json:"generateAudio"`
	SampleCount     int    `json:"sampleCount"`
}

type fetchOperationRequest struct {
	OperationName string `json:"operationName"`
}

type operationResponse struct {
	Name     string           `json:"name,omitempty"`
	Done     bool             `json:"done,omitempty"`
	Error    *operationError  `json:"error,omitempty"`
	Response *predictResponse `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type predictResponse struct {
	Videos                []Video `json:"videos,omitempty"`
	RAIMediaFilteredCount int     `json:"raiMediaFilteredCount,omitempty"`
}

// NewClient builds a Veo client. Without an explicit TokenSource it resolves
// Google application-default credentials, which is where the configured
// service credential file comes in.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("veo: project id is required")
	}

	location := opts.Location
	if location == "" {
		location = defaultLocation
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", location)
	}

	storageURL := strings.TrimRight(opts.StorageBaseURL, "/")
	if storageURL == "" {
		storageURL = gcsBaseURL
	}

	tokens := opts.TokenSource
	if tokens == nil {
		ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("veo: load default credentials: %w", err)
		}
		tokens = ts
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Client{
		projectID:    opts.ProjectID,
		location:     location,
		baseURL:      baseURL,
		storageURL:   storageURL,
		tokens:       tokens,
		httpClient:   httpClient,
		pollInterval: pollInterval,
	}, nil
}

// Submit starts one generation instance for the prompt and returns the job
// handle. A response without an operation name is a submission failure even
// when the HTTP call itself succeeded.
func (c *Client) Submit(ctx context.Context, prompt string, params GenerateParams) (Job, error) {
	body := submitRequest{
		Instances: []submitInstance{{Prompt: prompt}},
		Parameters: submitParameters{
			DurationSeconds: params.DurationSeconds,
			Resolution:      params.Resolution,
			GenerateAudio:   params.GenerateAudio,
			SampleCount:     params.SampleCount,
		},
	}

	var out operationResponse
	if err := c.post(ctx, c.modelEndpoint(params.Model, "predictLongRunning"), body, &out); err != nil {
		return Job{}, fmt.Errorf("submit generation: %w", err)
	}
	if out.Name == "" {
		return Job{}, fmt.Errorf("%w: predictLongRunning response carried no operation name", domain.ErrMissingOperation)
	}
	return Job{OperationName: out.Name, Model: params.Model}, nil
}

// Poll checks the operation at a fixed cadence until the remote reports done
// or maxWait elapses. A transport failure on any single check terminates the
// loop with that failure as the result error; there is no retry, backoff, or
// jitter. On budget exhaustion the result is Done=false with a timeout error
// and no videos.
func (c *Client) Poll(ctx context.Context, job Job, maxWait time.Duration) PollResult {
	endpoint := c.modelEndpoint(job.Model, "fetchPredictOperation")
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		var out operationResponse
		if err := c.post(ctx, endpoint, fetchOperationRequest{OperationName: job.OperationName}, &out); err != nil {
			return PollResult{Done: true, Err: fmt.Errorf("poll operation: %w", err)}
		}

		if out.Done {
			if out.Error != nil {
				return PollResult{Done: true, Err: fmt.Errorf("generation failed: %s", out.Error.Message)}
			}
			result := PollResult{Done: true}
			if out.Response != nil {
				result.Videos = out.Response.Videos
				result.FilteredCount = out.Response.RAIMediaFilteredCount
			}
			return result
		}

		select {
		case <-ctx.Done():
			return PollResult{Done: true, Err: ctx.Err()}
		case <-time.After(c.pollInterval):
		}
	}

	return PollResult{Done: false, Err: errors.New("operation timed out")}
}

// Fetch materializes one generated video. The API describes a result either
// as a GCS object reference or as inline base64 bytes; both forms must be
// handled, and anything else is an unsupported encoding.
func (c *Client) Fetch(ctx context.Context, video Video) ([]byte, error) {
	switch {
	case video.GCSURI != "":
		return c.downloadObject(ctx, video.GCSURI)
	case video.BytesBase64 != "":
		data, err := base64.StdEncoding.DecodeString(video.BytesBase64)
		if err != nil {
			return nil, fmt.Errorf("decode inline video: %w", err)
		}
		return data, nil
	default:
		return nil, domain.ErrUnsupportedEncoding
	}
}

// downloadObject fetches a gs://bucket/path object through the Cloud Storage
// HTTP endpoint using the same bearer token as the prediction calls.
func (c *Client) downloadObject(ctx context.Context, gcsURI string) ([]byte, error) {
	object := strings.TrimPrefix(gcsURI, "gs://")
	if object == "" || object == gcsURI {
		return nil, fmt.Errorf("invalid gcs uri %q", gcsURI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.storageURL+"/"+object, nil)
	if err != nil {
		return nil, fmt.Errorf("build storage request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download video: storage returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read video body: %w", err)
	}
	return data, nil
}

// post issues one authenticated JSON request and decodes the response into out.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authorize refreshes the bearer token and stamps it onto the request.
func (c *Client) authorize(req *http.Request) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return nil
}

func (c *Client) modelEndpoint(model, verb string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL, c.projectID, c.location, model, verb)
}
