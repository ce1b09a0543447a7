// Package uploader provides a client for the hosted asset pipeline used by
// the upload node kinds. Files are posted as multipart assemblies and the
// assembly is polled until it reaches a terminal state.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// AssetKind selects the processing template applied to an upload.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

const (
	maxImageSize = 10 << 20  // 10MB
	maxVideoSize = 100 << 20 // 100MB

	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

var (
	// ErrUnsupportedFileType indicates the file extension does not match the asset kind.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates the upload exceeds the size limit for its kind.
	ErrFileTooLarge = errors.New("file too large")

	// ErrAssemblyFailed indicates the pipeline reported a terminal failure.
	ErrAssemblyFailed = errors.New("assembly failed")
)

var allowedExtensions = map[AssetKind][]string{
	AssetKindImage: {".jpeg", ".jpg", ".png", ".webp", ".gif"},
	AssetKindVideo: {".mp4", ".mov", ".webm", ".m4v"},
}

// Config carries the pipeline credentials and per-kind template IDs.
type Config struct {
	BaseURL       string
	AuthKey       string
	ImageTemplate string
	VideoTemplate string
}

// Client talks to the asset pipeline.
type Client struct {
	config       Config
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewClient creates a new asset pipeline client.
func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		config:       config,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With("module", "uploader"),
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
}

type assemblyResponse struct {
	OK          string `json:"ok"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	AssemblyURL string `json:"assembly_ssl_url"`
	Results     map[string][]struct {
		URL string `json:"ssl_url"`
	} `json:"results"`
}

// Upload posts the file, waits for the assembly to finish and returns the
// URL of the processed asset.
func (c *Client) Upload(ctx context.Context, kind AssetKind, filename string, size int64, content io.Reader) (string, error) {
	if err := c.validate(kind, filename, size); err != nil {
		return "", err
	}

	assembly, err := c.createAssembly(ctx, kind, filename, content)
	if err != nil {
		return "", err
	}

	return c.waitForAssembly(ctx, assembly)
}

func (c *Client) validate(kind AssetKind, filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))

	allowed := false

	for _, candidate := range allowedExtensions[kind] {
		if ext == candidate {
			allowed = true

			break
		}
	}

	if !allowed {
		return fmt.Errorf("%w: %s for %s upload", ErrUnsupportedFileType, ext, kind)
	}

	limit := int64(maxImageSize)
	if kind == AssetKindVideo {
		limit = maxVideoSize
	}

	if size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, limit)
	}

	return nil
}

func (c *Client) template(kind AssetKind) string {
	if kind == AssetKindVideo {
		return c.config.VideoTemplate
	}

	return c.config.ImageTemplate
}

func (c *Client) createAssembly(ctx context.Context, kind AssetKind, filename string, content io.Reader) (*assemblyResponse, error) {
	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	params, err := json.Marshal(map[string]any{
		"auth":        map[string]string{"key": c.config.AuthKey},
		"template_id": c.template(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assembly params: %w", err)
	}

	if err := writer.WriteField("params", string(params)); err != nil {
		return nil, fmt.Errorf("failed to write assembly params: %w", err)
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/assemblies", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create assembly request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post assembly: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	var assembly assemblyResponse

	if err := json.NewDecoder(resp.Body).Decode(&assembly); err != nil {
		return nil, fmt.Errorf("failed to decode assembly response: %w", err)
	}

	if assembly.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAssemblyFailed, assembly.Message)
	}

	return &assembly, nil
}

// waitForAssembly polls the assembly URL until the pipeline reports a
// terminal state or the poll window closes.
func (c *Client) waitForAssembly(ctx context.Context, assembly *assemblyResponse) (string, error) {
	deadline := time.Now().Add(c.pollTimeout)

	current := assembly

	for {
		switch current.OK {
		case "ASSEMBLY_COMPLETED":
			return resultURL(current)
		case "ASSEMBLY_UPLOADING", "ASSEMBLY_EXECUTING", "":
			// still in flight
		default:
			return "", fmt.Errorf("%w: %s", ErrAssemblyFailed, current.OK)
		}

		if current.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrAssemblyFailed, current.Message)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: polling timed out", ErrAssemblyFailed)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		next, err := c.fetchAssembly(ctx, current.AssemblyURL)
		if err != nil {
			return "", err
		}

		current = next
	}
}

func (c *Client) fetchAssembly(ctx context.Context, url string) (*assemblyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create assembly status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assembly status: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	var assembly assemblyResponse

	if err := json.NewDecoder(resp.Body).Decode(&assembly); err != nil {
		return nil, fmt.Errorf("failed to decode assembly status: %w", err)
	}

	return &assembly, nil
}

func resultURL(assembly *assemblyResponse) (string, error) {
	for _, results := range assembly.Results {
		for _, result := range results {
			if result.URL != "" {
				return result.URL, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no result URL in completed assembly", ErrAssemblyFailed)
}
