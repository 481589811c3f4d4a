// Package converter talks to an optional external service that rewraps a
// finished clip into mp4. The service is strictly best-effort: every
// failure path falls back to the original bytes, so an export can never be
// lost to a conversion problem.
package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vixalabs/vixa/internal/logger"
)

const (
	healthTimeout  = 3 * time.Second
	convertTimeout = 2 * time.Minute

	// maxResponseSize bounds how much of a conversion response is read.
	maxResponseSize = 512 * 1024 * 1024
)

// Result is the outcome of a conversion attempt. Bytes always holds a
// usable clip: the converted one on success, the original otherwise.
type Result struct {
	Bytes     []byte
	Ext       string
	Converted bool
}

// Client is a conversion service endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the given service URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: convertTimeout},
	}
}

// Healthy probes the service root with a short deadline. Used to decide
// whether conversion is offered at all, never to gate an export.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// Convert uploads the clip and returns the converted bytes. Any failure —
// invalid input, transport error, bad status, unparseable response — logs
// a warning and returns the original bytes with Converted false.
func (c *Client) Convert(ctx context.Context, data []byte, width, height int, ext string) Result {
	fallback := Result{Bytes: data, Ext: ext}

	if !isVideo(data) {
		logger.Warn("Conversion skipped: payload is not a recognized video container")
		return fallback
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "recording."+ext)
	if err != nil {
		logger.Warnf("Conversion failed, keeping original: %v", err)
		return fallback
	}
	if _, err := part.Write(data); err != nil {
		logger.Warnf("Conversion failed, keeping original: %v", err)
		return fallback
	}
	mw.WriteField("width", strconv.Itoa(width))   //nolint:errcheck
	mw.WriteField("height", strconv.Itoa(height)) //nolint:errcheck
	if err := mw.Close(); err != nil {
		logger.Warnf("Conversion failed, keeping original: %v", err)
		return fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/convert", body)
	if err != nil {
		logger.Warnf("Conversion failed, keeping original: %v", err)
		return fallback
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Warnf("Conversion request failed, keeping original: %v", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("Conversion service returned %d, keeping original", resp.StatusCode)
		return fallback
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		logger.Warnf("Conversion response unreadable, keeping original: %v", err)
		return fallback
	}

	ct := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "video/"), strings.HasPrefix(ct, "application/octet-stream"):
		logger.Infof("Conversion succeeded: %d bytes", len(payload))
		return Result{Bytes: payload, Ext: "mp4", Converted: true}
	case strings.HasPrefix(ct, "application/json"):
		return c.followRedirect(ctx, payload, fallback)
	default:
		logger.Warnf("Conversion response has unexpected type %q, keeping original", ct)
		return fallback
	}
}

// followRedirect handles JSON responses referencing the converted media by
// URL. Both {"url": ...} and {"download": ...} shapes are accepted, with an
// optional success/ok flag that, when present and false, is a failure.
func (c *Client) followRedirect(ctx context.Context, payload []byte, fallback Result) Result {
	var ref struct {
		Success  *bool  `json:"success"`
		OK       *bool  `json:"ok"`
		URL      string `json:"url"`
		Download string `json:"download"`
	}
	if err := json.Unmarshal(payload, &ref); err != nil {
		logger.Warn("Conversion response JSON unparseable, keeping original")
		return fallback
	}
	if (ref.Success != nil && !*ref.Success) || (ref.OK != nil && !*ref.OK) {
		logger.Warn("Conversion service reported failure, keeping original")
		return fallback
	}
	url := ref.URL
	if url == "" {
		url = ref.Download
	}
	if url == "" {
		logger.Warn("Conversion response JSON missing url, keeping original")
		return fallback
	}
	if strings.HasPrefix(url, "/") {
		url = c.BaseURL + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warnf("Conversion result fetch failed, keeping original: %v", err)
		return fallback
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Warnf("Conversion result fetch failed, keeping original: %v", err)
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warnf("Conversion result fetch returned %d, keeping original", resp.StatusCode)
		return fallback
	}
	media, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		logger.Warnf("Conversion result unreadable, keeping original: %v", err)
		return fallback
	}
	logger.Infof("Conversion succeeded via redirect: %d bytes", len(media))
	return Result{Bytes: media, Ext: "mp4", Converted: true}
}

// isVideo checks for the webm EBML or mp4 ftyp signature.
func isVideo(data []byte) bool {
	if len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return true
	}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return true
	}
	return false
}

// Describe formats the service state for status output.
func (c *Client) Describe(ctx context.Context) string {
	if c.Healthy(ctx) {
		return fmt.Sprintf("converter %s: available", c.BaseURL)
	}
	return fmt.Sprintf("converter %s: unavailable", c.BaseURL)
}
