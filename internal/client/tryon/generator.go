// Package tryon is the boundary to the virtual try-on inference service.
// The model itself lives elsewhere; this package only moves image bytes in
// and out of it.
package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/common"
)

// ErrDisabled is returned when no inference endpoint is configured.
var ErrDisabled = errors.New("try-on generation is disabled")

// Result is one generated image.
type Result struct {
	Data           []byte
	ProcessingTime float64
	Parameters     map[string]any
}

// Generator renders the subject wearing the primary item.
type Generator interface {
	Generate(ctx context.Context, subject, primary []byte, params map[string]any) (*Result, error)
}

// Disabled is the Generator used when try-on is not configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, []byte, []byte, map[string]any) (*Result, error) {
	return nil, ErrDisabled
}

type request struct {
	SubjectImage string         `json:"subject_image"`
	PrimaryImage string         `json:"primary_image"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

type response struct {
	Success        bool           `json:"success"`
	ResultImage    string         `json:"result_image"`
	ProcessingTime float64        `json:"processing_time"`
	Parameters     map[string]any `json:"parameters"`
	Error          string         `json:"error"`
}

// HTTPGenerator posts both images as data URLs to an inference endpoint and
// expects the result as a data URL.
type HTTPGenerator struct {
	url        string
	httpClient *http.Client
}

func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (g *HTTPGenerator) Generate(ctx context.Context, subject, primary []byte, params map[string]any) (*Result, error) {
	body, err := json.Marshal(request{
		SubjectImage: assets.EncodeDataURL(http.DetectContentType(subject), subject),
		PrimaryImage: assets.EncodeDataURL(http.DetectContentType(primary), primary),
		Parameters:   params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &common.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &common.TransportError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode try-on response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("try-on failed: %s", out.Error)
	}
	_, data, err := assets.DecodeDataURL(out.ResultImage)
	if err != nil {
		return nil, fmt.Errorf("try-on result: %w", err)
	}

	if out.ProcessingTime == 0 {
		out.ProcessingTime = time.Since(start).Seconds()
	}
	if out.Parameters == nil {
		out.Parameters = params
	}
	return &Result{Data: data, ProcessingTime: out.ProcessingTime, Parameters: out.Parameters}, nil
}
