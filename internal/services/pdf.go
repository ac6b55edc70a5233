package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/render"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

var ErrPrintingDisabled = errors.New("PDF printing is not configured")

// PDFService prints card sheets through a Gotenberg instance.
type PDFService struct {
	client     *gotenberg.Client
	sheet      *render.Sheet
	timeout    time.Duration
	maxRetries int
}

func NewPDFService(ctx context.Context, gotenbergURL string, timeoutStr string) (*PDFService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		ctxlog.FromContext(ctx).Warn("failed to parse Gotenberg timeout, using 30s", "timeout", timeoutStr, "error", err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		sheet:      render.NewSheet(),
		timeout:    timeout,
		maxRetries: 3,
	}, nil
}

func (s *PDFService) Enabled() bool {
	return s != nil && s.client != nil
}

// PrintSession renders the session's merged cards to a PDF. Rows that fail to
// merge are left off the sheet, as they are in the export.
func (s *PDFService) PrintSession(ctx context.Context, sess *Session) (io.ReadCloser, error) {
	if !s.Enabled() {
		return nil, ErrPrintingDisabled
	}

	result, err := sess.Preview(ctx)
	if err != nil {
		return nil, err
	}

	html, err := s.sheet.Render(result.Documents)
	if err != nil {
		return nil, err
	}

	return s.convertWithRetry(ctx, html)
}

func (s *PDFService) convertWithRetry(ctx context.Context, html string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		body, err := s.convert(ctx, html)
		if err == nil {
			return body, nil
		}

		lastErr = err
		ctxlog.FromContext(ctx).Warn("PDF conversion failed", "attempt", attempt, "max_attempts", s.maxRetries, "error", err)

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert sheet after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, html string) (io.ReadCloser, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	index, err := document.FromReader("index.html", strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from sheet: %w", err)
	}

	resp, err := s.client.Send(convertCtx, gotenberg.NewHTMLRequest(index))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}

	// the body outlives convertCtx, so read it before cancel runs
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
