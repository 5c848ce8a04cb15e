// Package netx moves payload bytes to pre-signed object storage URLs.
package netx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultTimeout   = 5 * time.Minute

	maxErrorBody = 4 << 10
)

var ErrInvalidURL = errors.New("invalid upload url")

// TransferError is a non-2xx answer from object storage.
type TransferError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TransferError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upload failed: %s", e.Status)
	}
	return fmt.Sprintf("upload failed: %s; body: %s", e.Status, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *TransferError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type UploaderOptions struct {
	HTTPClient *http.Client
	Attempts   int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

type Uploader struct {
	http      *http.Client
	attempts  int
	baseDelay time.Duration
	timeout   time.Duration
	log       logging.Logger
}

func NewUploader(opts UploaderOptions, log logging.Logger) *Uploader {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Attempts < 1 {
		opts.Attempts = DefaultAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Uploader{
		http:      opts.HTTPClient,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
		timeout:   opts.Timeout,
		log:       log.With("component", "uploader"),
	}
}

// Upload PUTs body to url. Network errors, 5xx and 429 are retried with
// exponential backoff; any other failure is returned at once.
func (u *Uploader) Upload(ctx context.Context, rawURL string, body []byte, contentType string) error {
	if err := checkURL(rawURL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	b := retry.WithMaxRetries(uint64(u.attempts-1), retry.NewExponential(u.baseDelay))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := u.put(ctx, rawURL, body, contentType)
		if err == nil {
			return nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
		u.log.Warn(ctx, "transfer attempt failed", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}

func retryable(err error) bool {
	if errors.Is(err, ErrInvalidURL) {
		return false
	}
	var te *TransferError
	if errors.As(err, &te) {
		return te.Temporary()
	}
	return true
}

func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

func (u *Uploader) put(ctx context.Context, rawURL string, body []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransferError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
