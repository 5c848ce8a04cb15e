package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 30 * time.Second

	pathUploadInit     = "/api/gallery/upload/init"
	pathUploadComplete = "/api/gallery/upload/complete"
	pathGalleryAll     = "/api/gallery/all"

	requestIDHeader = "X-Request-Id"
)

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	log     logging.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient sets the underlying client. Its transport is wrapped, not
// replaced, so tests can point it at an httptest server.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithTimeout bounds each metadata call.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHTTPClient(baseURL, accessToken string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	hc := *c.http
	hc.Transport = &bearerTransport{base: c.http.Transport, token: accessToken}
	c.http = &hc
	c.log = c.log.With("component", "gallery_client")
	return c, nil
}

func (c *HTTPClient) endpoint(p string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + p
	u.RawQuery = query.Encode()
	return u.String()
}

// do performs one JSON exchange and decodes a 2xx body into out.
func (c *HTTPClient) do(ctx context.Context, op, method, p string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &APIError{Op: op, Err: fmt.Errorf("%w: encode request: %w", ErrUnexpectedStatus, err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p, query), body)
	if err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "gallery call failed", "op", op, "request_id", reqID, "error", err)
		return &APIError{Op: op, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "gallery call", "op", op, "request_id", reqID, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
			Err:        mapStatus(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, io.EOF) {
			return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)}
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}
	return nil
}

func malformed(op string, err error) error {
	return &APIError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
}

func (c *HTTPClient) RequestSlots(ctx context.Context, descriptors []models.PayloadDescriptor) ([]models.UploadSlot, error) {
	const op = "request slots"

	if descriptors == nil {
		descriptors = []models.PayloadDescriptor{}
	}
	var resp []slotDTO
	if err := c.do(ctx, op, http.MethodPost, pathUploadInit, nil, descriptors, &resp); err != nil {
		return nil, err
	}

	slots, err := slotsFromWire(resp, len(descriptors))
	if err != nil {
		return nil, malformed(op, err)
	}
	return slots, nil
}

func (c *HTTPClient) AnnounceCompletion(ctx context.Context, userID string, photos []models.UploadedPhoto) (*models.SyncDelta, error) {
	const op = "announce completion"

	var resp announceResponse
	if err := c.do(ctx, op, http.MethodPost, pathUploadComplete, nil, announceToWire(userID, photos), &resp); err != nil {
		return nil, err
	}

	if resp.SyncedAt.IsZero() {
		return nil, malformed(op, errors.New("missing syncedAt"))
	}
	added, err := recordsFromWire(resp.NewPhoto)
	if err != nil {
		return nil, malformed(op, err)
	}
	deleted, err := recordsFromWire(resp.DeletedPhoto)
	if err != nil {
		return nil, malformed(op, err)
	}
	return &models.SyncDelta{SyncedAt: resp.SyncedAt.UTC(), NewPhotos: added, DeletedPhotos: deleted}, nil
}

func (c *HTTPClient) FetchAll(ctx context.Context, userID string) ([]models.RemotePhotoRecord, error) {
	const op = "fetch gallery"

	var resp fetchAllResponse
	if err := c.do(ctx, op, http.MethodGet, pathGalleryAll, url.Values{"userId": {userID}}, nil, &resp); err != nil {
		return nil, err
	}

	records, err := recordsFromWire(resp.Photos)
	if err != nil {
		return nil, malformed(op, err)
	}
	return records, nil
}
