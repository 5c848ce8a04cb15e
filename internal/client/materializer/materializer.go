// Package materializer turns local assets into upload-ready payloads: a
// bounded-resolution JPEG (or PNG, when the source is PNG) with a file name
// that cannot collide inside a batch.
package materializer

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/photosync/internal/client/assets"
	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/imagex"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultJPEGQuality = 80
	DefaultConcurrency = 4
	idPrefixLen        = 8
)

var DefaultBound = imagex.Size{Width: 1920, Height: 1080}

type Options struct {
	Bound       imagex.Size
	JPEGQuality int
	Concurrency int
}

func (o Options) withDefaults() Options {
	if !o.Bound.Valid() {
		o.Bound = DefaultBound
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	if o.Concurrency < 1 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

type Materializer struct {
	store assets.Store
	opts  Options
	log   logging.Logger
	now   func() time.Time
}

func New(store assets.Store, opts Options, log logging.Logger) *Materializer {
	if log == nil {
		log = logging.Nop()
	}
	return &Materializer{
		store: store,
		opts:  opts.withDefaults(),
		log:   log.With("component", "materializer"),
		now:   time.Now,
	}
}

// idPrefix keeps the first few filename-safe characters of the last segment
// of an asset ID, without its extension.
func idPrefix(id string) string {
	base := path.Base(id)
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range base {
		if b.Len() >= idPrefixLen {
			break
		}
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || base == "." || base == "/" {
		return "asset"
	}
	return b.String()
}

// FileName derives the upload file name for an asset at time t.
func FileName(assetID string, t time.Time, contentType string) string {
	ext := ".jpg"
	if contentType == models.ContentTypePNG {
		ext = ".png"
	}
	return fmt.Sprintf("%s_%d%s", idPrefix(assetID), t.UnixNano(), ext)
}

// Materialize decodes asset at the configured bound and re-encodes it.
// The original bytes are never returned.
func (m *Materializer) Materialize(ctx context.Context, asset models.LocalAsset) (*models.EncodedPayload, error) {
	img, format, err := m.store.Decode(ctx, asset, m.opts.Bound)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	contentType := models.ContentTypeJPEG
	if format == imagex.FormatPNG {
		contentType = models.ContentTypePNG
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: m.opts.JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", asset.ID, err)
	}

	return &models.EncodedPayload{
		LocalAssetID: asset.ID,
		Bytes:        buf.Bytes(),
		FileName:     FileName(asset.ID, m.now(), contentType),
		ContentType:  contentType,
	}, nil
}

// MaterializeAll materializes every asset concurrently. Survivors come back
// in input order; assets that fail are reported and dropped without
// affecting their siblings.
func (m *Materializer) MaterializeAll(ctx context.Context, list []models.LocalAsset) ([]*models.EncodedPayload, []models.AssetFailure) {
	results := make([]*models.EncodedPayload, len(list))
	errs := make([]error, len(list))

	g := new(errgroup.Group)
	g.SetLimit(m.opts.Concurrency)
	for i, asset := range list {
		g.Go(func() error {
			results[i], errs[i] = m.Materialize(ctx, asset)
			return nil
		})
	}
	_ = g.Wait()

	payloads := make([]*models.EncodedPayload, 0, len(list))
	var failures []models.AssetFailure
	for i, p := range results {
		if errs[i] != nil {
			m.log.Warn(ctx, "dropping asset from batch", "asset_id", list[i].ID, "error", errs[i])
			failures = append(failures, models.AssetFailure{LocalAssetID: list[i].ID, Stage: models.StageMaterialize, Err: errs[i]})
			continue
		}
		payloads = append(payloads, p)
	}
	return payloads, failures
}
