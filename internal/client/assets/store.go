// Package assets enumerates and decodes the local photos that can be
// uploaded. The pipeline only sees the Store interface; DirStore is the
// filesystem-backed implementation used by the CLI.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/imagex"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotImage = errors.New("not a decodable image")
	ErrTooLarge = errors.New("source image too large")
)

// DefaultMaxSourceBytes caps how much of a single source file is read.
const DefaultMaxSourceBytes = 64 << 20

// DefaultMaxPixels caps the decoded size of a single source image.
const DefaultMaxPixels = 100_000_000

const sniffLen = 512

// Store is the platform photo library as seen by the upload pipeline.
type Store interface {
	List(ctx context.Context) ([]models.LocalAsset, error)
	// Decode returns the asset's image scaled to fit inside bound, along
	// with the source format.
	Decode(ctx context.Context, asset models.LocalAsset, bound imagex.Size) (image.Image, imagex.Format, error)
}

type DirStore struct {
	fs             billy.Filesystem
	maxSourceBytes int64
	maxPixels      int64
}

// NewDirStore serves assets from fs. Asset IDs are slash paths relative to
// the root of fs.
func NewDirStore(fs billy.Filesystem) *DirStore {
	return &DirStore{fs: fs, maxSourceBytes: DefaultMaxSourceBytes, maxPixels: DefaultMaxPixels}
}

// OpenDir serves assets from a directory on the local disk.
func OpenDir(dir string) (*DirStore, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("album dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("album dir %s: not a directory", dir)
	}
	return NewDirStore(osfs.New(dir)), nil
}

func (s *DirStore) WithMaxSourceBytes(n int64) *DirStore {
	s.maxSourceBytes = n
	return s
}

func (s *DirStore) WithMaxPixels(n int64) *DirStore {
	s.maxPixels = n
	return s
}

func hidden(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}

func (s *DirStore) sniff(name string) (bool, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return imagex.IsImage(buf[:n]), nil
}

// List walks the store and returns every decodable image, newest first.
func (s *DirStore) List(ctx context.Context) ([]models.LocalAsset, error) {
	var out []models.LocalAsset

	err := util.Walk(s.fs, "/", func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := strings.TrimPrefix(path.Clean("/"+p), "/")
		if rel == "" {
			return nil
		}
		if hidden(rel) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !fi.Mode().IsRegular() {
			return nil
		}

		ok, err := s.sniff(rel)
		if err != nil {
			return fmt.Errorf("sniff %s: %w", rel, err)
		}
		if !ok {
			return nil
		}

		out = append(out, models.LocalAsset{ID: rel, Path: rel, CreatedAt: fi.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *DirStore) readSource(name string) ([]byte, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxSourceBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (s *DirStore) Decode(ctx context.Context, asset models.LocalAsset, bound imagex.Size) (image.Image, imagex.Format, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	data, err := s.readSource(asset.Path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", asset.ID, err)
	}

	if !imagex.IsImage(data) {
		return nil, "", fmt.Errorf("decode %s: %w", asset.ID, ErrNotImage)
	}
	format, _ := imagex.DetectFormat(data)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w: %v", asset.ID, ErrNotImage, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > s.maxPixels {
		return nil, "", fmt.Errorf("decode %s: %dx%d: %w", asset.ID, cfg.Width, cfg.Height, ErrTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w: %v", asset.ID, ErrNotImage, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return imagex.Fit(img, bound), format, nil
}
