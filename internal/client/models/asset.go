// Package models defines the client-side data model of the photo upload
// pipeline: local assets, their encoded payloads, server-issued slots,
// remote photo records and the local ledger entries linking them.
package models

import (
	"errors"
	"time"
)

var ErrAlreadyUploaded = errors.New("asset already uploaded")

// LocalAsset is an opaque handle to a device-local image. It is owned by the
// asset store and never mutated by the pipeline.
type LocalAsset struct {
	// ID is the store-assigned identifier (stable across runs).
	ID string
	// Path locates the asset inside the store; meaningful only to the store.
	Path string
	// CreatedAt is the creation (or modification) time reported by the store.
	CreatedAt time.Time
}

// UploadCandidate is one row of the selectable asset list. It is rebuilt on
// every listing; IsUploaded is derived from the ledger at construction time.
type UploadCandidate struct {
	LocalAssetID string
	IsSelected   bool
	IsUploaded   bool
}

// Selectable reports whether the candidate may be picked for upload.
func (c UploadCandidate) Selectable() bool {
	return !c.IsUploaded
}

// Select marks the candidate as selected. Uploaded candidates can never be
// selected again.
func (c *UploadCandidate) Select() error {
	if c.IsUploaded {
		return ErrAlreadyUploaded
	}
	c.IsSelected = true
	return nil
}

// Unselect clears the selection flag.
func (c *UploadCandidate) Unselect() {
	c.IsSelected = false
}

// Pending reports whether the candidate should go into the next batch.
func (c UploadCandidate) Pending() bool {
	return c.IsSelected && !c.IsUploaded
}

// EncodedPayload is the transferable re-encoding of one selected asset.
// It lives only for the duration of one pipeline run.
type EncodedPayload struct {
	LocalAssetID string
	Bytes        []byte
	FileName     string
	ContentType  string
}

// PayloadDescriptor is what the server needs to issue a slot.
type PayloadDescriptor struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

func (p *EncodedPayload) Descriptor() PayloadDescriptor {
	return PayloadDescriptor{FileName: p.FileName, ContentType: p.ContentType}
}

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)
