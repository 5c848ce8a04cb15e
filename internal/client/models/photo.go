package models

import "time"

// UploadSlot is a server-issued destination for exactly one payload.
// PhotoID is the durable key linking local and remote state.
type UploadSlot struct {
	PhotoID   string
	UploadURL string
	PhotoURL  string
}

// UploadedPhoto tells the server that a slot was filled.
type UploadedPhoto struct {
	PhotoID    string
	PhotoURL   string
	UploadedAt time.Time
}

// RemotePhotoRecord is the authoritative server-side representation of a
// photo. The client only ever receives these from the server.
type RemotePhotoRecord struct {
	PhotoID    string
	FamilyID   string
	PhotoURL   string
	UploadedBy string
	UploadedAt time.Time
	Deleted    bool
	DeletedAt  *time.Time
}

// SyncDelta is the reconciled change set returned by the announce step.
type SyncDelta struct {
	SyncedAt      time.Time
	NewPhotos     []RemotePhotoRecord
	DeletedPhotos []RemotePhotoRecord
}

// LedgerEntry records that a local asset was uploaded and confirmed by the
// server. Entries are keyed by LocalAssetID.
type LedgerEntry struct {
	LocalAssetID string    `json:"localAssetId"`
	PhotoID      string    `json:"photoId"`
	PhotoURL     string    `json:"photoUrl"`
	UploadedAt   time.Time `json:"uploadedAt"`
}
