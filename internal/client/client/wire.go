package client

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/models"
)

type slotDTO struct {
	PhotoID   string `json:"photoId"`
	UploadURL string `json:"uploadUrl"`
	PhotoURL  string `json:"photoUrl"`
}

type announcedPhotoDTO struct {
	PhotoID  string    `json:"photoId"`
	PhotoURL string    `json:"photoUrl"`
	UploadAt time.Time `json:"uploadAt"`
}

type announceRequest struct {
	UserID string              `json:"userId"`
	Photos []announcedPhotoDTO `json:"photos"`
}

type photoDTO struct {
	PhotoID    string     `json:"photoId"`
	FamilyID   string     `json:"familyId"`
	PhotoURL   string     `json:"photoUrl"`
	UploadedBy string     `json:"uploadedBy"`
	UploadedAt *time.Time `json:"uploadedAt"`
	Deleted    bool       `json:"deleted"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

type announceResponse struct {
	SyncedAt     time.Time  `json:"syncedAt"`
	NewPhoto     []photoDTO `json:"newPhoto"`
	DeletedPhoto []photoDTO `json:"deletedPhoto"`
}

type fetchAllResponse struct {
	Photos []photoDTO `json:"photos"`
}

func slotsFromWire(in []slotDTO, want int) ([]models.UploadSlot, error) {
	if len(in) != want {
		return nil, fmt.Errorf("got %d slots for %d payloads", len(in), want)
	}
	out := make([]models.UploadSlot, 0, len(in))
	seen := make(map[string]int, len(in))
	for i, s := range in {
		if s.PhotoID == "" {
			return nil, fmt.Errorf("slot %d: empty photoId", i)
		}
		if j, dup := seen[s.PhotoID]; dup {
			return nil, fmt.Errorf("slot %d: photoId %q already issued to slot %d", i, s.PhotoID, j)
		}
		seen[s.PhotoID] = i
		if s.UploadURL == "" {
			return nil, fmt.Errorf("slot %d: empty uploadUrl", i)
		}
		out = append(out, models.UploadSlot{PhotoID: s.PhotoID, UploadURL: s.UploadURL, PhotoURL: s.PhotoURL})
	}
	return out, nil
}

func recordFromWire(p photoDTO) (models.RemotePhotoRecord, error) {
	if p.PhotoID == "" {
		return models.RemotePhotoRecord{}, fmt.Errorf("record: empty photoId")
	}
	if p.UploadedAt == nil || p.UploadedAt.IsZero() {
		return models.RemotePhotoRecord{}, fmt.Errorf("record %s: missing uploadedAt", p.PhotoID)
	}
	return models.RemotePhotoRecord{
		PhotoID:    p.PhotoID,
		FamilyID:   p.FamilyID,
		PhotoURL:   p.PhotoURL,
		UploadedBy: p.UploadedBy,
		UploadedAt: p.UploadedAt.UTC(),
		Deleted:    p.Deleted,
		DeletedAt:  p.DeletedAt,
	}, nil
}

func recordsFromWire(in []photoDTO) ([]models.RemotePhotoRecord, error) {
	out := make([]models.RemotePhotoRecord, 0, len(in))
	for _, p := range in {
		r, err := recordFromWire(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func announceToWire(userID string, photos []models.UploadedPhoto) announceRequest {
	req := announceRequest{UserID: userID, Photos: make([]announcedPhotoDTO, 0, len(photos))}
	for _, p := range photos {
		req.Photos = append(req.Photos, announcedPhotoDTO{PhotoID: p.PhotoID, PhotoURL: p.PhotoURL, UploadAt: p.UploadedAt.UTC()})
	}
	return req
}
