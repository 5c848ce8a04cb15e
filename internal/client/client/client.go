package client

import (
	"context"

	"github.com/dmitrijs2005/photosync/internal/client/models"
)

// Client is the metadata side of the gallery API. Byte transfer goes
// straight to object storage and is not part of it.
type Client interface {
	// RequestSlots returns one slot per descriptor, index aligned. Either
	// every slot is returned or none is.
	RequestSlots(ctx context.Context, descriptors []models.PayloadDescriptor) ([]models.UploadSlot, error)
	AnnounceCompletion(ctx context.Context, userID string, photos []models.UploadedPhoto) (*models.SyncDelta, error)
	FetchAll(ctx context.Context, userID string) ([]models.RemotePhotoRecord, error)
}
