package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/client"
	"github.com/dmitrijs2005/photosync/internal/client/ledger"
	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

const lastSyncKey = "gallery:last_sync"

type SyncReport struct {
	SyncedAt time.Time
	Live     []models.RemotePhotoRecord
	Deleted  []models.RemotePhotoRecord
	// Forgotten lists local asset IDs removed from the ledger because their
	// remote photo was deleted.
	Forgotten []string
}

type SyncService interface {
	FullSync(ctx context.Context, userID string) (*SyncReport, error)
	// LastSync returns the time of the last successful FullSync, or the zero
	// time if there was none.
	LastSync(ctx context.Context) (time.Time, error)
}

type syncService struct {
	client   client.Client
	ledger   *ledger.Ledger
	metadata metadata.Repository
	log      logging.Logger
	now      func() time.Time
}

func NewSyncService(c client.Client, l *ledger.Ledger, m metadata.Repository, log logging.Logger) SyncService {
	if log == nil {
		log = logging.Nop()
	}
	return &syncService{client: c, ledger: l, metadata: m, log: log.With("component", "sync"), now: time.Now}
}

func (s *syncService) FullSync(ctx context.Context, userID string) (*SyncReport, error) {
	records, err := s.client.FetchAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{SyncedAt: s.now().UTC()}
	for _, r := range records {
		if !r.Deleted {
			report.Live = append(report.Live, r)
			continue
		}
		report.Deleted = append(report.Deleted, r)
		if e, ok := s.ledger.FindByPhotoID(r.PhotoID); ok {
			s.ledger.Remove(ctx, e.LocalAssetID)
			report.Forgotten = append(report.Forgotten, e.LocalAssetID)
		}
	}

	stamp, err := report.SyncedAt.MarshalText()
	if err != nil {
		return nil, err
	}
	if err := s.metadata.Set(ctx, lastSyncKey, stamp); err != nil {
		s.log.Error(ctx, "failed to record sync time", "error", err)
	}

	s.log.Info(ctx, "gallery synced", "live", len(report.Live), "deleted", len(report.Deleted), "forgotten", len(report.Forgotten))
	return report, nil
}

func (s *syncService) LastSync(ctx context.Context) (time.Time, error) {
	raw, err := s.metadata.Get(ctx, lastSyncKey)
	if err != nil {
		return time.Time{}, err
	}
	if raw == nil {
		return time.Time{}, nil
	}

	var t time.Time
	if err := t.UnmarshalText(raw); err != nil {
		return time.Time{}, fmt.Errorf("last sync: %w", err)
	}
	return t, nil
}
