// Package ledger keeps the durable record of which local assets have already
// been uploaded and which remote photo each one became.
//
// The ledger writes through to a metadata.Repository on every mutation. When
// the store fails, the error is logged and the in-memory view stays
// authoritative for the rest of the session.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photosync/internal/logging"
)

const keyPrefix = "ledger:"

func key(localAssetID string) string {
	return keyPrefix + localAssetID
}

type Ledger struct {
	mu      sync.RWMutex
	entries map[string]models.LedgerEntry
	store   metadata.Repository
	log     logging.Logger
}

func New(store metadata.Repository, log logging.Logger) *Ledger {
	if log == nil {
		log = logging.Nop()
	}
	return &Ledger{
		entries: make(map[string]models.LedgerEntry),
		store:   store,
		log:     log.With("component", "ledger"),
	}
}

// Load replaces the in-memory view with what the store holds. Undecodable
// rows are logged and skipped. Only a failure to list the store is returned.
func (l *Ledger) Load(ctx context.Context) error {
	rows, err := l.store.List(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	entries := make(map[string]models.LedgerEntry, len(rows))
	for k, v := range rows {
		var e models.LedgerEntry
		if err := json.Unmarshal(v, &e); err != nil {
			l.log.Warn(ctx, "skipping corrupt ledger row", "key", k, "error", err)
			continue
		}
		id := strings.TrimPrefix(k, keyPrefix)
		if e.LocalAssetID != id {
			l.log.Warn(ctx, "ledger row key mismatch", "key", k, "local_asset_id", e.LocalAssetID)
			e.LocalAssetID = id
		}
		entries[id] = e
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()

	l.log.Debug(ctx, "ledger loaded", "entries", len(entries))
	return nil
}

// GetAll returns a snapshot of all entries in no particular order.
func (l *Ledger) GetAll() []models.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.LedgerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	return out
}

func (l *Ledger) IsUploaded(localAssetID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[localAssetID]
	return ok
}

func (l *Ledger) Get(localAssetID string) (models.LedgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[localAssetID]
	return e, ok
}

// FindByPhotoID looks an entry up by its remote identity.
func (l *Ledger) FindByPhotoID(photoID string) (models.LedgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.PhotoID == photoID {
			return e, true
		}
	}
	return models.LedgerEntry{}, false
}

// Save upserts entry by LocalAssetID. Last write wins.
func (l *Ledger) Save(ctx context.Context, entry models.LedgerEntry) {
	l.mu.Lock()
	l.entries[entry.LocalAssetID] = entry
	l.mu.Unlock()

	b, err := json.Marshal(entry)
	if err != nil {
		l.log.Error(ctx, "encode ledger entry", "local_asset_id", entry.LocalAssetID, "error", err)
		return
	}
	if err := l.store.Set(ctx, key(entry.LocalAssetID), b); err != nil {
		l.log.Error(ctx, "persist ledger entry", "local_asset_id", entry.LocalAssetID, "error", err)
	}
}

// Remove deletes the entry for localAssetID. Absent ids are a no-op.
func (l *Ledger) Remove(ctx context.Context, localAssetID string) {
	l.mu.Lock()
	delete(l.entries, localAssetID)
	l.mu.Unlock()

	if err := l.store.Delete(ctx, key(localAssetID)); err != nil {
		l.log.Error(ctx, "delete ledger entry", "local_asset_id", localAssetID, "error", err)
	}
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
