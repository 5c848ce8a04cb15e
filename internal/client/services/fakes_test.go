package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/client"
	"github.com/dmitrijs2005/photosync/internal/client/ledger"
	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/client/storage"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupLedger(t *testing.T) (*ledger.Ledger, *storage.Repositories) {
	t.Helper()
	repos, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return ledger.New(repos.Metadata, nil), repos
}

func localAssets(ids ...string) []models.LocalAsset {
	out := make([]models.LocalAsset, 0, len(ids))
	for i, id := range ids {
		out = append(out, models.LocalAsset{ID: id, Path: id, CreatedAt: time.Unix(int64(1700000000-i), 0)})
	}
	return out
}

func selectAll(cands []models.UploadCandidate) []models.UploadCandidate {
	for i := range cands {
		_ = cands[i].Select()
	}
	return cands
}

func selected(ids ...string) []models.UploadCandidate {
	out := make([]models.UploadCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.UploadCandidate{LocalAssetID: id, IsSelected: true})
	}
	return out
}

// ---- fake asset store ----

type fakeLister struct {
	assets []models.LocalAsset
	err    error
}

func (f *fakeLister) List(context.Context) ([]models.LocalAsset, error) {
	return f.assets, f.err
}

// ---- fake materializer ----

type fakeMaterializer struct {
	fail  map[string]bool
	calls int
}

func (f *fakeMaterializer) MaterializeAll(_ context.Context, list []models.LocalAsset) ([]*models.EncodedPayload, []models.AssetFailure) {
	f.calls++
	var out []*models.EncodedPayload
	var failures []models.AssetFailure
	for _, a := range list {
		if f.fail[a.ID] {
			failures = append(failures, models.AssetFailure{LocalAssetID: a.ID, Stage: models.StageMaterialize, Err: fmt.Errorf("decode %s", a.ID)})
			continue
		}
		out = append(out, &models.EncodedPayload{
			LocalAssetID: a.ID,
			Bytes:        []byte("bytes-" + a.ID),
			FileName:     a.ID + "_1.jpg",
			ContentType:  models.ContentTypeJPEG,
		})
	}
	return out, failures
}

// ---- fake gallery client ----

// fakeGallery implements client.Client. Slots are issued as photoIDs[i]
// (or "photo-<i>"), and by default every announced photo is confirmed.
type fakeGallery struct {
	client.Client

	mu sync.Mutex

	photoIDs  []string
	slotsRet  []models.UploadSlot
	slotsErr  error
	confirm   map[string]bool
	announceE error
	records   []models.RemotePhotoRecord
	fetchErr  error

	slotCalls     int
	announceCalls int
	fetchCalls    int
	gotDescs      []models.PayloadDescriptor
	gotAnnounced  []models.UploadedPhoto
	gotUserID     string
}

func (f *fakeGallery) RequestSlots(_ context.Context, d []models.PayloadDescriptor) ([]models.UploadSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotCalls++
	f.gotDescs = d
	if f.slotsErr != nil {
		return nil, f.slotsErr
	}
	if f.slotsRet != nil {
		return f.slotsRet, nil
	}
	out := make([]models.UploadSlot, len(d))
	for i := range d {
		id := fmt.Sprintf("photo-%d", i)
		if i < len(f.photoIDs) {
			id = f.photoIDs[i]
		}
		out[i] = models.UploadSlot{PhotoID: id, UploadURL: "https://s3/" + id, PhotoURL: "https://cdn/" + id}
	}
	return out, nil
}

func (f *fakeGallery) AnnounceCompletion(_ context.Context, userID string, photos []models.UploadedPhoto) (*models.SyncDelta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announceCalls++
	f.gotUserID = userID
	f.gotAnnounced = photos
	if f.announceE != nil {
		return nil, f.announceE
	}
	delta := &models.SyncDelta{SyncedAt: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)}
	for _, p := range photos {
		if f.confirm != nil && !f.confirm[p.PhotoID] {
			continue
		}
		delta.NewPhotos = append(delta.NewPhotos, models.RemotePhotoRecord{
			PhotoID:    p.PhotoID,
			PhotoURL:   p.PhotoURL,
			UploadedBy: userID,
			UploadedAt: p.UploadedAt,
		})
	}
	// Unrelated change made by another family member.
	delta.NewPhotos = append(delta.NewPhotos, models.RemotePhotoRecord{PhotoID: "someone-else", UploadedAt: time.Unix(1, 0)})
	return delta, nil
}

func (f *fakeGallery) FetchAll(_ context.Context, userID string) ([]models.RemotePhotoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.gotUserID = userID
	return f.records, f.fetchErr
}

// ---- fake transfer ----

type recordingPutter struct {
	mu     sync.Mutex
	got    map[string][]byte
	fail   map[string]error
	onCall func()
}

func (p *recordingPutter) Upload(_ context.Context, url string, body []byte, contentType string) error {
	if p.onCall != nil {
		p.onCall()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.got == nil {
		p.got = map[string][]byte{}
	}
	if err := p.fail[url]; err != nil {
		return err
	}
	p.got[url] = body
	return nil
}

func (p *recordingPutter) delivered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

// ---- observer ----

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) OnEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) states() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]State, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.State)
	}
	return out
}
