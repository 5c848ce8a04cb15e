package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/client"
	"github.com/dmitrijs2005/photosync/internal/client/ledger"
	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/dmitrijs2005/photosync/internal/netx"
)

var (
	ErrAssetNotFound      = errors.New("asset not found in store")
	ErrSlotMismatch       = errors.New("slots do not match payloads")
	ErrAllTransfersFailed = errors.New("every transfer in the batch failed")
	ErrNotConfirmed       = errors.New("upload not confirmed by server")
)

// AssetLister is the listing half of assets.Store.
type AssetLister interface {
	List(ctx context.Context) ([]models.LocalAsset, error)
}

type BatchMaterializer interface {
	MaterializeAll(ctx context.Context, list []models.LocalAsset) ([]*models.EncodedPayload, []models.AssetFailure)
}

type UploadService interface {
	Candidates(ctx context.Context) ([]models.UploadCandidate, error)
	UploadSelected(ctx context.Context, userID string, candidates []models.UploadCandidate) models.UploadResult
}

type UploadDeps struct {
	Assets       AssetLister
	Materializer BatchMaterializer
	Client       client.Client
	Putter       netx.Putter
	Ledger       *ledger.Ledger
	Observer     Observer
	Log          logging.Logger
}

type uploadService struct {
	assets       AssetLister
	materializer BatchMaterializer
	client       client.Client
	putter       netx.Putter
	ledger       *ledger.Ledger
	observer     Observer
	log          logging.Logger
	now          func() time.Time
}

func NewUploadService(d UploadDeps) UploadService {
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	return &uploadService{
		assets:       d.Assets,
		materializer: d.Materializer,
		client:       d.Client,
		putter:       d.Putter,
		ledger:       d.Ledger,
		observer:     d.Observer,
		log:          d.Log.With("component", "upload"),
		now:          time.Now,
	}
}

// Candidates lists every local asset, flagging the ones already in the
// ledger.
func (s *uploadService) Candidates(ctx context.Context) ([]models.UploadCandidate, error) {
	list, err := s.assets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	out := make([]models.UploadCandidate, 0, len(list))
	for _, a := range list {
		out = append(out, models.UploadCandidate{LocalAssetID: a.ID, IsUploaded: s.ledger.IsUploaded(a.ID)})
	}
	return out, nil
}

func (s *uploadService) pending(candidates []models.UploadCandidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	var ids []string
	for _, c := range candidates {
		if !c.Pending() || s.ledger.IsUploaded(c.LocalAssetID) {
			continue
		}
		if _, dup := seen[c.LocalAssetID]; dup {
			continue
		}
		seen[c.LocalAssetID] = struct{}{}
		ids = append(ids, c.LocalAssetID)
	}
	return ids
}

// resolve maps candidate IDs back to store assets, keeping the given order.
func (s *uploadService) resolve(ctx context.Context, ids []string) ([]models.LocalAsset, []models.AssetFailure, error) {
	list, err := s.assets.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list assets: %w", err)
	}
	byID := make(map[string]models.LocalAsset, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}

	found := make([]models.LocalAsset, 0, len(ids))
	var missing []models.AssetFailure
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			missing = append(missing, models.AssetFailure{LocalAssetID: id, Stage: models.StageMaterialize, Err: ErrAssetNotFound})
			continue
		}
		found = append(found, a)
	}
	return found, missing, nil
}

type transferred struct {
	localAssetID string
	photoURL     string
}

// UploadSelected runs one batch: materialize, request slots, transfer,
// announce and reconcile the ledger. It holds no lock; callers must not
// start a second run while one is in flight.
func (s *uploadService) UploadSelected(ctx context.Context, userID string, candidates []models.UploadCandidate) models.UploadResult {
	s.observer.OnEvent(Event{State: StateIdle})

	ids := s.pending(candidates)
	if len(ids) == 0 {
		s.observer.OnEvent(Event{State: StateDone})
		return models.UploadResult{}
	}

	res := models.UploadResult{Selected: len(ids)}
	fail := func(state State, err error) models.UploadResult {
		s.log.Error(ctx, "upload batch failed", "state", string(state), "selected", res.Selected, "error", err)
		res.Err = err
		s.observer.OnEvent(Event{State: StateDone, Total: res.Selected, Failed: len(res.Failures), Err: err})
		return res
	}

	s.observer.OnEvent(Event{State: StateMaterializing, Total: len(ids)})
	list, missing, err := s.resolve(ctx, ids)
	if err != nil {
		return fail(StateMaterializing, err)
	}
	res.Failures = append(res.Failures, missing...)

	payloads, drops := s.materializer.MaterializeAll(ctx, list)
	res.Failures = append(res.Failures, drops...)
	if len(payloads) == 0 {
		s.log.Warn(ctx, "nothing left to upload", "selected", res.Selected)
		s.observer.OnEvent(Event{State: StateDone, Total: res.Selected, Failed: len(res.Failures)})
		return res
	}
	if err := ctx.Err(); err != nil {
		return fail(StateMaterializing, err)
	}

	s.observer.OnEvent(Event{State: StateNegotiatingSlots, Total: len(payloads), Failed: len(res.Failures)})
	descriptors := make([]models.PayloadDescriptor, 0, len(payloads))
	for _, p := range payloads {
		descriptors = append(descriptors, p.Descriptor())
	}
	slots, err := s.client.RequestSlots(ctx, descriptors)
	if err != nil {
		return fail(StateNegotiatingSlots, err)
	}
	if len(slots) != len(payloads) {
		return fail(StateNegotiatingSlots, fmt.Errorf("%w: %d slots, %d payloads", ErrSlotMismatch, len(slots), len(payloads)))
	}
	issued := make(map[string]struct{}, len(slots))
	for _, sl := range slots {
		if _, dup := issued[sl.PhotoID]; dup {
			return fail(StateNegotiatingSlots, fmt.Errorf("%w: photo id %q issued twice", ErrSlotMismatch, sl.PhotoID))
		}
		issued[sl.PhotoID] = struct{}{}
	}

	s.observer.OnEvent(Event{State: StateTransferring, Total: len(payloads), Failed: len(res.Failures)})
	jobs := make([]netx.Job, 0, len(payloads))
	for i, p := range payloads {
		jobs = append(jobs, netx.Job{URL: slots[i].UploadURL, Body: p.Bytes, ContentType: p.ContentType})
	}
	outcome := netx.TransferAll(ctx, s.putter, jobs)

	uploadedAt := s.now().UTC()
	announced := make([]models.UploadedPhoto, 0, len(jobs))
	byPhoto := make(map[string]transferred, len(jobs))
	for i := range jobs {
		if !outcome.Succeeded(i) {
			s.log.Warn(ctx, "transfer failed", "asset_id", payloads[i].LocalAssetID, "photo_id", slots[i].PhotoID, "error", outcome.Errs[i])
			res.Failures = append(res.Failures, models.AssetFailure{LocalAssetID: payloads[i].LocalAssetID, Stage: models.StageTransfer, Err: outcome.Errs[i]})
			continue
		}
		announced = append(announced, models.UploadedPhoto{PhotoID: slots[i].PhotoID, PhotoURL: slots[i].PhotoURL, UploadedAt: uploadedAt})
		byPhoto[slots[i].PhotoID] = transferred{localAssetID: payloads[i].LocalAssetID, photoURL: slots[i].PhotoURL}
	}
	if len(announced) == 0 {
		_, first := outcome.FirstFailure()
		return fail(StateTransferring, fmt.Errorf("%w: %w", ErrAllTransfersFailed, first))
	}
	if err := ctx.Err(); err != nil {
		return fail(StateTransferring, err)
	}

	s.observer.OnEvent(Event{State: StateNegotiatingAnnounce, Total: len(announced), Failed: len(res.Failures)})
	delta, err := s.client.AnnounceCompletion(ctx, userID, announced)
	if err != nil {
		return fail(StateNegotiatingAnnounce, err)
	}

	s.observer.OnEvent(Event{State: StateReconciling, Total: len(announced), Failed: len(res.Failures)})
	for _, rec := range delta.NewPhotos {
		t, ok := byPhoto[rec.PhotoID]
		if !ok {
			continue
		}
		delete(byPhoto, rec.PhotoID)

		entry := models.LedgerEntry{
			LocalAssetID: t.localAssetID,
			PhotoID:      rec.PhotoID,
			PhotoURL:     rec.PhotoURL,
			UploadedAt:   rec.UploadedAt,
		}
		if entry.PhotoURL == "" {
			entry.PhotoURL = t.photoURL
		}
		s.ledger.Save(ctx, entry)
		res.SucceededCount++
	}
	for _, p := range announced {
		if t, ok := byPhoto[p.PhotoID]; ok {
			res.Failures = append(res.Failures, models.AssetFailure{LocalAssetID: t.localAssetID, Stage: models.StageConfirm, Err: ErrNotConfirmed})
		}
	}
	res.Response = delta

	s.log.Info(ctx, "upload batch finished",
		"selected", res.Selected,
		"succeeded", res.SucceededCount,
		"failed", len(res.Failures),
	)
	s.observer.OnEvent(Event{State: StateDone, Total: res.Selected, Succeeded: res.SucceededCount, Failed: len(res.Failures)})
	return res
}
