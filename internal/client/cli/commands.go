package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/models"
)

// refresh rebuilds the candidate list from the album and the ledger,
// keeping selections for assets that are still pending.
func (a *App) refresh(ctx context.Context) ([]models.UploadCandidate, error) {
	fresh, err := a.upload.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	picked := make(map[string]bool, len(a.candidates))
	for _, c := range a.candidates {
		if c.IsSelected {
			picked[c.LocalAssetID] = true
		}
	}
	for i := range fresh {
		if picked[fresh[i].LocalAssetID] {
			_ = fresh[i].Select()
		}
	}
	a.candidates = fresh
	return append([]models.UploadCandidate(nil), fresh...), nil
}

func (a *App) List(ctx context.Context) error {
	cands, err := a.refresh(ctx)
	if err != nil {
		a.printf("Error: %v\n", err)
		return err
	}
	if len(cands) == 0 {
		a.printf("No photos found in %s\n", a.albumDir())
		return nil
	}

	for i, c := range cands {
		mark := "[ ]"
		switch {
		case c.IsUploaded:
			mark = "[=]"
		case c.IsSelected:
			mark = "[x]"
		}
		a.printf("%3d %s %s\n", i+1, mark, c.LocalAssetID)
	}
	return nil
}

func (a *App) albumDir() string {
	if a.config == nil {
		return "album"
	}
	return a.config.AlbumDir
}

// pick applies fn to the candidates addressed by args: 1-based indexes or
// the word "all".
func (a *App) pick(args []string, fn func(c *models.UploadCandidate) error) error {
	if len(args) == 0 {
		a.printf("Usage: select|unselect <n...|all>\n")
		return errors.New("no candidates given")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.candidates) == 0 {
		a.printf("Nothing listed yet, run 'list' first\n")
		return errors.New("no candidates listed")
	}

	if len(args) == 1 && args[0] == "all" {
		for i := range a.candidates {
			if a.candidates[i].Selectable() {
				_ = fn(&a.candidates[i])
			}
		}
		return nil
	}

	var errs []error
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(a.candidates) {
			a.printf("%s: no such photo\n", arg)
			errs = append(errs, fmt.Errorf("bad index %q", arg))
			continue
		}
		c := &a.candidates[n-1]
		if err := fn(c); err != nil {
			a.printf("%d: %v\n", n, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) Select(_ context.Context, args []string) error {
	return a.pick(args, func(c *models.UploadCandidate) error { return c.Select() })
}

func (a *App) Unselect(_ context.Context, args []string) error {
	return a.pick(args, func(c *models.UploadCandidate) error {
		c.Unselect()
		return nil
	})
}

// Upload starts the selected batch in the background. Only one batch runs
// at a time.
func (a *App) Upload(ctx context.Context) error {
	if !a.uploading.CompareAndSwap(false, true) {
		a.printf("%v\n", ErrUploadInProgress)
		return ErrUploadInProgress
	}

	a.mu.Lock()
	batch := append([]models.UploadCandidate(nil), a.candidates...)
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.uploading.Store(false)

		res := a.upload.UploadSelected(ctx, a.userID, batch)
		a.report(res)
		if _, err := a.refresh(ctx); err != nil {
			a.log.Warn(ctx, "refresh after upload failed", "error", err)
		}
	}()
	return nil
}

func (a *App) report(res models.UploadResult) {
	switch {
	case !res.OK():
		a.printf("Upload failed: %v\n", res.Err)
	case res.Empty():
		a.printf("Nothing selected to upload\n")
	case res.Partial():
		a.printf("Uploaded %d of %d photo(s)\n", res.SucceededCount, res.Selected)
	default:
		a.printf("Uploaded %d photo(s)\n", res.SucceededCount)
	}
	for _, f := range res.Failures {
		a.printf("  %s (%s): %v\n", f.LocalAssetID, f.Stage, f.Err)
	}
}

func (a *App) Sync(ctx context.Context) error {
	report, err := a.sync.FullSync(ctx, a.userID)
	if err != nil {
		a.printf("Sync failed: %v\n", err)
		return err
	}
	a.printf("Gallery has %d photo(s), %d deleted\n", len(report.Live), len(report.Deleted))
	for _, id := range report.Forgotten {
		a.printf("  %s was deleted remotely and can be uploaded again\n", id)
	}
	_, err = a.refresh(ctx)
	return err
}

func (a *App) Ledger(ctx context.Context) error {
	entries := a.ledger.GetAll()
	sort.Slice(entries, func(i, j int) bool { return entries[i].LocalAssetID < entries[j].LocalAssetID })

	if last, err := a.sync.LastSync(ctx); err == nil && !last.IsZero() {
		a.printf("Last sync: %s\n", last.Local().Format(time.DateTime))
	}
	if len(entries) == 0 {
		a.printf("Ledger is empty\n")
		return nil
	}
	for _, e := range entries {
		a.printf("%s -> %s (%s)\n", e.LocalAssetID, e.PhotoID, e.UploadedAt.Local().Format(time.DateTime))
	}
	return nil
}

func (a *App) Forget(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: forget <assetId>\n")
		return errors.New("forget needs exactly one asset id")
	}
	id := args[0]
	if !a.ledger.IsUploaded(id) {
		a.printf("%s is not in the ledger\n", id)
		return nil
	}
	a.ledger.Remove(ctx, id)
	a.printf("%s forgotten\n", id)
	return nil
}
