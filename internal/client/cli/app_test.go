package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/photosync/internal/client/ledger"
	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/client/services"
	"github.com/dmitrijs2005/photosync/internal/client/storage"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpload struct {
	mu    sync.Mutex
	cands []models.UploadCandidate

	started chan struct{}
	release chan struct{}
	result  models.UploadResult
	gotUser string
	gotSel  []models.UploadCandidate
}

func (f *fakeUpload) Candidates(context.Context) ([]models.UploadCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.UploadCandidate(nil), f.cands...), nil
}

func (f *fakeUpload) UploadSelected(_ context.Context, userID string, c []models.UploadCandidate) models.UploadResult {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotUser = userID
	f.gotSel = c
	return f.result
}

type fakeSync struct {
	report *services.SyncReport
	err    error
	last   time.Time
}

func (f *fakeSync) FullSync(context.Context, string) (*services.SyncReport, error) {
	return f.report, f.err
}

func (f *fakeSync) LastSync(context.Context) (time.Time, error) { return f.last, nil }

func newTestApp(t *testing.T, up *fakeUpload, sy *fakeSync) (*App, *bytes.Buffer) {
	t.Helper()
	repos, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	if sy == nil {
		sy = &fakeSync{}
	}
	var out bytes.Buffer
	return &App{
		upload: up,
		sync:   sy,
		ledger: ledger.New(repos.Metadata, nil),
		log:    logging.Nop(),
		userID: "u1",
		out:    &out,
	}, &out
}

func album() *fakeUpload {
	return &fakeUpload{cands: []models.UploadCandidate{
		{LocalAssetID: "a1"},
		{LocalAssetID: "a2", IsUploaded: true},
		{LocalAssetID: "a3"},
	}}
}

func TestList_MarksAndKeepsSelection(t *testing.T) {
	app, out := newTestApp(t, album(), nil)
	ctx := context.Background()

	require.NoError(t, app.List(ctx))
	require.NoError(t, app.Select(ctx, []string{"1", "3"}))

	out.Reset()
	require.NoError(t, app.List(ctx))
	assert.Equal(t, "  1 [x] a1\n  2 [=] a2\n  3 [x] a3\n", out.String())
}

func TestList_EmptyAlbum(t *testing.T) {
	app, out := newTestApp(t, &fakeUpload{}, nil)
	require.NoError(t, app.List(context.Background()))
	assert.Contains(t, out.String(), "No photos found")
}

func TestSelect_Errors(t *testing.T) {
	app, out := newTestApp(t, album(), nil)
	ctx := context.Background()

	require.Error(t, app.Select(ctx, []string{"1"}), "nothing listed yet")
	require.NoError(t, app.List(ctx))

	err := app.Select(ctx, []string{"2", "9", "x"})
	require.ErrorIs(t, err, models.ErrAlreadyUploaded)
	assert.Contains(t, out.String(), "2: asset already uploaded")
	assert.Contains(t, out.String(), "9: no such photo")
	assert.Contains(t, out.String(), "x: no such photo")

	require.Error(t, app.Select(ctx, nil))
}

func TestSelectAllAndUnselect(t *testing.T) {
	app, _ := newTestApp(t, album(), nil)
	ctx := context.Background()
	require.NoError(t, app.List(ctx))

	require.NoError(t, app.Select(ctx, []string{"all"}))
	assert.True(t, app.candidates[0].IsSelected)
	assert.False(t, app.candidates[1].IsSelected)
	assert.True(t, app.candidates[2].IsSelected)

	require.NoError(t, app.Unselect(ctx, []string{"1"}))
	assert.False(t, app.candidates[0].IsSelected)
	require.NoError(t, app.Unselect(ctx, []string{"all"}))
	assert.False(t, app.candidates[2].IsSelected)
}

func TestUpload_SingleFlight(t *testing.T) {
	up := album()
	up.started = make(chan struct{})
	up.release = make(chan struct{})
	up.result = models.UploadResult{Selected: 1, SucceededCount: 1}

	app, out := newTestApp(t, up, nil)
	ctx := context.Background()
	require.NoError(t, app.List(ctx))
	require.NoError(t, app.Select(ctx, []string{"3"}))

	require.NoError(t, app.Upload(ctx))
	<-up.started
	assert.Equal(t, "(u1, uploading)", app.status())
	require.ErrorIs(t, app.Upload(ctx), ErrUploadInProgress)

	close(up.release)
	app.Wait()

	assert.False(t, app.isUploading())
	assert.Equal(t, "(u1)", app.status())
	assert.Equal(t, "u1", up.gotUser)
	require.Len(t, up.gotSel, 3)
	assert.True(t, up.gotSel[2].IsSelected)
	assert.Contains(t, out.String(), ErrUploadInProgress.Error())
	assert.Contains(t, out.String(), "Uploaded 1 photo(s)")
}

func TestReport(t *testing.T) {
	tests := []struct {
		name string
		res  models.UploadResult
		want []string
	}{
		{"failed", models.Failure(errors.New("gallery down")), []string{"Upload failed: gallery down"}},
		{"empty", models.UploadResult{}, []string{"Nothing selected to upload"}},
		{
			"partial",
			models.UploadResult{Selected: 3, SucceededCount: 2, Failures: []models.AssetFailure{
				{LocalAssetID: "a9", Stage: models.StageTransfer, Err: errors.New("503")},
			}},
			[]string{"Uploaded 2 of 3 photo(s)", "a9 (transfer): 503"},
		},
		{"full", models.UploadResult{Selected: 2, SucceededCount: 2}, []string{"Uploaded 2 photo(s)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			app := &App{out: &out}
			app.report(tt.res)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestSync_PrintsSummary(t *testing.T) {
	sy := &fakeSync{report: &services.SyncReport{
		Live:      make([]models.RemotePhotoRecord, 4),
		Deleted:   make([]models.RemotePhotoRecord, 1),
		Forgotten: []string{"a7"},
	}}
	app, out := newTestApp(t, album(), sy)

	require.NoError(t, app.Sync(context.Background()))
	assert.Contains(t, out.String(), "Gallery has 4 photo(s), 1 deleted")
	assert.Contains(t, out.String(), "a7 was deleted remotely")
	assert.Len(t, app.candidates, 3)

	sy.err = errors.New("unauthorized")
	require.Error(t, app.Sync(context.Background()))
	assert.Contains(t, out.String(), "Sync failed: unauthorized")
}

func TestLedgerAndForget(t *testing.T) {
	sy := &fakeSync{last: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	app, out := newTestApp(t, album(), sy)
	ctx := context.Background()

	require.NoError(t, app.Ledger(ctx))
	assert.Contains(t, out.String(), "Last sync:")
	assert.Contains(t, out.String(), "Ledger is empty")

	app.ledger.Save(ctx, models.LedgerEntry{LocalAssetID: "b", PhotoID: "p2", UploadedAt: time.Unix(20, 0)})
	app.ledger.Save(ctx, models.LedgerEntry{LocalAssetID: "a", PhotoID: "p1", UploadedAt: time.Unix(10, 0)})

	out.Reset()
	require.NoError(t, app.Ledger(ctx))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "a -> p1"))
	assert.True(t, strings.HasPrefix(lines[2], "b -> p2"))

	out.Reset()
	require.NoError(t, app.Forget(ctx, []string{"a"}))
	assert.False(t, app.ledger.IsUploaded("a"))
	assert.Contains(t, out.String(), "a forgotten")

	require.NoError(t, app.Forget(ctx, []string{"zzz"}))
	assert.Contains(t, out.String(), "zzz is not in the ledger")
	require.Error(t, app.Forget(ctx, nil))
}

func TestOnEvent(t *testing.T) {
	var out bytes.Buffer
	app := &App{out: &out}

	app.onEvent(services.Event{State: services.StateIdle})
	app.onEvent(services.Event{State: services.StateTransferring, Total: 2})
	app.onEvent(services.Event{State: services.StateDone, Succeeded: 2})
	app.onEvent(services.Event{State: services.StateDone, Err: errors.New("x")})

	assert.Equal(t,
		"[upload] transferring (2)\n[upload] done: 2 uploaded, 0 dropped\n[upload] failed\n",
		out.String())
}

func TestRun_ListsThenReadsCommands(t *testing.T) {
	silence(t)
	app, out := newTestApp(t, album(), nil)
	app.reader = bufio.NewReader(strings.NewReader("select 1\nexit\n"))

	app.Run(context.Background())

	assert.Contains(t, out.String(), "  1 [ ] a1")
	assert.True(t, app.candidates[0].IsSelected)
}

func TestGetToken_UsesPasswordReader(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(int) ([]byte, error) { return []byte("  tok \n"), nil }
	var w bytes.Buffer
	tok, err := GetToken(&w)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.Contains(t, w.String(), "Enter access token")

	readPassword = func(int) ([]byte, error) { return nil, nil }
	_, err = GetToken(&w)
	require.Error(t, err)
}

func TestGetSimpleText(t *testing.T) {
	var w bytes.Buffer
	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("hello \n")), "Name", &w)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "Name", &w)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)
}
