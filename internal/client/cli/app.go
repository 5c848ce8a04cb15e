package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/photosync/internal/client/assets"
	"github.com/dmitrijs2005/photosync/internal/client/auth"
	"github.com/dmitrijs2005/photosync/internal/client/client"
	"github.com/dmitrijs2005/photosync/internal/client/config"
	"github.com/dmitrijs2005/photosync/internal/client/ledger"
	"github.com/dmitrijs2005/photosync/internal/client/materializer"
	"github.com/dmitrijs2005/photosync/internal/client/models"
	"github.com/dmitrijs2005/photosync/internal/client/services"
	"github.com/dmitrijs2005/photosync/internal/client/storage"
	"github.com/dmitrijs2005/photosync/internal/filex"
	"github.com/dmitrijs2005/photosync/internal/imagex"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/dmitrijs2005/photosync/internal/netx"
)

var ErrUploadInProgress = errors.New("an upload is already running")

// getToken is an indirection used to facilitate testing.
var getToken = GetToken

type App struct {
	config *config.Config
	upload services.UploadService
	sync   services.SyncService
	ledger *ledger.Ledger
	log    logging.Logger
	userID string
	reader *bufio.Reader
	closer io.Closer

	outMu sync.Mutex
	out   io.Writer

	mu         sync.Mutex
	candidates []models.UploadCandidate

	uploading atomic.Bool
	wg        sync.WaitGroup
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	dbPath, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, err
	}
	repos, err := storage.InitDatabase(ctx, dbPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", dbPath, "error", err)
		return nil, err
	}

	l := ledger.New(repos.Metadata, log)
	if err := l.Load(ctx); err != nil {
		_ = repos.Close()
		return nil, err
	}

	store, err := assets.OpenDir(c.AlbumDir)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	token := c.AccessToken
	if token == "" {
		if token, err = getToken(os.Stdout); err != nil {
			_ = repos.Close()
			return nil, err
		}
	}
	userID := c.UserID
	if userID == "" {
		if userID, err = auth.UserIDFromToken(token); err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("no user id configured: %w", err)
		}
	}

	api, err := client.NewHTTPClient(c.ServerURL, token,
		client.WithHTTPClient(&http.Client{}),
		client.WithTimeout(c.MetadataTimeout),
		client.WithLogger(log),
	)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	uploader := netx.NewUploader(netx.UploaderOptions{
		HTTPClient: &http.Client{},
		Attempts:   c.TransferAttempts,
		Timeout:    c.TransferTimeout,
	}, log)
	mat := materializer.New(store, materializer.Options{
		Bound:       imagex.Size{Width: c.MaxWidth, Height: c.MaxHeight},
		JPEGQuality: c.JPEGQuality,
		Concurrency: c.Concurrency,
	}, log)

	a := &App{
		config: c,
		ledger: l,
		log:    log,
		userID: userID,
		reader: bufio.NewReader(os.Stdin),
		closer: repos,
		out:    os.Stdout,
	}
	a.upload = services.NewUploadService(services.UploadDeps{
		Assets:       store,
		Materializer: mat,
		Client:       api,
		Putter:       uploader,
		Ledger:       l,
		Observer:     services.ObserverFunc(a.onEvent),
		Log:          log,
	})
	a.sync = services.NewSyncService(api, l, repos.Metadata, log)
	return a, nil
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) onEvent(e services.Event) {
	switch e.State {
	case services.StateIdle:
		return
	case services.StateDone:
		if e.Err != nil {
			a.printf("[upload] failed\n")
			return
		}
		a.printf("[upload] done: %d uploaded, %d dropped\n", e.Succeeded, e.Failed)
	default:
		a.printf("[upload] %s (%d)\n", e.State, e.Total)
	}
}

func (a *App) isUploading() bool {
	return a.uploading.Load()
}

func (a *App) status() string {
	s := a.userID
	if a.isUploading() {
		s += ", uploading"
	}
	if s == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", s)
}

// Wait blocks until a background upload, if any, has finished.
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) Close() error {
	a.Wait()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Run starts the REPL on stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Welcome to photosync (type 'help' for commands)")
	_ = a.List(ctx)
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}
