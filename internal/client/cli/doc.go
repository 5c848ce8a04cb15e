// Package cli provides the interactive photosync command-line client.
//
// It wires configuration, the local ledger, the album on disk, the gallery
// API and the upload pipeline behind a small REPL. Typical flow: list the
// album, select photos, upload them in the background while progress is
// printed, and sync with the gallery to pick up remote deletions.
//
// Key features:
//   - list / select / unselect local photos
//   - upload the selection (one run at a time)
//   - sync with the gallery and inspect or edit the ledger
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
