package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	List(ctx context.Context) error
	Select(ctx context.Context, args []string) error
	Unselect(ctx context.Context, args []string) error
	Upload(ctx context.Context) error
	Sync(ctx context.Context) error
	Ledger(ctx context.Context) error
	Forget(ctx context.Context, args []string) error
	Wait()
}

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
//	help                  show available commands
//	list | l              list album photos ([x] selected, [=] uploaded)
//	select <n...|all>     mark photos for upload
//	unselect <n...|all>   clear the selection
//	upload                upload the selection in the background
//	sync                  reconcile the ledger with the gallery
//	ledger                show uploaded photos
//	forget <assetId>      drop a ledger entry so the photo can be sent again
//	exit | quit           wait for a running upload and leave
//
// Handlers report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ps> %s > ", statusFn()))
		if !scanner.Scan() {
			a.Wait()
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: (l)ist, select, unselect, upload, sync, ledger, forget, exit")

		case "l", "list":
			_ = a.List(ctx)

		case "select":
			_ = a.Select(ctx, args)

		case "unselect":
			_ = a.Unselect(ctx, args)

		case "upload":
			_ = a.Upload(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "ledger":
			_ = a.Ledger(ctx)

		case "forget":
			_ = a.Forget(ctx, args)

		case "exit", "quit":
			a.Wait()
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
