// Command import runs one bulk contact import over a CSV file and prints
// the run summary as JSON. It exits 1 when the run aborts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/JonMunkholm/contacts/internal/ingest"
	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/JonMunkholm/contacts/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	file := flag.String("file", "", "CSV file to import (default IMPORT_CSV_PATH)")
	flag.Parse()

	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	path := cfg.Import.CSVPath
	if *file != "" {
		path = *file
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persister, closeDB, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		return 1
	}
	defer closeDB()

	service := core.NewService(persister, core.OptionsFromConfig(cfg), nil)

	summary, err := service.ImportFile(ctx, path)
	if err != nil {
		slog.Error("import failed", "path", path, "error", err, "code", core.MapError(err).Code)
		fmt.Fprintln(os.Stderr, failureMessage(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		slog.Error("failed to write summary", "error", err)
		return 1
	}
	return 0
}

// failureMessage renders a failed run for the terminal. Errors without a
// specific code keep their raw text, and aborted runs report the rows that
// were already committed.
func failureMessage(err error) string {
	msg := core.FormatUserError(err)
	if !core.IsUserFacing(err) {
		msg += ": " + err.Error()
	}

	var abortErr *ingest.AbortError
	if errors.As(err, &abortErr) {
		msg += fmt.Sprintf("\naborted after %d rows: %d inserted, %d rejected",
			abortErr.Consumed, abortErr.Tally.Inserted, abortErr.Tally.Rejected)
	}
	return msg
}
