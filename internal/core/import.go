package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/contacts/internal/contact"
	"github.com/JonMunkholm/contacts/internal/ingest"
	"github.com/JonMunkholm/contacts/internal/logging"
)

// ErrFileTooLarge is returned for uploads over Options.MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// RunImport drains src through the pipeline while holding an import slot.
// It returns ErrTooManyImports or ErrShuttingDown when no slot is granted.
func (s *Service) RunImport(ctx context.Context, src ingest.Source) (*ingest.Summary, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		logging.FromContext(ctx).Warn("import refused", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	if s.opts.ImportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ImportTimeout)
		defer cancel()
	}

	return s.pipeline.Run(ctx, src)
}

// ImportFile runs an import over the CSV file at path. A file that cannot
// be opened is reported as a source read fault.
func (s *Service) ImportFile(ctx context.Context, path string) (*ingest.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ingest.SourceReadError{Err: err}
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	logging.FromContext(ctx).Info("importing file", "path", path, "bytes", size)
	return s.importCSV(ctx, f, size)
}

// ImportConfigured runs an import over Options.CSVPath.
func (s *Service) ImportConfigured(ctx context.Context) (*ingest.Summary, error) {
	return s.ImportFile(ctx, s.opts.CSVPath)
}

// ImportReader runs an import over uploaded CSV text read from r. size is
// the declared upload size; it is checked against Options.MaxFileSize and
// may be 0 when unknown.
func (s *Service) ImportReader(ctx context.Context, r io.Reader, size int64) (*ingest.Summary, error) {
	if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, s.opts.MaxFileSize)
	}
	return s.importCSV(ctx, r, size)
}

func (s *Service) importCSV(ctx context.Context, r io.Reader, size int64) (*ingest.Summary, error) {
	csvSrc := ingest.NewCSVSource(r, size, ingest.ImportColumns)

	var src ingest.Source = csvSrc
	if s.opts.ProgressEvery > 0 {
		src = &progressSource{
			src:    csvSrc,
			every:  s.opts.ProgressEvery,
			logger: logging.FromContext(ctx),
		}
	}
	return s.RunImport(ctx, src)
}

// progressSource logs read progress every n rows.
type progressSource struct {
	src    *ingest.CSVSource
	every  int
	rows   int
	logger *slog.Logger
}

func (p *progressSource) Next() (contact.RawRow, error) {
	row, err := p.src.Next()
	if err != nil {
		return row, err
	}
	p.rows++
	if p.rows%p.every == 0 {
		p.logger.Info("import progress",
			"rows", p.rows,
			"bytes", p.src.BytesRead(),
			"percent", p.src.Progress(),
		)
	}
	return row, nil
}
