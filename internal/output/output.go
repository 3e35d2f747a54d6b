// Package output persists report snapshots to a file.
package output

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/logger"
	"codeberg.org/mutker/sysreport/internal/report"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatSQLite, "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", errors.New().WithData(errors.ErrInvalidFormat, s)
	}
}

// Extension is the conventional file extension of f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatSQLite:
		return "db"
	}
	return "json"
}

type Options struct {
	Format Format
	Layout report.Layout
	Log    logger.Logger
}

// Writer serializes snapshots in one format and layout.
type Writer struct {
	format Format
	layout report.Layout
	log    logger.Logger
}

func New(opts Options) *Writer {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if opts.Layout == "" {
		opts.Layout = report.LayoutList
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	return &Writer{format: opts.Format, layout: opts.Layout, log: opts.Log.With("output")}
}

// Path joins dir and file into the destination path.
func Path(dir, file string) (string, error) {
	file = strings.TrimSpace(file)
	if file == "" || strings.HasSuffix(file, string(os.PathSeparator)) {
		return "", errors.New().WithData(ErrInvalidPath, file)
	}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}

	return filepath.Join(dir, file), nil
}

// Write stores snap at dir/file, creating dir with its parents and
// replacing any existing file. The file only appears once it is complete.
// Errors carry ErrOutputPermission, ErrOutputInterrupted or ErrOutputFailed.
func (w *Writer) Write(ctx context.Context, dir, file string, snap *report.Snapshot) (string, error) {
	path, err := Path(dir, file)
	if err != nil {
		return "", classify(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return "", classify(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", classify(err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	switch w.format {
	case FormatSQLite:
		if err := tmp.Close(); err != nil {
			return "", classify(err)
		}
		err = writeSQLiteFile(ctx, tmpPath, snap, w.log)
	case FormatYAML:
		err = w.encodeTo(tmp, snap, encodeYAML)
	default:
		err = w.encodeTo(tmp, snap, encodeJSON)
	}
	if err != nil {
		return "", classify(err)
	}

	if err := ctx.Err(); err != nil {
		return "", classify(err)
	}
	if err := os.Chmod(tmpPath, defaultFilePerm); err != nil {
		return "", classify(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", classify(err)
	}
	committed = true

	w.log.Info().
		Str("path", path).
		Str("format", string(w.format)).
		Str("layout", string(w.layout)).
		Msg("Report written")

	return path, nil
}

type encodeFunc func(w io.Writer, payload any) error

func (w *Writer) encodeTo(f *os.File, snap *report.Snapshot, encode encodeFunc) error {
	payload, err := snap.Payload(w.layout)
	if err != nil {
		f.Close()
		return err
	}

	if err := encode(f, payload); err != nil {
		f.Close()
		return errors.New().Wrap(ErrEncodeFailed, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// classify maps a write failure to the error the user is shown.
func classify(err error) error {
	errFactory := errors.New()

	switch {
	case errors.Is(err, fs.ErrPermission):
		return errFactory.Wrap(errors.ErrOutputPermission, err)
	case errors.Is(err, context.Canceled), errors.HasCode(err, errors.ErrInterrupted):
		return errFactory.Wrap(errors.ErrOutputInterrupted, err)
	default:
		return errFactory.Wrap(errors.ErrOutputFailed, err)
	}
}

// UserMessage is the one-line explanation printed for a failed write.
func UserMessage(err error) string {
	switch {
	case errors.HasCode(err, errors.ErrOutputPermission):
		return errors.GetErrorMessage(errors.ErrOutputPermission) + "."
	case errors.HasCode(err, errors.ErrOutputInterrupted):
		return errors.GetErrorMessage(errors.ErrOutputInterrupted) + "."
	}
	return errors.GetErrorMessage(errors.ErrOutputFailed) + ": " + err.Error()
}
