package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/logger"
	"codeberg.org/mutker/sysreport/internal/report"
	_ "github.com/mattn/go-sqlite3"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS reports (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       selection   TEXT NOT NULL,
	       started_at  TEXT NOT NULL,
	       finished_at TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS sections (
	       report_id   INTEGER NOT NULL REFERENCES reports(id),
	       position    INTEGER NOT NULL CHECK (typeof(position) = 'integer'),
	       domain      TEXT NOT NULL,
	       title       TEXT NOT NULL,
	       status      TEXT NOT NULL CHECK (status IN ('ok', 'error')),
	       error_code  TEXT,
	       duration_ms INTEGER NOT NULL,
	       document    TEXT NOT NULL,
	       PRIMARY KEY (report_id, position)
	   );`

	insertVersionSQL = `
    INSERT OR IGNORE INTO schema_versions (version, applied_at)
    VALUES (?, datetime('now'))`

	insertReportSQL = `
    INSERT INTO reports (selection, started_at, finished_at)
    VALUES (?, ?, ?)`

	insertSectionSQL = `
    INSERT INTO sections (
        report_id, position, domain, title,
        status, error_code, duration_ms, document
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

func writeSQLiteFile(ctx context.Context, path string, snap *report.Snapshot, log logger.Logger) error {
	errFactory := errors.New()

	db, err := sql.Open("sqlite3", path+"?_journal=DELETE&_foreign_keys=1")
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	defer db.Close()

	if err := writeSQLite(ctx, db, snap, log); err != nil {
		return err
	}

	return verifySchema(ctx, db)
}

// verifySchema checks that the database records the schema this build writes.
func verifySchema(ctx context.Context, db *sql.DB) error {
	version, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return errors.New().WithData(ErrSchemaValidationFailed, struct {
			Want int
			Got  int
		}{
			Want: SchemaVersion,
			Got:  version,
		})
	}

	return nil
}

// writeSQLite stores snap as one reports row plus one sections row per
// result, inside a single transaction.
func writeSQLite(ctx context.Context, db *sql.DB, snap *report.Snapshot, log logger.Logger) error {
	errFactory := errors.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	log.Debug().Msg("Creating report tables...")
	if _, err := tx.ExecContext(ctx, createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "create_tables",
		})
	}

	if _, err := tx.ExecContext(ctx, insertVersionSQL, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	res, err := tx.ExecContext(ctx, insertReportSQL,
		snap.Selection.String(),
		snap.Started.UTC().Format(time.RFC3339),
		snap.Finished.UTC().Format(time.RFC3339))
	if err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}

	for i, r := range snap.Results {
		doc, err := json.Marshal(r.Section())
		if err != nil {
			return errFactory.Wrap(ErrEncodeFailed, err)
		}

		status, code := "ok", sql.NullString{}
		if !r.OK() {
			status = "error"
			code = sql.NullString{String: string(errors.CodeOf(r.Err)), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, insertSectionSQL,
			reportID, i, r.Domain.String(), r.Domain.Title(),
			status, code, r.Duration.Milliseconds(), string(doc),
		); err != nil {
			return errFactory.WithData(ErrRecordFailed, struct {
				Error  string
				Domain string
			}{
				Error:  err.Error(),
				Domain: r.Domain.String(),
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}
	committed = true

	log.Debug().
		Int64("report_id", reportID).
		Int("sections", len(snap.Results)).
		Int("version", SchemaVersion).
		Msg("Report stored")

	return nil
}

// schemaVersion returns the newest recorded schema version, or zero for
// a database without one.
func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	errFactory := errors.New()

	var exists bool
	err := db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name='schema_versions'
        )
    `).Scan(&exists)
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRowContext(ctx, `
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}
