package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/magic-mount/releaser/internal/domain/release"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is stored in PRAGMA user_version.
const currentSchemaVersion = 1

// Kinds of history entries.
const (
	KindArchive    = "archive"
	KindDeployment = "deployment"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("history record not found")

// Entry is one line of the release history.
type Entry struct {
	ID      string    `yaml:"id"`
	Kind    string    `yaml:"kind"`
	Variant string    `yaml:"variant"`
	Detail  string    `yaml:"detail"`
	Success bool      `yaml:"success"`
	Actor   string    `yaml:"actor"`
	At      time.Time `yaml:"at"`
}

// Store persists the release history in SQLite.
type Store struct {
	db *sql.DB
	// mu serialises writers; SQLite allows one at a time.
	mu sync.Mutex
	// now stamps archive records.
	now func() time.Time
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd // Release directory.
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("connect history: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err = applyPragmas(db); err != nil {
		_ = db.Close()

		return nil, err
	}

	if err = applySchema(db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply history schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// RecordArchive stores a produced archive and returns the record ID.
func (s *Store) RecordArchive(ctx context.Context, archive *release.PackagedArchive, actor string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archives
		(id, file_name, path, variant, short_hash, commit_count, member_count, size, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		archive.FileName,
		archive.Path,
		archive.Variant,
		archive.Revision.ShortHash,
		archive.Revision.CommitCount,
		len(archive.Members),
		archive.Size,
		actor,
		s.now().UTC().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("record archive: %w", err)
	}

	return id, nil
}

// RecordDeployment stores a report with its per-architecture results.
// Reports without an ID get one.
func (s *Store) RecordDeployment(ctx context.Context, report *release.DeploymentReport, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record deployment: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO deployments
		(id, variant, primary_abi, abi_list, cleanup_error, summary, succeeded, actor, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.Variant,
		report.Profile.PrimaryABI.String(),
		strings.Join(report.Profile.SupportedABIs, ","),
		report.CleanupError,
		report.Summary(),
		report.Succeeded(),
		actor,
		report.StartedAt.UTC().UnixNano(),
		report.FinishedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record deployment: %w", err)
	}

	for i, result := range report.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deployment_results
			(deployment_id, position, entry, outcome, is_primary, device_path, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			report.ID, i, result.Entry, string(result.Outcome), result.Primary, result.DevicePath, result.Reason,
		)
		if err != nil {
			return fmt.Errorf("record deployment result %s: %w", result.Entry, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("record deployment: %w", err)
	}

	return nil
}

// List returns up to limit entries, newest first. A non-positive limit lists everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, variant, detail, success, actor, at FROM (
			SELECT id, 'archive' AS kind, variant, file_name AS detail, 1 AS success, actor, created_at AS at
			FROM archives
			UNION ALL
			SELECT id, 'deployment' AS kind, variant, summary AS detail, succeeded AS success, actor, started_at AS at
			FROM deployments
		)
		ORDER BY at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry

	for rows.Next() {
		var (
			e  Entry
			at int64
		)

		if err = rows.Scan(&e.ID, &e.Kind, &e.Variant, &e.Detail, &e.Success, &e.Actor, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		e.At = time.Unix(0, at).UTC()
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return entries, nil
}

// Deployment loads a recorded report by ID.
func (s *Store) Deployment(ctx context.Context, id string) (*release.DeploymentReport, error) {
	var (
		report              release.DeploymentReport
		primary, abiList    string
		startedAt, finished int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, variant, primary_abi, abi_list, cleanup_error, started_at, finished_at
		FROM deployments WHERE id = ?
	`, id).Scan(&report.ID, &report.Variant, &primary, &abiList, &report.CleanupError, &startedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("load deployment: %w", err)
	}

	report.Profile = release.NewDeviceProfile(primary, abiList)
	report.StartedAt = time.Unix(0, startedAt).UTC()
	report.FinishedAt = time.Unix(0, finished).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry, outcome, is_primary, device_path, reason
		FROM deployment_results WHERE deployment_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load deployment results: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			result  release.ArchitectureResult
			outcome string
		)

		if err = rows.Scan(&result.Entry, &outcome, &result.Primary, &result.DevicePath, &result.Reason); err != nil {
			return nil, fmt.Errorf("scan deployment result: %w", err)
		}

		result.Outcome = release.Outcome(outcome)
		report.Add(result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("load deployment results: %w", err)
	}

	return &report, nil
}
