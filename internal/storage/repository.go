package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fooddrive/internal/core"

	_ "modernc.org/sqlite"
)

// ErrDonationNotFound is returned when a donation ID does not exist.
var ErrDonationNotFound = errors.New("donation not found")

// Writers queue behind busy_timeout and take the write lock at BEGIN so a
// recalculation never reads totals it cannot commit.
const dsnParams = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// PendingSyncDonation is the minimal data the sheet mirror needs to retry a row.
type PendingSyncDonation struct {
	ID        int64
	CreatedAt time.Time
}

func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + dsnParams
	}
	return dbPath + "?" + dsnParams
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn in one transaction. Any error rolls everything back.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateDonation inserts d and rebuilds the aggregate snapshot in the same
// transaction, so the dashboard never lags behind a committed donation.
// d must already be validated. A zero Date means "now".
func (r *SQLiteRepository) CreateDonation(ctx context.Context, d core.Donation) (core.Donation, core.Snapshot, error) {
	now := r.now()
	date := d.Date
	if date.IsZero() {
		date = now
	}

	var (
		saved    Donation
		snapshot core.Snapshot
	)
	err := r.inTx(ctx, func(q *Queries) error {
		var err error
		saved, err = q.CreateDonation(ctx, CreateDonationParams{
			Date:      formatTime(date),
			Role:      string(d.Role),
			House:     nullHouse(d.House),
			Name:      d.Name,
			Amount:    d.Amount,
			CreatedAt: formatTime(now),
			UpdatedAt: formatTime(now),
		})
		if err != nil {
			return fmt.Errorf("insert donation: %w", err)
		}
		snapshot, err = recalculate(ctx, q, now)
		return err
	})
	if err != nil {
		return core.Donation{}, core.Snapshot{}, err
	}

	slog.InfoContext(ctx, "Donation saved to SQLite",
		"id", saved.ID,
		"role", saved.Role,
		"amount_kg", saved.Amount,
		"total_lbs", snapshot.TotalAmount)

	donation, err := toCoreDonation(saved)
	if err != nil {
		return core.Donation{}, core.Snapshot{}, err
	}
	return donation, snapshot, nil
}

// Recalculate rebuilds the aggregate snapshot from every donation.
func (r *SQLiteRepository) Recalculate(ctx context.Context) (core.Snapshot, error) {
	var snapshot core.Snapshot
	err := r.inTx(ctx, func(q *Queries) error {
		var err error
		snapshot, err = recalculate(ctx, q, r.now())
		return err
	})
	if err != nil {
		return core.Snapshot{}, err
	}
	return snapshot, nil
}

// ReadSnapshot returns the cached aggregate. Before the first recalculation
// it returns the empty snapshot.
func (r *SQLiteRepository) ReadSnapshot(ctx context.Context) (core.Snapshot, error) {
	row, err := r.queries.GetAggregate(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EmptySnapshot(), nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read aggregate snapshot: %w", err)
	}
	return decodeSnapshot(row)
}

// SearchDonorNames returns distinct names containing query, case-insensitively.
func (r *SQLiteRepository) SearchDonorNames(ctx context.Context, query string, limit int) ([]string, error) {
	names, err := r.queries.SearchDonorNames(ctx, SearchDonorNamesParams{
		Pattern: "%" + escapeLike(query) + "%",
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search donor names: %w", err)
	}
	return names, nil
}

func (r *SQLiteRepository) GetDonation(ctx context.Context, id int64) (core.Donation, error) {
	row, err := r.queries.GetDonation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Donation{}, fmt.Errorf("get donation %d: %w", id, ErrDonationNotFound)
	}
	if err != nil {
		return core.Donation{}, fmt.Errorf("get donation %d: %w", id, err)
	}
	return toCoreDonation(row)
}

// GetPendingSyncDonations returns donations not yet mirrored to the sheet.
func (r *SQLiteRepository) GetPendingSyncDonations(ctx context.Context, limit int) ([]PendingSyncDonation, error) {
	rows, err := r.queries.GetPendingSyncDonations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync donations: %w", err)
	}

	pending := make([]PendingSyncDonation, len(rows))
	for i, row := range rows {
		created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of donation %d %q: %w", row.ID, row.CreatedAt, err)
		}
		pending[i] = PendingSyncDonation{ID: row.ID, CreatedAt: created}
	}
	return pending, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkDonationSynced(ctx, formatTime(r.now()), id); err != nil {
		return fmt.Errorf("mark donation synced: %w", err)
	}
	slog.InfoContext(ctx, "Donation marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkDonationSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark donation sync error: %w", err)
	}
	slog.WarnContext(ctx, "Donation marked with sync error", "id", id)
	return nil
}

// SyncStatusCounts reports how many donations are pending, synced or failed.
func (r *SQLiteRepository) SyncStatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := r.queries.CountDonationsBySyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count donations by sync status: %w", err)
	}
	return counts, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullHouse(h core.House) sql.NullString {
	if h == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(h), Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func toCoreDonation(d Donation) (core.Donation, error) {
	date, err := time.Parse(time.RFC3339Nano, d.Date)
	if err != nil {
		return core.Donation{}, fmt.Errorf("parse donation date %q: %w", d.Date, err)
	}
	created, err := time.Parse(time.RFC3339Nano, d.CreatedAt)
	if err != nil {
		return core.Donation{}, fmt.Errorf("parse created_at %q: %w", d.CreatedAt, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, d.UpdatedAt)
	if err != nil {
		return core.Donation{}, fmt.Errorf("parse updated_at %q: %w", d.UpdatedAt, err)
	}
	return core.Donation{
		ID:        d.ID,
		Date:      date,
		Role:      core.Role(d.Role),
		House:     core.House(d.House.String),
		Name:      d.Name,
		Amount:    d.Amount,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}
