package storage

import (
	"context"
	"database/sql"
)

const donationColumns = `id, date, role, house, name, amount, created_at, updated_at, sync_status, synced_at`

func scanDonation(row interface{ Scan(...any) error }) (Donation, error) {
	var d Donation
	err := row.Scan(
		&d.ID,
		&d.Date,
		&d.Role,
		&d.House,
		&d.Name,
		&d.Amount,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.SyncStatus,
		&d.SyncedAt,
	)
	return d, err
}

const createDonation = `INSERT INTO donations (date, role, house, name, amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + donationColumns

type CreateDonationParams struct {
	Date      string
	Role      string
	House     sql.NullString
	Name      string
	Amount    float64
	CreatedAt string
	UpdatedAt string
}

func (q *Queries) CreateDonation(ctx context.Context, arg CreateDonationParams) (Donation, error) {
	row := q.db.QueryRowContext(ctx, createDonation,
		arg.Date,
		arg.Role,
		arg.House,
		arg.Name,
		arg.Amount,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanDonation(row)
}

const getDonation = `SELECT ` + donationColumns + ` FROM donations WHERE id = ?`

func (q *Queries) GetDonation(ctx context.Context, id int64) (Donation, error) {
	return scanDonation(q.db.QueryRowContext(ctx, getDonation, id))
}

const searchDonorNames = `SELECT DISTINCT name FROM donations
WHERE name LIKE ? ESCAPE '\'
ORDER BY name COLLATE NOCASE, name
LIMIT ?`

type SearchDonorNamesParams struct {
	Pattern string
	Limit   int64
}

func (q *Queries) SearchDonorNames(ctx context.Context, arg SearchDonorNamesParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, searchDonorNames, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPendingSyncDonations = `SELECT id, created_at FROM donations
WHERE sync_status = 'pending'
ORDER BY id
LIMIT ?`

type GetPendingSyncDonationsRow struct {
	ID        int64
	CreatedAt string
}

func (q *Queries) GetPendingSyncDonations(ctx context.Context, limit int64) ([]GetPendingSyncDonationsRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncDonations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPendingSyncDonationsRow
	for rows.Next() {
		var i GetPendingSyncDonationsRow
		if err := rows.Scan(&i.ID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markDonationSynced = `UPDATE donations SET sync_status = 'synced', synced_at = ? WHERE id = ?`

func (q *Queries) MarkDonationSynced(ctx context.Context, syncedAt string, id int64) error {
	_, err := q.db.ExecContext(ctx, markDonationSynced, syncedAt, id)
	return err
}

const markDonationSyncError = `UPDATE donations SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkDonationSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markDonationSyncError, id)
	return err
}

const countDonationsBySyncStatus = `SELECT sync_status, COUNT(*) FROM donations GROUP BY sync_status`

func (q *Queries) CountDonationsBySyncStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countDonationsBySyncStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
