package storage

import "context"

// Sums are in kilograms. Conversion happens in core.BuildSnapshot.

const sumAllDonations = `SELECT CAST(COALESCE(SUM(amount), 0) AS REAL) FROM donations`

func (q *Queries) SumAllDonations(ctx context.Context) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, sumAllDonations).Scan(&total)
	return total, err
}

const countDistinctStudents = `SELECT COUNT(DISTINCT name) FROM donations WHERE role = 'Student'`

func (q *Queries) CountDistinctStudents(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countDistinctStudents).Scan(&n)
	return n, err
}

const sumDonationsByRole = `SELECT CAST(COALESCE(SUM(amount), 0) AS REAL) FROM donations WHERE role = ?`

func (q *Queries) SumDonationsByRole(ctx context.Context, role string) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, sumDonationsByRole, role).Scan(&total)
	return total, err
}

const sumDonationsByHouse = `SELECT house, CAST(SUM(amount) AS REAL) AS total
FROM donations
WHERE house IS NOT NULL
GROUP BY house`

type SumDonationsByHouseRow struct {
	House string
	Total float64
}

func (q *Queries) SumDonationsByHouse(ctx context.Context) ([]SumDonationsByHouseRow, error) {
	rows, err := q.db.QueryContext(ctx, sumDonationsByHouse)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SumDonationsByHouseRow
	for rows.Next() {
		var i SumDonationsByHouseRow
		if err := rows.Scan(&i.House, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Ties go to the donor whose first donation came earliest.
const topStudentDonors = `SELECT name, CAST(SUM(amount) AS REAL) AS total
FROM donations
WHERE role = 'Student'
GROUP BY name
ORDER BY total DESC, MIN(id) ASC
LIMIT ?`

type TopStudentDonorsRow struct {
	Name  string
	Total float64
}

func (q *Queries) TopStudentDonors(ctx context.Context, limit int64) ([]TopStudentDonorsRow, error) {
	rows, err := q.db.QueryContext(ctx, topStudentDonors, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopStudentDonorsRow
	for rows.Next() {
		var i TopStudentDonorsRow
		if err := rows.Scan(&i.Name, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumDonationsByDay = `SELECT substr(date, 1, 10) AS day, CAST(SUM(amount) AS REAL) AS total
FROM donations
GROUP BY day
ORDER BY day`

type SumDonationsByDayRow struct {
	Day   string
	Total float64
}

func (q *Queries) SumDonationsByDay(ctx context.Context) ([]SumDonationsByDayRow, error) {
	rows, err := q.db.QueryContext(ctx, sumDonationsByDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SumDonationsByDayRow
	for rows.Next() {
		var i SumDonationsByDayRow
		if err := rows.Scan(&i.Day, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAggregates = `DELETE FROM donation_aggregates`

func (q *Queries) DeleteAggregates(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAggregates)
	return err
}

const insertAggregate = `INSERT INTO donation_aggregates (
    id, total_amount, total_students, staff_amount, student_amount,
    house_donations, top_donors, timeline, recalculated_at
) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertAggregateParams struct {
	TotalAmount    float64
	TotalStudents  int64
	StaffAmount    float64
	StudentAmount  float64
	HouseDonations string
	TopDonors      string
	Timeline       string
	RecalculatedAt string
}

func (q *Queries) InsertAggregate(ctx context.Context, arg InsertAggregateParams) error {
	_, err := q.db.ExecContext(ctx, insertAggregate,
		arg.TotalAmount,
		arg.TotalStudents,
		arg.StaffAmount,
		arg.StudentAmount,
		arg.HouseDonations,
		arg.TopDonors,
		arg.Timeline,
		arg.RecalculatedAt,
	)
	return err
}

const getAggregate = `SELECT id, total_amount, total_students, staff_amount, student_amount,
    house_donations, top_donors, timeline, recalculated_at
FROM donation_aggregates
LIMIT 1`

func (q *Queries) GetAggregate(ctx context.Context) (DonationAggregate, error) {
	var a DonationAggregate
	err := q.db.QueryRowContext(ctx, getAggregate).Scan(
		&a.ID,
		&a.TotalAmount,
		&a.TotalStudents,
		&a.StaffAmount,
		&a.StudentAmount,
		&a.HouseDonations,
		&a.TopDonors,
		&a.Timeline,
		&a.RecalculatedAt,
	)
	return a, err
}
