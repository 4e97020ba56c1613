package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fooddrive/internal/core"
)

// recalculate sums every donation through q and replaces the single
// aggregate row. Callers run it inside a transaction.
func recalculate(ctx context.Context, q *Queries, now time.Time) (core.Snapshot, error) {
	totals, err := loadTotals(ctx, q)
	if err != nil {
		return core.Snapshot{}, err
	}
	snapshot := core.BuildSnapshot(totals)

	params, err := encodeSnapshot(snapshot)
	if err != nil {
		return core.Snapshot{}, err
	}
	params.RecalculatedAt = formatTime(now)

	if err := q.DeleteAggregates(ctx); err != nil {
		return core.Snapshot{}, fmt.Errorf("clear aggregates: %w", err)
	}
	if err := q.InsertAggregate(ctx, params); err != nil {
		return core.Snapshot{}, fmt.Errorf("insert aggregates: %w", err)
	}
	return snapshot, nil
}

func loadTotals(ctx context.Context, q *Queries) (core.Totals, error) {
	var (
		t   core.Totals
		err error
	)
	if t.TotalKg, err = q.SumAllDonations(ctx); err != nil {
		return t, fmt.Errorf("sum donations: %w", err)
	}
	if t.Students, err = q.CountDistinctStudents(ctx); err != nil {
		return t, fmt.Errorf("count students: %w", err)
	}
	if t.StaffKg, err = q.SumDonationsByRole(ctx, string(core.Staff)); err != nil {
		return t, fmt.Errorf("sum staff donations: %w", err)
	}
	if t.StudentKg, err = q.SumDonationsByRole(ctx, string(core.Student)); err != nil {
		return t, fmt.Errorf("sum student donations: %w", err)
	}

	houses, err := q.SumDonationsByHouse(ctx)
	if err != nil {
		return t, fmt.Errorf("sum house donations: %w", err)
	}
	for _, h := range houses {
		t.Houses = append(t.Houses, core.HouseTotal{House: core.House(h.House), Kg: h.Total})
	}

	donors, err := q.TopStudentDonors(ctx, core.TopDonorLimit)
	if err != nil {
		return t, fmt.Errorf("top student donors: %w", err)
	}
	for _, d := range donors {
		t.Donors = append(t.Donors, core.DonorTotal{Name: d.Name, Kg: d.Total})
	}

	days, err := q.SumDonationsByDay(ctx)
	if err != nil {
		return t, fmt.Errorf("sum donations by day: %w", err)
	}
	for _, d := range days {
		t.Days = append(t.Days, core.DayTotal{Date: d.Day, Kg: d.Total})
	}

	return t, nil
}

func encodeSnapshot(s core.Snapshot) (InsertAggregateParams, error) {
	houses, err := json.Marshal(s.HouseDonations)
	if err != nil {
		return InsertAggregateParams{}, fmt.Errorf("encode house donations: %w", err)
	}
	donors, err := json.Marshal(s.TopDonors)
	if err != nil {
		return InsertAggregateParams{}, fmt.Errorf("encode top donors: %w", err)
	}
	timeline, err := json.Marshal(s.Timeline)
	if err != nil {
		return InsertAggregateParams{}, fmt.Errorf("encode timeline: %w", err)
	}
	return InsertAggregateParams{
		TotalAmount:    s.TotalAmount,
		TotalStudents:  s.TotalStudents,
		StaffAmount:    s.StaffAmount,
		StudentAmount:  s.StudentAmount,
		HouseDonations: string(houses),
		TopDonors:      string(donors),
		Timeline:       string(timeline),
	}, nil
}

func decodeSnapshot(a DonationAggregate) (core.Snapshot, error) {
	s := core.EmptySnapshot()
	s.TotalAmount = a.TotalAmount
	s.TotalStudents = a.TotalStudents
	s.StaffAmount = a.StaffAmount
	s.StudentAmount = a.StudentAmount
	if err := json.Unmarshal([]byte(a.HouseDonations), &s.HouseDonations); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode house donations: %w", err)
	}
	if err := json.Unmarshal([]byte(a.TopDonors), &s.TopDonors); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode top donors: %w", err)
	}
	if err := json.Unmarshal([]byte(a.Timeline), &s.Timeline); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode timeline: %w", err)
	}
	return s, nil
}
