package storage

import "database/sql"

// Timestamps are stored as RFC 3339 UTC text so that substr(date, 1, 10)
// yields the calendar day.

type Donation struct {
	ID         int64
	Date       string
	Role       string
	House      sql.NullString
	Name       string
	Amount     float64
	CreatedAt  string
	UpdatedAt  string
	SyncStatus string
	SyncedAt   sql.NullString
}

type DonationAggregate struct {
	ID             int64
	TotalAmount    float64
	TotalStudents  int64
	StaffAmount    float64
	StudentAmount  float64
	HouseDonations string
	TopDonors      string
	Timeline       string
	RecalculatedAt string
}
