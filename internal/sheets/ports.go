// Package sheets defines the outbound port for mirroring donations to a
// spreadsheet. Adapters live in the google and memory subpackages.
package sheets

import (
	"context"

	"fooddrive/internal/core"
)

// DonationWriter appends one donation per row. Appending a donation whose ID
// is already present must not create a second row.
type DonationWriter interface {
	AppendDonation(ctx context.Context, d core.Donation) (rowRef string, err error)
}

// Header is the first row of the mirror sheet.
var Header = []string{"ID", "Date", "Name", "Role", "House", "Amount (kg)", "Amount (lbs)"}

// Row renders d in Header column order.
func Row(d core.Donation) []any {
	return []any{
		d.ID,
		d.Date.UTC().Format("2006-01-02"),
		d.Name,
		string(d.Role),
		string(d.House),
		d.Amount,
		core.KilogramsToPounds(d.Amount),
	}
}
