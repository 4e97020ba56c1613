package core

import "sort"

// TopDonorLimit is the number of students shown on the leaderboard.
const TopDonorLimit = 5

// HouseAmount is a house total in pounds.
type HouseAmount struct {
	House  House   `json:"house"`
	Amount float64 `json:"amount"`
}

// DonorAmount is a donor total in pounds.
type DonorAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// TimelinePoint is the amount donated on one calendar day (YYYY-MM-DD, UTC).
type TimelinePoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Snapshot is the precomputed aggregate the dashboard reads. Amounts are in pounds.
type Snapshot struct {
	TotalAmount    float64         `json:"totalAmount"`
	TotalStudents  int64           `json:"totalStudents"`
	StaffAmount    float64         `json:"staffAmount"`
	StudentAmount  float64         `json:"studentAmount"`
	HouseDonations []HouseAmount   `json:"houseDonations"`
	TopDonors      []DonorAmount   `json:"topDonors"`
	Timeline       []TimelinePoint `json:"timeline"`
}

// RecalculationStats summarizes a recalculation for the admin.
type RecalculationStats struct {
	TotalAmount         float64 `json:"totalAmount"`
	TotalStudents       int64   `json:"totalStudents"`
	StaffAmount         float64 `json:"staffAmount"`
	StudentAmount       float64 `json:"studentAmount"`
	HouseDonationsCount int     `json:"houseDonationsCount"`
	TopDonorsCount      int     `json:"topDonorsCount"`
}

// Kilogram totals as summed by the store, before conversion.
type (
	HouseTotal struct {
		House House
		Kg    float64
	}

	DonorTotal struct {
		Name string
		Kg   float64
	}

	DayTotal struct {
		Date string
		Kg   float64
	}

	Totals struct {
		TotalKg   float64
		Students  int64
		StaffKg   float64
		StudentKg float64
		Houses    []HouseTotal
		// Donors must already be ordered by amount descending with ties resolved.
		Donors []DonorTotal
		Days   []DayTotal
	}
)

// EmptySnapshot is what the dashboard shows before any recalculation.
func EmptySnapshot() Snapshot {
	return Snapshot{
		HouseDonations: []HouseAmount{},
		TopDonors:      []DonorAmount{},
		Timeline:       []TimelinePoint{},
	}
}

// BuildSnapshot converts store totals to pounds. Houses come out in canonical
// order, donors are capped at TopDonorLimit and days are sorted ascending.
func BuildSnapshot(t Totals) Snapshot {
	s := EmptySnapshot()
	s.TotalAmount = KilogramsToPounds(t.TotalKg)
	s.TotalStudents = t.Students
	s.StaffAmount = KilogramsToPounds(t.StaffKg)
	s.StudentAmount = KilogramsToPounds(t.StudentKg)

	houses := make([]HouseTotal, 0, len(t.Houses))
	for _, h := range t.Houses {
		if h.House == "" {
			continue
		}
		houses = append(houses, h)
	}
	sort.SliceStable(houses, func(i, j int) bool {
		return houses[i].House.index() < houses[j].House.index()
	})
	for _, h := range houses {
		s.HouseDonations = append(s.HouseDonations, HouseAmount{House: h.House, Amount: KilogramsToPounds(h.Kg)})
	}

	for i, d := range t.Donors {
		if i == TopDonorLimit {
			break
		}
		s.TopDonors = append(s.TopDonors, DonorAmount{Name: d.Name, Amount: KilogramsToPounds(d.Kg)})
	}

	days := append([]DayTotal(nil), t.Days...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	for _, d := range days {
		s.Timeline = append(s.Timeline, TimelinePoint{Date: d.Date, Amount: KilogramsToPounds(d.Kg)})
	}

	return s
}

// Stats reports the figures returned after a manual recalculation.
func (s Snapshot) Stats() RecalculationStats {
	return RecalculationStats{
		TotalAmount:         s.TotalAmount,
		TotalStudents:       s.TotalStudents,
		StaffAmount:         s.StaffAmount,
		StudentAmount:       s.StudentAmount,
		HouseDonationsCount: len(s.HouseDonations),
		TopDonorsCount:      len(s.TopDonors),
	}
}

// RankedHouse is a house with its 1-based leaderboard position.
type RankedHouse struct {
	Rank int
	HouseAmount
}

// RankHouses orders houses by amount descending for display. Equal amounts
// keep canonical house order and share a rank.
func RankHouses(houses []HouseAmount) []RankedHouse {
	sorted := append([]HouseAmount(nil), houses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].House.index() < sorted[j].House.index()
	})
	out := make([]RankedHouse, len(sorted))
	for i, h := range sorted {
		rank := i + 1
		if i > 0 && h.Amount == sorted[i-1].Amount {
			rank = out[i-1].Rank
		}
		out[i] = RankedHouse{Rank: rank, HouseAmount: h}
	}
	return out
}
