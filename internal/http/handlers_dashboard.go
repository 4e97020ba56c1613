package http

import (
	"context"
	"net/http"

	"fooddrive/internal/core"
	"fooddrive/internal/log"
	"fooddrive/internal/services"
)

type houseRow struct {
	Rank   int
	House  core.House
	Amount float64
	Width  int
}

type dayRow struct {
	Date   string
	Amount float64
	Width  int
}

type dashboardView struct {
	services.Dashboard
	HouseRows []houseRow
	Days      []dayRow
	GoalWidth int
	Error     string
}

func newDashboardView(d services.Dashboard) dashboardView {
	v := dashboardView{Dashboard: d, GoalWidth: int(d.GoalProgress + 0.5)}

	var maxHouse float64
	for _, h := range d.Houses {
		if h.Amount > maxHouse {
			maxHouse = h.Amount
		}
	}
	for _, h := range d.Houses {
		v.HouseRows = append(v.HouseRows, houseRow{Rank: h.Rank, House: h.House, Amount: h.Amount, Width: barWidth(h.Amount, maxHouse)})
	}

	var maxDay float64
	for _, p := range d.Timeline {
		if p.Amount > maxDay {
			maxDay = p.Amount
		}
	}
	for _, p := range d.Timeline {
		v.Days = append(v.Days, dayRow{Date: p.Date, Amount: p.Amount, Width: barWidth(p.Amount, maxDay)})
	}
	return v
}

func (s *Server) loadDashboard(ctx context.Context) (services.Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.donations.Dashboard(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r.Context())
	if err != nil {
		s.logger.LogError(r.Context(), "Dashboard read failed", err, log.OpRead, nil)
		s.render(w, r, http.StatusInternalServerError, "dashboard.html", dashboardView{Error: "The dashboard is unavailable right now."})
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", newDashboardView(d))
}

// handleDashboardPartial renders the panel HTMX polls and refreshes after writes.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r.Context())
	if err != nil {
		s.logger.LogError(r.Context(), "Dashboard read failed", err, log.OpRead, nil)
		InternalServerError("Could not load donation totals").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard_panel.html", newDashboardView(d))
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r.Context())
	if err != nil {
		s.logger.LogError(r.Context(), "Dashboard read failed", err, log.OpRead, nil)
		writeJSONError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, d)
}
