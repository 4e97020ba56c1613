package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"fooddrive/internal/core"
	"fooddrive/internal/log"
)

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Invalid donation body", log.FieldError, err)
		s.fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := p.Donation()
	if err != nil {
		s.fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	res, err := s.donations.CreateDonation(ctx, d)
	if err != nil {
		if core.IsValidation(err) {
			s.fail(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.LogError(r.Context(), "Donation save failed", err, log.OpCreate, nil)
		s.fail(w, r, http.StatusInternalServerError, "failed to save donation")
		return
	}

	s.donationCreated(w, r, res.Donation, res.TotalAmount)
}

func (s *Server) donationCreated(w http.ResponseWriter, r *http.Request, d core.Donation, totalLbs float64) {
	if !isHTMX(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "totalAmount": totalLbs})
		return
	}

	msg := fmt.Sprintf("Recorded %s kg from %s. Drive total: %s lbs",
		strconv.FormatFloat(d.Amount, 'f', -1, 64),
		d.Name, formatPounds(totalLbs))
	NewHTMXResponse().
		TriggerDonationCreated(totalLbs).
		TriggerDashboardRefresh().
		TriggerFormReset().
		TriggerSuccessNotification("Donation recorded").
		BodyHTML(`<div class="success" role="status">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	stats, err := s.donations.Recalculate(ctx)
	if err != nil {
		s.logger.LogError(r.Context(), "Recalculation failed", err, log.OpRecalculate, nil)
		s.fail(w, r, http.StatusInternalServerError, "failed to recalculate totals")
		return
	}

	if isHTMX(r) {
		msg := fmt.Sprintf("Totals rebuilt: %s lbs from %d students, %d houses.",
			formatPounds(stats.TotalAmount), stats.TotalStudents, stats.HouseDonationsCount)
		NewHTMXResponse().
			TriggerDashboardRefresh().
			BodyHTML(`<div class="success" role="status">` + template.HTMLEscapeString(msg) + `</div>`).
			Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

// handleSearchDonors feeds the name autocomplete. HTMX gets <option> elements
// for a datalist, API clients get a JSON array.
func (s *Server) handleSearchDonors(w http.ResponseWriter, r *http.Request) {
	q := sanitizeInput(r.URL.Query().Get("q"))
	if q == "" {
		q = sanitizeInput(r.URL.Query().Get("name"))
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	names, err := s.donations.SearchDonors(ctx, q)
	if err != nil {
		s.logger.LogError(r.Context(), "Donor search failed", err, log.OpSearch, nil)
		s.fail(w, r, http.StatusInternalServerError, "search failed")
		return
	}

	if isHTMX(r) {
		var b strings.Builder
		for _, n := range names {
			b.WriteString(`<option value="` + template.HTMLEscapeString(n) + `"></option>`)
		}
		NewHTMXResponse().BodyHTML(b.String()).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// fail writes an error as an HTML fragment for HTMX or a JSON envelope otherwise.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		ErrorResponse(status, message).Write(w)
		return
	}
	writeJSONError(w, status, message)
}
