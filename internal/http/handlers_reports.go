package http

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"wastelog/internal/core"
)

func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	weekStart, ok, err := dateQuery(r, "week_start")
	if err != nil || !ok {
		badRequest(w, "week_start must be YYYY-MM-DD")
		return
	}

	report, err := s.store.WeeklyReport(r.Context(), weekStart)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if report == nil {
		report = []core.WeeklyRow{}
	}
	respondJSON(w, http.StatusOK, report)
}

// rangeParams parses the start_date/end_date pair shared by the summary and
// export endpoints.
func rangeParams(r *http.Request) (start, end core.Date, err error) {
	start, ok, err := dateQuery(r, "start_date")
	if err != nil || !ok {
		return start, end, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	end, ok, err = dateQuery(r, "end_date")
	if err != nil || !ok {
		return start, end, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := rangeParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	summary, err := s.store.SummaryReport(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if summary.ByItem == nil {
		summary.ByItem = []core.ItemTotal{}
	}
	if summary.ByReason == nil {
		summary.ByReason = []core.ReasonTotal{}
	}
	if summary.ByVendor == nil {
		summary.ByVendor = []core.VendorTotal{}
	}
	respondJSON(w, http.StatusOK, summary)
}

var csvHeader = []string{"Date/Time", "Item", "Vendor", "Quantity", "Reason", "Notes"}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := rangeParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rows, err := s.store.ExportRange(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("wastage_%s_to_%s.csv", start, end)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		slog.ErrorContext(r.Context(), "CSV header write failed", "error", err)
		return
	}
	for _, row := range rows {
		notes := ""
		if row.Notes != nil {
			notes = *row.Notes
		}
		record := []string{
			row.LoggedAt,
			row.ItemName,
			row.VendorName,
			strconv.FormatInt(row.Quantity, 10),
			row.Reason,
			notes,
		}
		if err := cw.Write(record); err != nil {
			slog.ErrorContext(r.Context(), "CSV row write failed", "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV flush failed", "error", err)
	}
}
