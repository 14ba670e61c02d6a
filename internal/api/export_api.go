package api

import (
	"bytes"
	"fmt"
	"net/http"

	"bookery/internal/metrics"
	"bookery/internal/timeutil"
)

// handleExportBookings streams a merchant's bookings as an xlsx workbook.
// GET /api/v1/merchants/{merchantID}/bookings/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_bookings")

	merchantID, err := s.merchantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render into memory first so a late failure can still produce a clean
	// error response.
	var buf bytes.Buffer
	if err := s.exports.WriteBookings(r.Context(), &buf, merchantID, from, to); err != nil {
		s.logger.Error().Err(err).Msg("export bookings")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", timeutil.FormatDate(from))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
