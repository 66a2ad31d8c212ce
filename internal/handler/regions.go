package handler

import (
	"log/slog"
	"net/http"

	"github.com/imocalc/imocalc/internal/domain"
	"github.com/imocalc/imocalc/internal/rates"
)

// RegionHandler serves the reference-data endpoints backing the region
// picker and the rate disclosures.
type RegionHandler struct {
	table  *rates.Table
	logger *slog.Logger
}

// NewRegionHandler creates a RegionHandler.
func NewRegionHandler(table *rates.Table, logger *slog.Logger) *RegionHandler {
	return &RegionHandler{
		table:  table,
		logger: logger,
	}
}

// List handles GET /api/v1/regions.
func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"regions": h.table.Regions(),
	})
}

// Get handles GET /api/v1/regions/{code}.
func (h *RegionHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handler.region_get"

	code := domain.RegionCode(r.PathValue("code"))
	region, ok := h.table.Region(code)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "region", string(code)))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"region":      region,
		"imtSchedule": h.table.IMTScheduleFor(region),
	})
}
