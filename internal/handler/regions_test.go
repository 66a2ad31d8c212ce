package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imocalc/imocalc/internal/rates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegionHandler(t *testing.T) *RegionHandler {
	t.Helper()

	table, err := rates.Load()
	require.NoError(t, err)

	return NewRegionHandler(table, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegionListReturnsAllRegions(t *testing.T) {
	h := newRegionHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/regions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Regions []struct {
			Code        string `json:"code"`
			Name        string `json:"name"`
			IMTSchedule string `json:"imtSchedule"`
		} `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Regions, 10)

	codes := make(map[string]string, len(resp.Regions))
	for _, r := range resp.Regions {
		codes[r.Code] = r.IMTSchedule
	}
	assert.Equal(t, "mainland", codes["lisboa"])
	assert.Equal(t, "islands", codes["madeira"])
	assert.Equal(t, "islands", codes["acores"])
}

func TestRegionGetReturnsRatesAndSchedule(t *testing.T) {
	h := newRegionHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/regions/porto", nil)
	req.SetPathValue("code", "porto")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Region struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"region"`
		IMTSchedule []struct {
			Rate json.Number `json:"rate"`
		} `json:"imtSchedule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "porto", resp.Region.Code)
	assert.Equal(t, "Porto", resp.Region.Name)
	assert.NotEmpty(t, resp.IMTSchedule)
}

func TestRegionGetUnknownCodeReturns404(t *testing.T) {
	h := newRegionHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/regions/atlantis", nil)
	req.SetPathValue("code", "atlantis")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "atlantis")
}
