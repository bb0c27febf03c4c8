// Package monitor serves the screening history over HTTP and plots session
// timelines for offline review.
package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/banshee-data/thermal.screen/internal/db"
	"github.com/banshee-data/thermal.screen/internal/httputil"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
)

// ScreeningStore is the read side of the screening database.
type ScreeningStore interface {
	RecentScreenings(ctx context.Context, limit int) ([]db.ScreeningEvent, error)
	GetScreening(ctx context.Context, id uuid.UUID) (*db.ScreeningEvent, error)
	ListScreeningsBySession(ctx context.Context, sessionID uuid.UUID) ([]db.ScreeningEvent, error)
}

const (
	defaultListLimit = 100
	maxListLimit     = 5000
)

// Handlers serves the screening API and debug charts.
type Handlers struct {
	store ScreeningStore
	// AssetsHost overrides where the chart pages load echarts from.
	AssetsHost string
}

func NewHandlers(store ScreeningStore) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes mounts:
//
//	GET /api/screenings                   recent screenings (?limit=N)
//	GET /api/screenings/{id}              one screening
//	GET /api/sessions/{id}/screenings     a session's screenings
//	GET /debug/screenings/chart           sample vs reference chart (?limit=N)
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/screenings", h.handleList)
	mux.HandleFunc("GET /api/screenings/{id}", h.handleGet)
	mux.HandleFunc("GET /api/sessions/{id}/screenings", h.handleSession)
	mux.HandleFunc("GET /debug/screenings/chart", h.handleChart)
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := listLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	events, err := h.store.RecentScreenings(r.Context(), limit)
	if err != nil {
		monitoring.Opsf("[Monitor] Failed to list screenings: %v", err)
		httputil.InternalServerError(w, "failed to list screenings")
		return
	}
	if events == nil {
		events = []db.ScreeningEvent{}
	}
	httputil.WriteJSONOK(w, events)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.BadRequest(w, "invalid screening id")
		return
	}
	e, err := h.store.GetScreening(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "screening not found")
		return
	}
	if err != nil {
		monitoring.Opsf("[Monitor] Failed to get screening %s: %v", id, err)
		httputil.InternalServerError(w, "failed to get screening")
		return
	}
	httputil.WriteJSONOK(w, e)
}

func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.BadRequest(w, "invalid session id")
		return
	}
	events, err := h.store.ListScreeningsBySession(r.Context(), id)
	if err != nil {
		monitoring.Opsf("[Monitor] Failed to list session %s: %v", id, err)
		httputil.InternalServerError(w, "failed to list session screenings")
		return
	}
	if events == nil {
		events = []db.ScreeningEvent{}
	}
	httputil.WriteJSONOK(w, events)
}

// handleChart renders the recent forehead samples against the calibration
// reference and the frame threshold, oldest first.
func (h *Handlers) handleChart(w http.ResponseWriter, r *http.Request) {
	limit, err := listLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	events, err := h.store.RecentScreenings(r.Context(), limit)
	if err != nil {
		monitoring.Opsf("[Monitor] Failed to list screenings for chart: %v", err)
		httputil.InternalServerError(w, "failed to list screenings")
		return
	}

	x := make([]string, len(events))
	samples := make([]opts.LineData, len(events))
	refs := make([]opts.LineData, len(events))
	thresholds := make([]opts.LineData, len(events))
	for i := range events {
		e := events[len(events)-1-i]
		x[i] = e.CapturedAt.Local().Format("01-02 15:04:05")
		samples[i] = opts.LineData{Value: e.SampleValue}
		refs[i] = opts.LineData{Value: e.ReferenceValue}
		thresholds[i] = opts.LineData{Value: e.Threshold}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Screenings", Width: "100%", Height: "640px", AssetsHost: h.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Forehead Samples", Subtitle: fmt.Sprintf("n=%d as of %s", len(events), time.Now().Format(time.RFC3339))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sensor value", Scale: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("sample", samples).
		AddSeries("reference", refs).
		AddSeries("threshold", thresholds, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	page := components.NewPage()
	if h.AssetsHost != "" {
		page.SetAssetsHost(h.AssetsHost)
	}
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func listLimit(r *http.Request) (int, error) {
	limit, err := httputil.QueryInt(r, "limit", defaultListLimit)
	if err != nil {
		return 0, err
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
