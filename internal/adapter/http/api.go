package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 64 << 10

// PredictionPublisher forwards completed assessments downstream.
type PredictionPublisher interface {
	PublishPrediction(ctx context.Context, event domain.PredictionEvent) error
}

// API serves the dashboard's /api/v1 routes.
type API struct {
	resolver  *domain.Resolver
	predictor domain.Predictor
	fetcher   domain.Fetcher
	publisher PredictionPublisher
	stream    http.Handler
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewAPI wires the location resolver to the inference backend. fetcher
// serves the read-only insight routes and is usually cached.
func NewAPI(resolver *domain.Resolver, predictor domain.Predictor, fetcher domain.Fetcher, metrics *observability.Metrics, logger *slog.Logger) *API {
	return &API{
		resolver:  resolver,
		predictor: predictor,
		fetcher:   fetcher,
		metrics:   metrics,
		logger:    logger,
	}
}

// WithPublisher publishes every successful prediction through p.
func (a *API) WithPublisher(p PredictionPublisher) *API {
	a.publisher = p
	return a
}

// WithStream serves the live alert stream at /api/v1/alerts/stream.
func (a *API) WithStream(h http.Handler) *API {
	a.stream = h
	return a
}

// passThrough lists the backend reads returned to the dashboard unchanged.
var passThrough = []domain.Endpoint{
	domain.EndpointAnalytics,
	domain.EndpointHotspots,
	domain.EndpointSpeciesRisk,
	domain.EndpointTrends,
	domain.EndpointModelInfo,
	domain.EndpointReserves,
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/locations/states", a.handleStates)
	mux.HandleFunc("GET /api/v1/locations/districts", a.handleDistricts)
	mux.HandleFunc("GET /api/v1/locations/reserves", a.handleReserves)
	mux.HandleFunc("GET /api/v1/locations/resolve", a.handleResolve)
	mux.HandleFunc("GET /api/v1/selection/default", a.handleDefaultSelection)
	mux.HandleFunc("POST /api/v1/selection", a.handleSelection)
	mux.HandleFunc("POST /api/v1/predict", a.handlePredict)

	for _, ep := range passThrough {
		mux.HandleFunc("GET /api/v1/"+string(ep), a.handlePassThrough(ep))
	}
	mux.HandleFunc("GET /api/v1/alerts", a.handleAlerts)
	mux.HandleFunc("GET /api/v1/articles", a.handleArticles)
	mux.HandleFunc("GET /api/v1/reports/{type}", a.handleReport)

	if a.stream != nil {
		mux.Handle("GET /api/v1/alerts/stream", a.stream)
	}
}

// --- locations ---

func (a *API) handleStates(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"states": a.resolver.ListStates()})
}

func (a *API) handleDistricts(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		writeError(w, http.StatusBadRequest, errors.New("state query parameter is required"))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"state":     state,
		"districts": a.resolver.ListDistricts(state),
	})
}

func (a *API) handleReserves(w http.ResponseWriter, r *http.Request) {
	district := r.URL.Query().Get("district")
	if district == "" {
		writeError(w, http.StatusBadRequest, errors.New("district query parameter is required"))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"district": district,
		"reserves": a.resolver.ListReserves(district),
	})
}

type resolveResponse struct {
	domain.Coordinate
	Granularity domain.Granularity `json:"granularity"`
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, g := a.resolver.Resolve(q.Get("state"), q.Get("district"), q.Get("reserve"))
	a.metrics.ResolutionsTotal.WithLabelValues(string(g)).Inc()
	sharedobs.WriteJSON(w, http.StatusOK, resolveResponse{Coordinate: c, Granularity: g})
}

func (a *API) handleDefaultSelection(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.resolver.DefaultSelection())
}

// selectionChange is a dropdown edit: which level changed and the form's
// values after the edit.
type selectionChange struct {
	Change   string `json:"change"`
	State    string `json:"state"`
	District string `json:"district"`
	Reserve  string `json:"reserve"`
}

func (a *API) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionChange
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var sel domain.Selection
	switch req.Change {
	case "state":
		sel = a.resolver.CascadeOnStateChange(req.State)
	case "district":
		sel = a.resolver.CascadeOnDistrictChange(req.State, req.District)
	case "reserve":
		sel = a.resolver.CascadeOnReserveChange(req.State, req.District, req.Reserve)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("change must be state, district, or reserve, got %q", req.Change))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sel)
}

// --- prediction ---

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var in domain.PredictionInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := in.Validate(a.resolver); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in.Selection = a.resolver.Normalize(in.Selection)

	result, err := a.predictor.Predict(r.Context(), domain.NewPredictionRequest(in))
	if err != nil {
		a.logger.Error("prediction failed", "state", in.State, "district", in.District, "error", err)
		writeBackendError(w, err)
		return
	}

	assessment := domain.Assess(result, in)
	a.metrics.PredictionsTotal.WithLabelValues(assessment.RiskLevel).Inc()

	if a.publisher != nil {
		// The dashboard still gets its answer when the broker is down.
		if err := a.publisher.PublishPrediction(r.Context(), domain.NewPredictionEvent(in, assessment)); err != nil {
			a.logger.Warn("publish prediction failed", "error", err)
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, assessment)
}

// --- insights ---

func (a *API) handlePassThrough(ep domain.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := a.fetcher.Fetch(r.Context(), ep)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		var st domain.Status
		if json.Unmarshal(body, &st) == nil && st.Err() != nil {
			writeBackendError(w, fmt.Errorf("%s: %w", ep, st.Err()))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	feed, err := domain.Load[domain.AlertFeed](r.Context(), a.fetcher, domain.EndpointAlerts)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	events := make([]domain.AlertEvent, len(feed.Alerts))
	for i, al := range feed.Alerts {
		events[i] = domain.EnrichAlert(al, a.resolver)
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"alerts": events})
}

func (a *API) handleArticles(w http.ResponseWriter, r *http.Request) {
	feed, err := domain.Load[domain.ArticleFeed](r.Context(), a.fetcher, domain.EndpointArticles)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	views := make([]domain.ArticleView, len(feed.Articles))
	for i, art := range feed.Articles {
		views[i] = domain.NewArticleView(art)
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"articles": views})
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseReportKind(r.PathValue("type"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no report named %q", r.PathValue("type")))
		return
	}
	report, err := domain.BuildReport(r.Context(), a.fetcher, kind)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Body))
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// writeBackendError maps validation failures to 400 and everything else to 502.
func writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeError(w, http.StatusBadGateway, err)
}
