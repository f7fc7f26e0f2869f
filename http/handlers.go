package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"revcast/db"
	"revcast/ml"
	"revcast/monitoring"
)

const predictionCacheSize = 256

// App wires the session-scoped state into the handlers: the artifact
// snapshot store, the live feed hub, the stats tracker and the result
// cache. Nothing here is ambient package state.
type App struct {
	store   *ml.ArtifactStore
	hub     *Hub
	tracker *monitoring.PredictionTracker
	cache   *lru.Cache[string, float64]
	logger  *zap.Logger

	// swappable for tests
	savePrediction   func(inputs map[string]float64, revenue float64, at time.Time) error
	queryPredictions func(limit int) ([]db.PredictionRecord, error)
}

// NewApp builds the handler context around a loaded artifact store.
func NewApp(store *ml.ArtifactStore, hub *Hub, tracker *monitoring.PredictionTracker, logger *zap.Logger) (*App, error) {
	cache, err := lru.New[string, float64](predictionCacheSize)
	if err != nil {
		return nil, err
	}
	return &App{
		store:            store,
		hub:              hub,
		tracker:          tracker,
		cache:            cache,
		logger:           logger,
		savePrediction:   db.SavePrediction,
		queryPredictions: db.QueryPredictions,
	}, nil
}

// RegisterRoutes 注册所有处理器
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/form", a.handleForm)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/history", a.handleHistory)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	if a.hub != nil {
		mux.HandleFunc("GET /api/ws/live", a.hub.HandleWebSocket)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (a *App) handleForm(w http.ResponseWriter, r *http.Request) {
	snapshot := a.store.Snapshot()
	respondJSON(w, map[string]interface{}{
		"fields":        FormFields(snapshot.Means),
		"feature_count": len(snapshot.Features),
	})
}

type predictRequest struct {
	Inputs map[string]float64 `json:"inputs"`
}

type predictResponse struct {
	Revenue   float64   `json:"revenue"`
	Formatted string    `json:"formatted"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	overrides := filterOverrides(req.Inputs)
	if err := validateInputs(overrides); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, version := a.store.SnapshotVersion()
	vector := ml.BuildVector(snapshot.Features, snapshot.Means, overrides)

	start := time.Now()
	key := strconv.FormatUint(version, 10) + "|" + vectorKey(vector)
	revenue, cached := a.cache.Get(key)
	if !cached {
		var err error
		revenue, err = snapshot.Model.Predict(vector)
		if err != nil {
			a.tracker.RecordFailure()
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.cache.Add(key, revenue)
	}
	latency := time.Since(start)

	now := time.Now()
	a.tracker.RecordSuccess(revenue, latency)

	if a.savePrediction != nil {
		if err := a.savePrediction(overrides, revenue, now); err != nil {
			a.logger.Warn("failed to record prediction", zap.Error(err))
		}
	}

	formatted := FormatUSD(revenue)
	if a.hub != nil {
		a.hub.BroadcastPrediction(PredictionEvent{
			Revenue:   revenue,
			Formatted: formatted,
			Inputs:    overrides,
			Timestamp: now,
		})
	}

	respondJSON(w, predictResponse{
		Revenue:   revenue,
		Formatted: formatted,
		Timestamp: now,
	})
}

const historyLimitMax = 500

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > historyLimitMax {
		limit = historyLimitMax
	}

	records, err := a.queryPredictions(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
	})
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, a.tracker.Snapshot())
}

var usdPrinter = message.NewPrinter(language.English)

// FormatUSD renders a revenue amount as a currency string with two
// decimal places and locale grouping.
func FormatUSD(v float64) string {
	return usdPrinter.Sprintf("$%.2f", v)
}

// vectorKey is the cache key for one complete feature vector. Identical
// vectors always produce identical predictions since the model is
// immutable for the session.
func vectorKey(vector []float64) string {
	var sb strings.Builder
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
