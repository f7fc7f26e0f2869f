package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"revcast/db"
	"revcast/ml"
	"revcast/monitoring"
)

type fakeModel struct {
	revenue float64
	err     error
	gotVec  []float64
}

func (f *fakeModel) Predict(features []float64) (float64, error) {
	f.gotVec = append([]float64(nil), features...)
	return f.revenue, f.err
}

func (f *fakeModel) Load(path string) error { return nil }

func newTestApp(t *testing.T, model ml.RegressionModel, features []string, means map[string]float64) *App {
	t.Helper()
	store := ml.NewStaticArtifactStore(&ml.Artifacts{
		Model:    model,
		Features: features,
		Means:    means,
	})
	app, err := NewApp(store, nil, monitoring.NewPredictionTracker(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	app.savePrediction = nil
	app.queryPredictions = func(limit int) ([]db.PredictionRecord, error) {
		return []db.PredictionRecord{}, nil
	}
	return app
}

func postPredict(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	app.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandlePredictAllDefaults(t *testing.T) {
	model := &fakeModel{revenue: 1234.5678}
	app := newTestApp(t, model,
		[]string{"Views", "Subscribers", "Likes"},
		map[string]float64{"Views": 1000, "Subscribers": 50})

	w := postPredict(t, app, `{"inputs":{}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// No edits: the model sees the full means vector in model order.
	if !reflect.DeepEqual(model.gotVec, []float64{1000, 50, 0}) {
		t.Fatalf("unexpected vector: %v", model.gotVec)
	}

	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Revenue != 1234.5678 {
		t.Fatalf("unexpected revenue: %v", payload.Revenue)
	}
	if payload.Formatted != "$1,234.57" {
		t.Fatalf("unexpected formatted amount: %q", payload.Formatted)
	}
}

func TestHandlePredictOverrides(t *testing.T) {
	model := &fakeModel{revenue: 10}
	app := newTestApp(t, model,
		[]string{"Views", "Subscribers", "Likes"},
		map[string]float64{"Views": 1000, "Subscribers": 50})

	w := postPredict(t, app, `{"inputs":{"Views":5000,"Not A Feature":99}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Override replaces the mean; the unknown name is silently dropped.
	if !reflect.DeepEqual(model.gotVec, []float64{5000, 50, 0}) {
		t.Fatalf("unexpected vector: %v", model.gotVec)
	}
}

func TestHandlePredictHiddenFeatureKeepsMean(t *testing.T) {
	model := &fakeModel{revenue: 10}
	app := newTestApp(t, model,
		[]string{"Views", "Month"},
		map[string]float64{"Views": 1000, "Month": 6.48})

	// Month is a model feature but not a form metric. A request naming it
	// directly must not displace the historical mean, and must not sneak
	// past the bounds check either.
	w := postPredict(t, app, `{"inputs":{"Month":-999}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !reflect.DeepEqual(model.gotVec, []float64{1000, 6.48}) {
		t.Fatalf("hidden feature should keep its mean, got vector %v", model.gotVec)
	}
}

func TestHandlePredictModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("feature vector has 2 values, model expects 3")}
	app := newTestApp(t, model, []string{"Views"}, map[string]float64{"Views": 1})

	w := postPredict(t, app, `{"inputs":{}}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "model expects 3") {
		t.Fatalf("model error should be reported verbatim: %s", w.Body.String())
	}

	// The session survives a failed prediction.
	model.err = nil
	model.revenue = 7
	w = postPredict(t, app, `{"inputs":{}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after retry, got %d", w.Code)
	}
}

func TestHandlePredictRejectsOutOfBounds(t *testing.T) {
	app := newTestApp(t, &fakeModel{}, []string{"Views"}, map[string]float64{"Views": 1})

	w := postPredict(t, app, `{"inputs":{"Video Thumbnail CTR (%)":250}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Video Thumbnail CTR") {
		t.Fatalf("error should name the field: %s", w.Body.String())
	}

	w = postPredict(t, app, `{"inputs":{"Views":-10}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlePredictInvalidBody(t *testing.T) {
	app := newTestApp(t, &fakeModel{}, []string{"Views"}, map[string]float64{})

	w := postPredict(t, app, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlePredictCachesByVector(t *testing.T) {
	model := &fakeModel{revenue: 42}
	app := newTestApp(t, model, []string{"Views"}, map[string]float64{"Views": 1})

	postPredict(t, app, `{"inputs":{"Views":10}}`)
	model.gotVec = nil
	w := postPredict(t, app, `{"inputs":{"Views":10}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if model.gotVec != nil {
		t.Fatal("identical vector should be served from cache")
	}
}

func TestHandleHistory(t *testing.T) {
	app := newTestApp(t, &fakeModel{}, []string{"Views"}, map[string]float64{})
	app.queryPredictions = func(limit int) ([]db.PredictionRecord, error) {
		if limit != 5 {
			t.Fatalf("expected limit 5, got %d", limit)
		}
		return []db.PredictionRecord{
			{ID: 1, Inputs: map[string]float64{"Views": 10}, Revenue: 3.5, CreatedAt: time.Now()},
		}, nil
	}

	mux := http.NewServeMux()
	app.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Count != 1 {
		t.Fatalf("expected 1 record, got %d", payload.Count)
	}
}

func TestHandleHistoryCapsLimit(t *testing.T) {
	app := newTestApp(t, &fakeModel{}, []string{"Views"}, map[string]float64{})
	gotLimit := 0
	app.queryPredictions = func(limit int) ([]db.PredictionRecord, error) {
		gotLimit = limit
		return []db.PredictionRecord{}, nil
	}

	mux := http.NewServeMux()
	app.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=100000", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotLimit != historyLimitMax {
		t.Fatalf("expected limit capped at %d, got %d", historyLimitMax, gotLimit)
	}
}
