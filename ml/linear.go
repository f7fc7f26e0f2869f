package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LinearModel is a regression model fitted offline and persisted as a
// JSON artifact: an intercept plus one coefficient per feature column.
type LinearModel struct {
	intercept    float64
	coefficients []float64
}

type linearModelFile struct {
	ModelType    string    `json:"model_type"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(m.coefficients) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != len(m.coefficients) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(features), len(m.coefficients))
	}
	sum := m.intercept
	for i, c := range m.coefficients {
		sum += c * features[i]
	}
	return sum, nil
}

func (m *LinearModel) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file linearModelFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if file.ModelType != "" && file.ModelType != "linear_regression" {
		return fmt.Errorf("unsupported model type %q", file.ModelType)
	}
	if len(file.Coefficients) == 0 {
		return errors.New("model has no coefficients")
	}
	m.intercept = file.Intercept
	m.coefficients = file.Coefficients
	return nil
}

func (m *LinearModel) Save(path string) error {
	if len(m.coefficients) == 0 {
		return errors.New("model not loaded")
	}
	payload, err := json.Marshal(linearModelFile{
		ModelType:    "linear_regression",
		Intercept:    m.intercept,
		Coefficients: m.coefficients,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// NumFeatures reports the column count the model expects.
func (m *LinearModel) NumFeatures() int {
	return len(m.coefficients)
}
