package ml

// RegressionModel is a fitted model that maps an ordered feature vector
// to a single predicted value. The vector must follow the column order
// the model was trained with; the model has no notion of column identity
// and cannot detect a reordered vector.
type RegressionModel interface {
	Predict(features []float64) (float64, error)
	Load(path string) error
}
