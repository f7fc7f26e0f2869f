package ml

// BuildVector assembles the complete feature vector for one prediction.
// Every feature in order starts at its historical mean (0 when the means
// mapping has no entry), then user overrides replace the mean for any
// feature the model actually expects. Overrides whose name is not in
// order are dropped without error. The result follows order exactly;
// the column sequence is what gives the values meaning to the model.
func BuildVector(order []string, means map[string]float64, overrides map[string]float64) []float64 {
	vector := make([]float64, len(order))
	for i, name := range order {
		value := means[name]
		if v, ok := overrides[name]; ok {
			value = v
		}
		vector[i] = value
	}
	return vector
}

// MeansVector is the all-defaults vector: every feature at its
// historical mean in model order.
func MeansVector(order []string, means map[string]float64) []float64 {
	return BuildVector(order, means, nil)
}
