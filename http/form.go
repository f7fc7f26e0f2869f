package http

import "fmt"

// FieldSpec describes one numeric input on the form. Min/Max/Step feed
// the widget attributes and the server-side bounds check; Default is the
// feature's historical mean at render time.
type FieldSpec struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max,omitempty"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
	Column  int     `json:"column"`
	Percent bool    `json:"percent"`
}

// The fixed set of metrics exposed on the form. Every other feature the
// model expects is filled from its historical mean. Step sizes are
// cosmetic: coarse for counts, fine for percentages.
var formFields = []FieldSpec{
	{Name: "Views", Label: "Total Views", Step: 1000, Column: 1},
	{Name: "Watch Time (hours)", Label: "Total Watch Time (hours)", Step: 100, Column: 1},
	{Name: "Subscribers", Label: "Total Subscribers", Step: 10, Column: 1},
	{Name: "Video Duration", Label: "Average Video Duration (seconds)", Step: 10, Column: 1},
	{Name: "Likes", Label: "Total Likes", Step: 10, Column: 1},
	{Name: "New Comments", Label: "Total New Comments", Step: 1, Column: 1},
	{Name: "Shares", Label: "Total Shares", Step: 1, Column: 2},
	{Name: "Impressions", Label: "Total Impressions", Step: 1000, Column: 2},
	{Name: "Video Thumbnail CTR (%)", Label: "Video Thumbnail Click-Through Rate (%)", Step: 0.1, Column: 2, Percent: true},
	{Name: "Average View Percentage (%)", Label: "Average View Percentage (%)", Step: 0.1, Column: 2, Percent: true},
	{Name: "Average View Duration", Label: "Average View Duration (seconds)", Step: 10, Column: 2},
}

// FormFields returns the form schema with defaults taken from the means
// mapping. A feature absent from the means defaults to 0.
func FormFields(means map[string]float64) []FieldSpec {
	fields := make([]FieldSpec, len(formFields))
	for i, field := range formFields {
		field.Default = means[field.Name]
		if field.Percent {
			field.Max = 100
		}
		fields[i] = field
	}
	return fields
}

// filterOverrides keeps only the displayed metrics from a raw request
// map. Features the model expects but the form never shows always take
// their historical means, no matter what the request carries.
func filterOverrides(inputs map[string]float64) map[string]float64 {
	overrides := make(map[string]float64, len(inputs))
	for _, field := range formFields {
		if value, ok := inputs[field.Name]; ok {
			overrides[field.Name] = value
		}
	}
	return overrides
}

// validateInputs enforces the form bounds on the server side: nothing
// below 0, percentages capped at 100. Names that are not form fields are
// left alone here; the vector builder drops anything the model does not
// expect.
func validateInputs(inputs map[string]float64) error {
	for _, field := range formFields {
		value, ok := inputs[field.Name]
		if !ok {
			continue
		}
		if value < field.Min {
			return fmt.Errorf("%s must be at least %g", field.Name, field.Min)
		}
		if field.Percent && value > 100 {
			return fmt.Errorf("%s cannot exceed 100", field.Name)
		}
	}
	return nil
}
