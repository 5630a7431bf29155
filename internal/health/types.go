// Package health computes a 0-100 composite health score for a classified
// project. Scoring is a pure function of the gathered listing: no I/O, no
// randomness, no wall clock, so identical inputs always produce identical
// reports.
package health

// Metric names for the six sub-scores.
const (
	MetricCodeQuality   = "code-quality"
	MetricDocumentation = "documentation"
	MetricTesting       = "testing"
	MetricDependencies  = "dependencies"
	MetricSecurity      = "security"
	MetricPerformance   = "performance"
)

// Issue severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Issue is one human-readable finding tied to a sub-metric.
type Issue struct {
	Metric   string `json:"metric"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Report is the scoring output for one project.
type Report struct {
	// Overall is the weighted composite, rounded to an integer 0-100.
	Overall int `json:"overall"`

	// Subscores maps metric name to its 0-100 value.
	Subscores map[string]int `json:"subscores"`

	// Issues are the findings behind each depressed sub-score.
	Issues []Issue `json:"issues"`
}

// Weights is the sub-metric weight vector. The weights must sum to 1.0;
// config validation enforces it.
type Weights struct {
	CodeQuality   float64 `mapstructure:"code_quality" json:"code_quality"`
	Documentation float64 `mapstructure:"documentation" json:"documentation"`
	Testing       float64 `mapstructure:"testing" json:"testing"`
	Dependencies  float64 `mapstructure:"dependencies" json:"dependencies"`
	Security      float64 `mapstructure:"security" json:"security"`
	Performance   float64 `mapstructure:"performance" json:"performance"`
}

// DefaultWeights is the built-in emphasis: correctness signals (tests,
// dependencies, quality) ahead of docs and size heuristics.
var DefaultWeights = Weights{
	CodeQuality:   0.20,
	Documentation: 0.15,
	Testing:       0.20,
	Dependencies:  0.20,
	Security:      0.15,
	Performance:   0.10,
}

// Sum returns the total of the weight vector.
func (w Weights) Sum() float64 {
	return w.CodeQuality + w.Documentation + w.Testing + w.Dependencies + w.Security + w.Performance
}
