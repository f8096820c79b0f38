package model

// Percent returns num/den*100 clamped to [0, 100]. A zero or negative
// denominator yields 0.
func Percent(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	p := float64(num) / float64(den) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Ratio is a covered/total pair with its percentage.
type Ratio struct {
	Total      int     `json:"total" yaml:"total"`
	Covered    int     `json:"covered" yaml:"covered"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// NewRatio builds a Ratio from covered and total counts.
func NewRatio(covered, total int) Ratio {
	return Ratio{Total: total, Covered: covered, Percentage: Percent(covered, total)}
}
