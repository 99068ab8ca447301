package usage

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the usage count distribution of a report.
type Summary struct {
	Targets int     `json:"targets" toon:"targets" yaml:"targets"`
	Used    int     `json:"used" toon:"used" yaml:"used"`
	Unused  int     `json:"unused" toon:"unused" yaml:"unused"`
	Calls   int     `json:"calls" toon:"calls" yaml:"calls"`
	Mean    float64 `json:"mean" toon:"mean" yaml:"mean"`
	Median  float64 `json:"median" toon:"median" yaml:"median"`
	StdDev  float64 `json:"std_dev" toon:"std_dev" yaml:"std_dev"`
	Max     int     `json:"max" toon:"max" yaml:"max"`
}

// Summarize computes the distribution of usage counts. calls is the number of
// call sites in the snapshot the report was built from.
func (r *Report) Summarize(calls int) Summary {
	s := Summary{
		Targets: len(r.Usages),
		Used:    r.UsedCount(),
		Calls:   calls,
	}
	s.Unused = s.Targets - s.Used
	if s.Targets == 0 {
		return s
	}

	counts := make([]float64, len(r.Usages))
	for i, u := range r.Usages {
		counts[i] = float64(u.Count())
		if u.Count() > s.Max {
			s.Max = u.Count()
		}
	}
	sort.Float64s(counts)

	s.Mean = stat.Mean(counts, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, counts, nil)
	if len(counts) > 1 {
		s.StdDev = stat.StdDev(counts, nil)
	}
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}
