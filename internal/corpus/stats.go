package corpus

import "math"

// SeriesStats are descriptive statistics over a set of rows. Pure data
// reduction; no model calls happen here.
type SeriesStats struct {
	Count         int     `json:"count"`
	YearMin       int     `json:"year_min,omitempty"`
	YearMax       int     `json:"year_max,omitempty"`
	EarliestValue float64 `json:"earliest_value"`
	LatestValue   float64 `json:"latest_value"`
	MinValue      float64 `json:"min_value"`
	MaxValue      float64 `json:"max_value"`
	MeanValue     float64 `json:"mean_value"`
	Delta         float64 `json:"delta"`                 // latest - earliest
	GrowthRatePct float64 `json:"growth_rate_pct"`       // compound annual, percent
	HasGrowthRate bool    `json:"has_growth_rate"`       // false when undefined
	Unit          string  `json:"unit,omitempty"`
}

// Stats reduces rows to descriptive statistics. Rows without a year still
// contribute to min/max/mean; earliest/latest/delta/growth need years.
func Stats(rows []Row) SeriesStats {
	s := SeriesStats{Count: len(rows)}
	if len(rows) == 0 {
		return s
	}

	s.MinValue = math.Inf(1)
	s.MaxValue = math.Inf(-1)
	var sum float64
	for _, r := range rows {
		if r.Value < s.MinValue {
			s.MinValue = r.Value
		}
		if r.Value > s.MaxValue {
			s.MaxValue = r.Value
		}
		sum += r.Value
		if s.Unit == "" && r.Unit != "" {
			s.Unit = r.Unit
		}

		if r.Year == 0 {
			continue
		}
		if s.YearMin == 0 || r.Year < s.YearMin {
			s.YearMin = r.Year
			s.EarliestValue = r.Value
		}
		if r.Year > s.YearMax {
			s.YearMax = r.Year
			s.LatestValue = r.Value
		}
	}
	s.MeanValue = sum / float64(len(rows))

	if s.YearMin > 0 && s.YearMax > s.YearMin {
		s.Delta = s.LatestValue - s.EarliestValue
		span := float64(s.YearMax - s.YearMin)
		if s.EarliestValue != 0 && s.LatestValue/s.EarliestValue > 0 {
			s.GrowthRatePct = (math.Pow(s.LatestValue/s.EarliestValue, 1/span) - 1) * 100
			s.HasGrowthRate = true
		}
	}
	return s
}
