package weather

import (
	"fmt"

	"github.com/i474232898/weather-climatology/internal/common"
)

// DistributionBins is the number of equal-width bins in a frequency distribution.
const DistributionBins = 4

// Variable describes one observed quantity and how to read it from a record.
type Variable struct {
	Name  string
	Unit  string
	Value func(DailyRecord) float64
}

var (
	TemperatureVariable = Variable{
		Name:  "temperature",
		Unit:  "°C",
		Value: func(r DailyRecord) float64 { return r.Temperature },
	}
	PrecipitationVariable = Variable{
		Name:  "precipitation",
		Unit:  " mm",
		Value: func(r DailyRecord) float64 { return r.Precipitation },
	}
	WindVariable = Variable{
		Name:  "wind",
		Unit:  " m/s",
		Value: func(r DailyRecord) float64 { return r.WindSpeed },
	}
)

// Analyze computes the climatology of target's calendar day over series.
// The year of target is ignored. An empty match yields null statistics, not an error.
func Analyze(series DailySeries, target Date) ForecastResult {
	matched := series.SameCalendarDay(target)
	return ForecastResult{
		Temperature:   summarize(matched, TemperatureVariable),
		Precipitation: summarize(matched, PrecipitationVariable),
		Wind:          summarize(matched, WindVariable),
	}
}

func summarize(records []DailyRecord, v Variable) VariableStats {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		values = append(values, v.Value(r))
	}

	if len(values) == 0 {
		return VariableStats{
			Distribution: NewDistribution(),
			Samples:      values,
		}
	}

	lo, hi := minMax(values)
	var sum float64
	for _, x := range values {
		sum += x
	}

	return VariableStats{
		Min:          common.Ptr(lo),
		Max:          common.Ptr(hi),
		Avg:          common.Ptr(sum / float64(len(values))),
		Distribution: FrequencyDistribution(values, v.Unit),
		Samples:      values,
	}
}

// FrequencyDistribution buckets values into DistributionBins equal-width bins
// spanning [min, max]. Bins 0..n-2 are half-open [lo, hi); the last bin is
// closed so the maximum is always counted. Each value goes to the first bin
// that accepts it. Percentages are rounded to one decimal and bins rounding to
// zero are left out; the denominator is always len(values).
func FrequencyDistribution(values []float64, unit string) *Distribution {
	if len(values) < 2 {
		return sentinelDistribution(LabelNotEnoughData)
	}

	lo, hi := minMax(values)
	if lo == hi {
		return sentinelDistribution(LabelAllSame)
	}

	edges := binEdges(lo, hi)
	counts := binCounts(values, edges)

	total := float64(len(values))
	dist := NewDistribution()
	for i, c := range counts {
		pct := common.RoundTo(float64(c)/total*100, 1)
		if pct > 0 {
			dist.Set(binLabel(edges[i], edges[i+1], unit), pct)
		}
	}
	return dist
}

func binEdges(lo, hi float64) []float64 {
	width := (hi - lo) / DistributionBins
	edges := make([]float64, DistributionBins+1)
	for i := 0; i < DistributionBins; i++ {
		edges[i] = lo + float64(i)*width
	}
	edges[DistributionBins] = hi
	return edges
}

func binCounts(values, edges []float64) []int {
	counts := make([]int, DistributionBins)
	last := DistributionBins - 1
	for _, v := range values {
		for i := 0; i < DistributionBins; i++ {
			lower, upper := edges[i], edges[i+1]
			if i == last {
				if v >= lower && v <= upper {
					counts[i]++
					break
				}
			} else if v >= lower && v < upper {
				counts[i]++
				break
			}
		}
	}
	return counts
}

func binLabel(lower, upper float64, unit string) string {
	return fmt.Sprintf("%.2f - %.2f%s", lower, upper, unit)
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
