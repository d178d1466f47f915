package ledger

import "sort"

// maxTrendMileage caps the efficiency values charted; readings at or above
// this are treated as entry mistakes and left off the trend.
const maxTrendMileage = 150

// TrendPoint is one charted efficiency reading.
type TrendPoint struct {
	Date    string  `json:"date"`
	Mileage float64 `json:"mileage"`
}

// Trend returns the chart-ready efficiency series: one point per leg with a
// usable mileage (0 < mileage < 150), ordered chronologically by date.
// Entries sharing a date keep their ledger order.
func Trend(l Ledger) []TrendPoint {
	points := make([]TrendPoint, 0, len(l.Entries))
	for i := len(l.Entries) - 1; i >= 0; i-- {
		e := l.Entries[i]
		if e.Mileage > 0 && e.Mileage < maxTrendMileage {
			points = append(points, TrendPoint{Date: e.Date, Mileage: e.Mileage})
		}
	}
	// Dates are YYYY-MM-DD, so lexical order is chronological order.
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}
