package doselog

import (
	"time"

	"github.com/sernyl/doselog-api/dosing"
)

// UnitTotals keeps the two unit families apart: summing mg into ml would be
// meaningless.
type UnitTotals struct {
	Mg float64 `json:"mg,omitempty"`
	Ml float64 `json:"ml,omitempty"`
}

func (t *UnitTotals) add(amount float64, unit dosing.Unit) {
	if unit == dosing.UnitMl {
		t.Ml += amount
	} else {
		t.Mg += amount
	}
}

// Stats summarizes a filtered view of the log.
type Stats struct {
	Entries       int                              `json:"entries"`
	Tally         map[string]map[string]UnitTotals `json:"tally"` // substance -> route -> totals
	Total         UnitTotals                       `json:"total"`
	AverageMg     float64                          `json:"average_mg"`
	MedianMg      float64                          `json:"median_mg"`
	LastDoseAt    *time.Time                       `json:"last_dose_at,omitempty"`
	SinceLastDose string                           `json:"since_last_dose,omitempty"`
}

// Stats computes aggregates over the entries selected by the filter.
// Average and median cover the mass-unit entries only; ml amounts appear in
// the tallies and totals.
func (s *Store) Stats(f Filter) Stats {
	entries := s.List(f)

	stats := Stats{
		Entries: len(entries),
		Tally:   make(map[string]map[string]UnitTotals),
	}
	if len(entries) == 0 {
		return stats
	}

	var massEntries []Entry
	var lastDose time.Time

	for _, e := range entries {
		routes, ok := stats.Tally[e.Record.Substance]
		if !ok {
			routes = make(map[string]UnitTotals)
			stats.Tally[e.Record.Substance] = routes
		}
		totals := routes[e.Record.Route]
		totals.add(e.Record.Amount, e.Record.Unit)
		routes[e.Record.Route] = totals

		stats.Total.add(e.Record.Amount, e.Record.Unit)

		if e.Record.Unit != dosing.UnitMl {
			massEntries = append(massEntries, e)
		}
		if e.CreatedAt.After(lastDose) {
			lastDose = e.CreatedAt
		}
	}

	if len(massEntries) > 0 {
		var sum float64
		for _, e := range massEntries {
			sum += e.Record.Amount
		}
		stats.AverageMg = sum / float64(len(massEntries))

		amounts := sortedAmounts(massEntries)
		mid := len(amounts) / 2
		if len(amounts)%2 == 1 {
			stats.MedianMg = amounts[mid]
		} else {
			stats.MedianMg = (amounts[mid-1] + amounts[mid]) / 2
		}
	}

	if !lastDose.IsZero() {
		stats.LastDoseAt = &lastDose
		stats.SinceLastDose = s.now().Sub(lastDose).Round(time.Minute).String()
	}

	return stats
}
