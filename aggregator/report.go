package aggregator

import (
	"github.com/shopspring/decimal"
)

// Row is one aggregated (date, reservoir) entry of the daily report
type Row struct {
	Date        string   `json:"date"`
	ReservoirID string   `json:"reservoir_id"`
	StorageTAF  float64  `json:"storage_taf"`
	StorageAF   int64    `json:"storage_af"`
	DeltaTAF    *float64 `json:"delta_taf"`
	PctOfTotal  float64  `json:"pct_of_total"`
	TotalTAF    float64  `json:"total_taf"`
	TotalAF     int64    `json:"total_af"`
}

// Report holds the derived daily rows, ordered by (reservoir ID, date)
type Report struct {
	Rows []Row
}

// Rounds half away from zero. The one rounding rule applied to storage_af,
// delta_taf and pct_of_total.
func roundPlaces(value float64, places int32) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(places).Float64()

	return rounded
}
