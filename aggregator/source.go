package aggregator

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Source CSV date layout (MM/DD/YYYY)
const sourceDateLayout = "01/02/2006"

// SourceReading is one row of a reservoir source CSV
type SourceReading struct {
	Date time.Time
	TAF  float64
}

// ReadSourceCSV reads a `Date,TAF` CSV and returns its readings in date
// order. Any malformed row fails the whole file; the caller skips the file
// and continues with the remaining ones.
func ReadSourceCSV(path string) ([]SourceReading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Source: %s", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("Source: %s", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("Source: '%s' is empty", path)
	}

	dateIdx, tafIdx := -1, -1
	for i, column := range records[0] {
		switch strings.TrimSpace(column) {
		case "Date":
			dateIdx = i
		case "TAF":
			tafIdx = i
		}
	}
	if dateIdx < 0 || tafIdx < 0 {
		return nil, fmt.Errorf("Source: '%s' is missing the Date or TAF column", path)
	}

	readings := make([]SourceReading, 0, len(records)-1)
	for _, record := range records[1:] {
		date, err := time.Parse(sourceDateLayout, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("Source: invalid date: %s", err)
		}

		taf, err := strconv.ParseFloat(strings.TrimSpace(record[tafIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("Source: invalid TAF value: %s", err)
		}

		readings = append(readings, SourceReading{Date: date, TAF: taf})
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Date.Before(readings[j].Date)
	})

	return readings, nil
}

// DeriveReservoirID derives a reservoir ID from a source file name: the
// leading run of letters, uppercased ("Shasta_WML(Sample),.csv" → "SHASTA").
func DeriveReservoirID(filename string) (string, error) {
	var b strings.Builder
	for _, r := range filename {
		if !unicode.IsLetter(r) {
			break
		}
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("Source: no reservoir ID in file name '%s'", filename)
	}

	return strings.ToUpper(b.String()), nil
}
