package aggregator

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testReport() *Report {
	delta := 10.0

	return &Report{
		Rows: []Row{
			{
				Date:        "2024-01-01",
				ReservoirID: "SHASTA",
				StorageTAF:  1000.5,
				StorageAF:   1000500,
				DeltaTAF:    nil,
				PctOfTotal:  100.0,
				TotalTAF:    1000.5,
				TotalAF:     1000500,
			},
			{
				Date:        "2024-01-02",
				ReservoirID: "SHASTA",
				StorageTAF:  1010.5,
				StorageAF:   1010500,
				DeltaTAF:    &delta,
				PctOfTotal:  100.0,
				TotalTAF:    1010.5,
				TotalAF:     1010500,
			},
		},
	}
}

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{OutputDir: dir}, nil, zap.NewNop().Sugar())

	report := testReport()
	require.NoError(t, w.Write(report))

	t.Run("CSV file", func(t *testing.T) {
		f, err := os.Open(filepath.Join(dir, ReportCSVName))
		require.NoError(t, err)
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, reportHeader, records[0])
		assert.Equal(t, []string{
			"2024-01-01", "SHASTA", "1000.5", "1000500", "", "100", "1000.5", "1000500",
		}, records[1])
		assert.Equal(t, []string{
			"2024-01-02", "SHASTA", "1010.5", "1010500", "10", "100", "1010.5", "1010500",
		}, records[2])
	})

	t.Run("JSON file", func(t *testing.T) {
		body, err := os.ReadFile(filepath.Join(dir, ReportJSONName))
		require.NoError(t, err)

		var rows []Row
		require.NoError(t, json.Unmarshal(body, &rows))
		assert.Equal(t, report.Rows, rows)
	})

	t.Run("no leftover temp files", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestWriterWriteOverwritesPreviousFlush(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{OutputDir: dir}, nil, zap.NewNop().Sugar())

	require.NoError(t, w.Write(testReport()))

	smaller := &Report{Rows: testReport().Rows[:1]}
	require.NoError(t, w.Write(smaller))

	f, err := os.Open(filepath.Join(dir, ReportCSVName))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWriterWriteCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(WriterConfig{OutputDir: dir}, nil, zap.NewNop().Sugar())

	require.NoError(t, w.Write(testReport()))

	_, err := os.Stat(filepath.Join(dir, ReportJSONName))
	assert.NoError(t, err)
}
