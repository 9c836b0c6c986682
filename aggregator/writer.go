package aggregator

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// Report file names within the output directory
const (
	ReportCSVName  = "Daily_WML_Report.csv"
	ReportJSONName = "Daily_WML_Report.json"
)

var reportHeader = []string{
	"date", "reservoir_id", "storage_taf", "storage_af",
	"delta_taf", "pct_of_total", "total_taf", "total_af",
}

// WriterConfig represents the config of the Writer
type WriterConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Writer persists a Report as a CSV and a JSON file, and optionally upserts
// the rows into MySQL when a database connection is given
type Writer struct {
	config WriterConfig
	db     *sql.DB
	stmt   *sql.Stmt
	logger *zap.SugaredLogger
}

func (w *Writer) prepareStmt() (*sql.Stmt, error) {
	if w.stmt != nil {
		return w.stmt, nil
	}

	var err error

	sql := "INSERT INTO `daily_wml_report` " +
		"(`date`, `reservoir_id`, `storage_taf`, `storage_af`, `delta_taf`, `pct_of_total`, `total_taf`, `total_af`) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE " +
		"`storage_taf` = VALUES(storage_taf), " +
		"`storage_af` = VALUES(storage_af), " +
		"`delta_taf` = VALUES(delta_taf), " +
		"`pct_of_total` = VALUES(pct_of_total), " +
		"`total_taf` = VALUES(total_taf), " +
		"`total_af` = VALUES(total_af)"

	w.stmt, err = w.db.Prepare(sql)
	if err != nil {
		return nil, fmt.Errorf("Writer: %s", err)
	}

	return w.stmt, nil
}

func (w *Writer) upsert(report *Report) error {
	stmt, err := w.prepareStmt()
	if err != nil {
		return err
	}

	for _, r := range report.Rows {
		_, err := stmt.Exec(
			r.Date, r.ReservoirID, r.StorageTAF, r.StorageAF,
			r.DeltaTAF, r.PctOfTotal, r.TotalTAF, r.TotalAF,
		)
		if err != nil {
			return fmt.Errorf("Writer: %s", err)
		}
	}

	return nil
}

func (w *Writer) encodeCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)
	if err := cw.Write(reportHeader); err != nil {
		return nil, fmt.Errorf("Writer: %s", err)
	}

	for _, r := range report.Rows {
		delta := ""
		if r.DeltaTAF != nil {
			delta = formatFloat(*r.DeltaTAF)
		}

		record := []string{
			r.Date,
			r.ReservoirID,
			formatFloat(r.StorageTAF),
			strconv.FormatInt(r.StorageAF, 10),
			delta,
			formatFloat(r.PctOfTotal),
			formatFloat(r.TotalTAF),
			strconv.FormatInt(r.TotalAF, 10),
		}
		if err := cw.Write(record); err != nil {
			return nil, fmt.Errorf("Writer: %s", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("Writer: %s", err)
	}

	return buf.Bytes(), nil
}

// Write persists the Report. Both files are staged as temp files and
// renamed into place, so readers never observe a half-written flush.
func (w *Writer) Write(report *Report) error {
	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("Writer: %s", err)
	}

	csvBody, err := w.encodeCSV(report)
	if err != nil {
		return err
	}

	jsonBody, err := json.MarshalIndent(report.Rows, "", "  ")
	if err != nil {
		return fmt.Errorf("Writer: %s", err)
	}

	csvPath := filepath.Join(w.config.OutputDir, ReportCSVName)
	jsonPath := filepath.Join(w.config.OutputDir, ReportJSONName)

	if err := w.writeAtomic(csvPath, csvBody); err != nil {
		return err
	}
	if err := w.writeAtomic(jsonPath, jsonBody); err != nil {
		return err
	}

	if w.db != nil {
		if err := w.upsert(report); err != nil {
			return err
		}
	}

	w.logger.Infof("Writer: wrote %s and %s (%d rows)", csvPath, jsonPath, len(report.Rows))

	return nil
}

func (w *Writer) writeAtomic(path string, body []byte) error {
	tmp, err := os.CreateTemp(w.config.OutputDir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("Writer: %s", err)
	}

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("Writer: %s", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("Writer: %s", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("Writer: %s", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewWriter creates a new Writer. db may be nil to disable the MySQL sink.
func NewWriter(config WriterConfig, db *sql.DB, logger *zap.SugaredLogger) *Writer {
	return &Writer{
		config: config,
		db:     db,
		logger: logger,
	}
}
