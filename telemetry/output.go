package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"inkflow/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir           string
	telemetryFile *os.File
	perfFile      *os.File

	telemetryHeaderWritten bool
	perfHeaderWritten      bool
}

// NewOutputManager creates an output manager rooted at dir. Returns nil if
// dir is empty (output disabled); all methods are nil-safe.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	om.telemetryFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.telemetryFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// WriteConfig saves the resolved configuration as YAML next to the CSVs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteResidual appends one residual sample to telemetry.csv.
func (om *OutputManager) WriteResidual(sample ResidualSample) error {
	if om == nil {
		return nil
	}

	records := []ResidualSample{sample}
	if !om.telemetryHeaderWritten {
		if err := gocsv.Marshal(records, om.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		om.telemetryHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.telemetryFile); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf appends one perf record to perf.csv.
func (om *OutputManager) WritePerf(record PerfRecord) error {
	if om == nil {
		return nil
	}

	records := []PerfRecord{record}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteFrame writes a serialized field snapshot under frames/.
func (om *OutputManager) WriteFrame(name string, tick int, data string) error {
	if om == nil {
		return nil
	}
	dir := filepath.Join(om.dir, "frames")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating frames directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%06d.txt", name, tick))
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close flushes and closes the CSV files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if err := om.telemetryFile.Close(); err != nil {
		firstErr = err
	}
	if err := om.perfFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
