package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/pkg/log"
)

const (
	// DayFile is the daily aggregate file of the UCI bike-sharing dataset.
	DayFile = "day.csv"
	// HourFile is the hourly file of the UCI bike-sharing dataset.
	HourFile = "hour.csv"
)

// Load reads a headered CSV file.
func Load(path string) (_ *Table, err error) {
	defer scigoErrors.Recover(&err, "dataset.Load")

	f, err := os.Open(path)
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	return Read(f, path)
}

// LoadDay loads day.csv from dir.
func LoadDay(dir string) (*Table, error) {
	return Load(filepath.Join(dir, DayFile))
}

// LoadHour loads hour.csv from dir.
func LoadHour(dir string) (*Table, error) {
	return Load(filepath.Join(dir, HourFile))
}

// LoadGranularity loads day.csv or hour.csv from dir by name.
func LoadGranularity(dir, granularity string) (*Table, error) {
	switch strings.ToLower(granularity) {
	case "day":
		return LoadDay(dir)
	case "hour":
		return LoadHour(dir)
	default:
		return nil, scigoErrors.NewInvalidParameterError("dataset.LoadGranularity", "granularity", "must be day or hour", granularity)
	}
}

// Read parses a headered CSV stream. name identifies the source in errors
// and logs.
func Read(r io.Reader, name string) (*Table, error) {
	logger := log.GetLoggerWithName("dataset").With(log.ComponentKey, "dataset", log.PathKey, name)
	start := time.Now()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, scigoErrors.Wrapf(scigoErrors.ErrEmptyData, "dataset %s has no header", name)
	}
	if err != nil {
		return nil, parseError(name, err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(name, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, scigoErrors.Wrapf(scigoErrors.ErrEmptyData, "dataset %s has no rows", name)
	}

	t, err := fromRecords(name, header, records)
	if err != nil {
		return nil, err
	}

	logger.Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, t.rows,
		log.FeaturesKey, len(t.columns),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return t, nil
}

func parseError(name string, err error) error {
	var pe *csv.ParseError
	if scigoErrors.As(err, &pe) {
		return scigoErrors.NewValueError("dataset.Read", fmt.Sprintf("%s line %d: %v", name, pe.Line, pe.Err))
	}
	return scigoErrors.Wrapf(err, "read dataset %s", name)
}

func fromRecords(name string, header []string, records [][]string) (*Table, error) {
	t := &Table{
		name:    name,
		columns: make([]string, 0, len(header)),
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
		rows:    len(records),
	}

	for j, raw := range header {
		col := strings.TrimSpace(raw)
		if col == "" {
			return nil, scigoErrors.NewValueError("dataset.Read", fmt.Sprintf("%s: empty column name at position %d", name, j))
		}
		if t.Has(col) {
			return nil, scigoErrors.NewValueError("dataset.Read", fmt.Sprintf("%s: duplicate column %s", name, col))
		}

		cells := make([]string, len(records))
		for i, rec := range records {
			cells[i] = strings.TrimSpace(rec[j])
		}
		if values, ok := parseNumeric(cells); ok {
			t.numeric[col] = values
		} else {
			t.text[col] = cells
		}
		t.columns = append(t.columns, col)
	}
	return t, nil
}

func parseNumeric(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
