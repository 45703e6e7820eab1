// Package marketdata loads bar series from CSV files.
package marketdata

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantfox/btcsim/internal/types"
	"github.com/quantfox/btcsim/pkg/errors"
)

// requiredColumns must all appear in the CSV header.
var requiredColumns = []string{"time", "open", "high", "low", "close", "volume"}

// timeLayouts are tried in order when parsing the time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads a bar series from a CSV file. The header selects the
// columns: the six OHLCV columns are required, any further numeric column
// is attached as an indicator, and predicted_direction plus
// prediction_confidence columns become per-bar predictions. The returned
// series is validated for ordering.
func LoadCSV(path string) ([]types.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", path)
	}
	defer file.Close()

	bars, err := ReadBars(file)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse %s", path)
	}

	if err := types.ValidateBars(bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// ReadBars parses CSV bar records from the reader.
func ReadBars(r io.Reader) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to read CSV header", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "CSV is missing required column %q", name)
		}
	}

	var bars []types.Bar

	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to read CSV record at line %d", line+1)
		}

		line++

		bar, err := parseBar(record, header, columns)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "invalid bar at line %d", line)
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func parseBar(record, header []string, columns map[string]int) (types.Bar, error) {
	ts, err := parseTime(record[columns["time"]])
	if err != nil {
		return types.Bar{}, err
	}

	bar := types.Bar{Time: ts}

	fields := map[string]*float64{
		"open":   &bar.Open,
		"high":   &bar.High,
		"low":    &bar.Low,
		"close":  &bar.Close,
		"volume": &bar.Volume,
	}

	for name, target := range fields {
		value, err := strconv.ParseFloat(record[columns[name]], 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "column %q is not numeric", name)
		}

		*target = value
	}

	var direction, confidence *float64

	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		if _, known := fields[lower]; known || lower == "time" {
			continue
		}

		raw := strings.TrimSpace(record[i])
		if raw == "" {
			continue
		}

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		switch lower {
		case "predicted_direction":
			direction = &value
		case "prediction_confidence":
			confidence = &value
		default:
			bar = bar.WithIndicator(types.IndicatorColumn(name), value)
		}
	}

	if direction != nil && confidence != nil {
		parsed := 0

		switch {
		case *direction > 0:
			parsed = 1
		case *direction < 0:
			parsed = -1
		}

		bar.Prediction = optional.Some(types.Prediction{
			Direction:  parsed,
			Confidence: *confidence,
		})
	}

	return bar, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}

	// Fall back to unix seconds.
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}

	return time.Time{}, errors.Newf(errors.ErrCodeDataParseFailed, "unrecognized time value %q", raw)
}
