// Package export appends time-series measurements to resumable CSV sinks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"atmo/internal/netatmo"
)

// tailWindow is how many trailing bytes of a sink are scanned for the last
// row; a row is far smaller than this.
const tailWindow = 100

const dateTimeLayout = "2006-01-02 15:04:05"

// StatusError is a measure page reporting a non-"ok" status. Rows written
// before it surfaced stay in the sink.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %q", e.Status)
}

// Fetcher is the one upstream operation the exporter needs. It is
// implemented by *netatmo.Service.
type Fetcher interface {
	Measure(ctx context.Context, req netatmo.MeasureRequest) (*netatmo.MeasurePage, error)
}

// Exporter performs resumable, paginated exports of one station or module.
type Exporter struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates an exporter.
func New(fetcher Fetcher, logger *slog.Logger) *Exporter {
	return &Exporter{
		fetcher: fetcher,
		logger:  logger.With("component", "export"),
	}
}

// LastTimestamp returns the timestamp of the sink's last row, or 0 when the
// sink is missing, empty, or its trailing line does not start with a
// numeric field. The sink content is the only durable cursor, so a
// malformed tail must mean "no resume point", never an error.
func LastTimestamp(path string) int64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return 0
	}

	window := int64(tailWindow)
	if info.Size() < window {
		window = info.Size()
	}
	buf := make([]byte, window)
	if _, err := f.ReadAt(buf, info.Size()-window); err != nil {
		return 0
	}

	lines := strings.Split(strings.TrimRight(string(buf), "\n"), "\n")
	last := lines[len(lines)-1]
	field, _, _ := strings.Cut(last, ";")
	return parseTimestamp(field)
}

func parseTimestamp(field string) int64 {
	if field == "" {
		return 0
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0
		}
	}
	ts, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// Export appends measurements for one station/module to the sink at path,
// resuming after the sink's last row. It requests pages sequentially at
// "max" resolution, beginning each page where the previous one ended, and
// stops on an empty page, on a non-"ok" status, or once the high-water
// mark reaches windowEnd (windowEnd = 0 means no upper bound). The number
// of rows written is returned; rows already written survive any error.
func (e *Exporter) Export(ctx context.Context, path, deviceID, moduleID string, fields []string, windowEnd int64) (int, error) {
	start := LastTimestamp(path)
	if start > 0 {
		start++
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open sink: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat sink: %w", err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(headerRow(fields)); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	rows := 0
	for page := 1; ; page++ {
		e.logger.Info("requesting page",
			"page", page,
			"date_begin", start,
			"device_id", deviceID,
			"module_id", moduleID)

		resp, err := e.fetcher.Measure(ctx, netatmo.MeasureRequest{
			DeviceID:  deviceID,
			ModuleID:  moduleID,
			Scale:     "max",
			Types:     fields,
			DateBegin: start,
		})
		if err != nil {
			return rows, err
		}
		if resp.Status != "ok" {
			return rows, &StatusError{Status: resp.Status}
		}
		if len(resp.Body) == 0 {
			break
		}

		// Pages arrive unsorted; rows must land in ascending order.
		// Entries below the resume point are already in the sink.
		for _, ent := range sortedEntries(resp.Body, e.logger) {
			if ent.ts < start {
				continue
			}
			if _, err := f.WriteString(dataRow(ent.ts, ent.values)); err != nil {
				return rows, fmt.Errorf("failed to append row: %w", err)
			}
			rows++
			if start < ent.ts {
				start = ent.ts
			}
		}

		if windowEnd > 0 && start >= windowEnd {
			break
		}
		start++
	}

	e.logger.Info("export finished", "rows", rows, "high_water", start)
	return rows, nil
}

type entry struct {
	ts     int64
	values []*float64
}

func sortedEntries(body map[string][]*float64, logger *slog.Logger) []entry {
	entries := make([]entry, 0, len(body))
	for key, values := range body {
		ts := parseTimestamp(key)
		if ts == 0 {
			logger.Warn("skipping entry with malformed timestamp", "key", key)
			continue
		}
		entries = append(entries, entry{ts: ts, values: values})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })
	return entries
}

// headerRow quotes every column name, the way the original files were
// written, so resumed sinks stay consistent.
func headerRow(fields []string) string {
	cols := make([]string, 0, len(fields)+2)
	for _, name := range append([]string{"Timestamp", "DateTime"}, fields...) {
		cols = append(cols, `"`+name+`"`)
	}
	return strings.Join(cols, ";") + "\n"
}

// dataRow formats one row: bare integer timestamp, quoted local date/time,
// bare numeric values. Null values become empty fields.
func dataRow(ts int64, values []*float64) string {
	cols := make([]string, 0, len(values)+2)
	cols = append(cols,
		strconv.FormatInt(ts, 10),
		`"`+time.Unix(ts, 0).Format(dateTimeLayout)+`"`)
	for _, v := range values {
		if v == nil {
			cols = append(cols, "")
			continue
		}
		cols = append(cols, strconv.FormatFloat(*v, 'g', -1, 64))
	}
	return strings.Join(cols, ";") + "\n"
}
