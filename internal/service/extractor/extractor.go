// Package extractor turns uploaded attendance files into raw rows, one
// implementation per source layout.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/attendance"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/spreadsheet"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// File is an uploaded workbook.
type File struct {
	Name string
	Data []byte
}

type Result struct {
	Rows    []attendance.RawRow
	Skipped int
	Issues  []attendance.Issue
}

func (r *Result) skip(row int, reason string) {
	r.Skipped++
	r.Issues = append(r.Issues, attendance.Issue{Row: row, Reason: reason})
}

// Extractor reads one declared file layout. A layout mismatch fails the whole file;
// bad rows are skipped and reported in Result.
type Extractor interface {
	Format() attendance.Format
	Extract(ctx context.Context, file File) (Result, error)
}

// Registry dispatches files to the extractor of their declared format.
type Registry struct {
	extractors map[attendance.Format]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[attendance.Format]Extractor, len(extractors))}
	for _, e := range extractors {
		r.extractors[e.Format()] = e
	}
	return r
}

// NewDefaultRegistry registers every file-based layout.
func NewDefaultRegistry(deviceBName string) *Registry {
	return NewRegistry(
		NewDeviceGrid(),
		NewDeviceTable(deviceBName),
		NewDeviceDump(),
		NewGeneric(),
	)
}

func (r *Registry) Lookup(format attendance.Format) (Extractor, bool) {
	e, ok := r.extractors[format]
	return e, ok
}

func (r *Registry) Extract(ctx context.Context, format attendance.Format, file File) (Result, error) {
	e, ok := r.Lookup(format)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", attendance.ErrUnknownFormat, format)
	}
	res, err := e.Extract(ctx, file)
	if err != nil {
		return Result{}, err
	}
	slog.Info("attendance file extracted",
		"file", file.Name,
		"format", format,
		"rows", len(res.Rows),
		"skipped", res.Skipped,
	)
	return res, nil
}

func openWorkbook(file File) (*spreadsheet.Workbook, error) {
	wb, err := spreadsheet.Open(file.Data, file.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", attendance.ErrUnknownFormat, file.Name, err)
	}
	return wb, nil
}

func missingSheet(name string) error {
	return fmt.Errorf("%w: %q", attendance.ErrMissingSheet, name)
}

func missingColumn(name string) error {
	return fmt.Errorf("%w: %q", attendance.ErrMissingColumn, name)
}

// headerIndex maps each header cell to its column. keyFn normalizes the header text.
func headerIndex(header []string, keyFn func(string) string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		k := keyFn(strings.TrimSpace(h))
		if k == "" {
			continue
		}
		if _, dup := idx[k]; !dup {
			idx[k] = i
		}
	}
	return idx
}

func requireColumns(idx map[string]int, cols ...string) error {
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			return missingColumn(c)
		}
	}
	return nil
}

func clockPtr(v string) *timeparse.Clock {
	c, ok := timeparse.ParseClock(v)
	if !ok {
		return nil
	}
	return &c
}

func clockKey(c *timeparse.Clock) string {
	if c == nil {
		return ""
	}
	return c.String()
}

// dedupe keeps the first of identical rows, keyed by identity, date, in and out.
type dedupe map[string]struct{}

func (d dedupe) seen(row attendance.RawRow) bool {
	id := row.EmployeeID
	if id == "" {
		id = row.Device + "/" + row.DeviceLocalID
	}
	key := strings.Join([]string{id, row.Date.Format("2006-01-02"), clockKey(row.In), clockKey(row.Out)}, "|")
	if _, ok := d[key]; ok {
		return true
	}
	d[key] = struct{}{}
	return false
}
