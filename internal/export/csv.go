// Package export serializes entries to and from CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/model"
)

// Header is the fixed CSV column order.
var Header = []string{"Service", "Username", "Password", "URL", "Notes", "Created At", "Updated At"}

// WriteCSV writes a header row followed by one row per entry, secrets in clear.
func WriteCSV(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Service, e.Username, e.Secret, e.URL, e.Notes,
			model.FormatTime(e.CreatedAt), model.FormatTime(e.UpdatedAt),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV. IDs are left zero; empty
// timestamp cells yield zero times for the caller to stamp.
func ReadCSV(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", errs.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", errs.ErrValidation, err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("%w: unexpected csv header %q", errs.ErrValidation, head)
	}

	var out []model.Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", errs.ErrValidation, err)
		}
		line, _ := cr.FieldPos(0)
		created, err := parseCell(rec[5])
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: created at: %v", errs.ErrValidation, line, err)
		}
		updated, err := parseCell(rec[6])
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: updated at: %v", errs.ErrValidation, line, err)
		}
		out = append(out, model.Entry{
			Service:   rec[0],
			Username:  rec[1],
			Secret:    rec[2],
			URL:       rec[3],
			Notes:     rec[4],
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}
}

func parseCell(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseTime(s)
}
