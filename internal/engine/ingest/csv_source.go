package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chenzhangda16/payments-engine/internal/engine/event"
)

// CSVSource streams records from a CSV document with a
// `type,client,tx,amount` header.
type CSVSource struct {
	r      *csv.Reader
	closer io.Closer
	row    int
}

func NewCSVSource(r io.Reader) *CSVSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &CSVSource{r: cr}
}

// OpenCSVFile opens path. A missing or unreadable file is returned as is, the
// caller treats it as a startup failure.
func OpenCSVFile(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	s := NewCSVSource(f)
	s.closer = f
	return s, nil
}

func (s *CSVSource) Next(ctx context.Context) (event.Tx, error) {
	if err := ctx.Err(); err != nil {
		return event.Tx{}, err
	}

	fields, err := s.r.Read()
	s.row++
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return event.Tx{}, fmt.Errorf("%w: row %d: %v", ErrMalformed, s.row, err)
		}
		if errors.Is(err, io.EOF) {
			return event.Tx{}, io.EOF
		}
		return event.Tx{}, fmt.Errorf("read input row %d: %w", s.row, err)
	}

	if s.row == 1 && isHeader(fields) {
		return s.Next(ctx)
	}

	tx, err := DecodeRow(fields)
	if err != nil {
		return event.Tx{}, fmt.Errorf("row %d: %w", s.row, err)
	}
	return tx, nil
}

func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
