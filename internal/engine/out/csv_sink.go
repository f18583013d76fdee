package out

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/chenzhangda16/payments-engine/internal/engine/account"
)

var ReportHeader = []string{"client", "available", "held", "total", "locked"}

// CSVSink writes the report as CSV, amounts with exactly four decimals.
type CSVSink struct {
	w    io.Writer
	path string
}

func NewCSVSink(w io.Writer) *CSVSink { return &CSVSink{w: w} }

// NewCSVFileSink writes to path. The file is created by Emit and only appears
// once the report is complete; a run that never emits leaves no file.
func NewCSVFileSink(path string) *CSVSink { return &CSVSink{path: path} }

func (s *CSVSink) Emit(ctx context.Context, snaps []account.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return WriteCSV(s.w, snaps)
	}

	f, err := createAtomic(s.path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteCSV(f, snaps); err != nil {
		f.abort()
		return err
	}
	return f.Close()
}

func (s *CSVSink) Close() error { return nil }

func WriteCSV(w io.Writer, snaps []account.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return err
	}
	for _, s := range snaps {
		rec := []string{
			strconv.FormatUint(uint64(s.Client), 10),
			s.Available.StringFixed(),
			s.Held.StringFixed(),
			s.Total.StringFixed(),
			strconv.FormatBool(s.Locked),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write client %d: %w", s.Client, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
