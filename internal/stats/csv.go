package stats

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{"Tutor", "Message Type", "Count", "Percentage"}

// WriteCSV writes one row per (tutor, tag) in report order. Rows end in CRLF.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range r.Tutors {
		for _, tc := range t.Tags {
			row := []string{t.Name, tc.Tag, strconv.Itoa(tc.Count), FormatPercent(tc.Percent)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func SaveCSV(path string, r *Report) error {
	var b bytes.Buffer
	if err := WriteCSV(&b, r); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}
