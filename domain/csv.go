package domain

import (
	"encoding/csv"
	"io"
	"time"
)

var csvHeader = []string{"domain", "status", "registrar", "expiry", "checked_at"}

// WriteCSV 导出结果，空的 registrar/expiry 写成空串。
func WriteCSV(w io.Writer, results []CheckResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{
			r.Domain,
			string(r.Status),
			deref(r.Registrar),
			deref(r.Expiry),
			r.CheckedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
