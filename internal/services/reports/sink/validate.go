// Package sink publishes report rows: CSV files on disk or a ClickHouse table
package sink

import (
	"math"
	"slices"
	"strings"
	"sync"

	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/net/http/bind"
	"storepulse/internal/services/reports/domain"
)

var registerOnce sync.Once

func registerFinite() {
	registerOnce.Do(func() {
		_ = bind.RegisterValidation("finite", func(fl bind.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
		bind.RegisterTagMessage("finite", "{0} must be a finite number")
	})
}

// Prepare scales and validates rows and sorts them by store id
// an empty set or any invalid row fails the whole write
func Prepare(rows []domain.MetricRow) ([]domain.ReportRow, error) {
	if len(rows) == 0 {
		return nil, perr.Validationf("report has no rows")
	}
	out := make([]domain.ReportRow, len(rows))
	for i, r := range rows {
		out[i] = r.Report()
	}
	if err := ValidateRows(out); err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b domain.ReportRow) int { return strings.Compare(a.StoreID, b.StoreID) })
	return out, nil
}

// ValidateRows checks every row against its schema tags
func ValidateRows(rows []domain.ReportRow) error {
	registerFinite()
	for i, r := range rows {
		if err := bind.Struct(r); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeValidation, "row %d (store %q)", i, r.StoreID)
		}
	}
	return nil
}
