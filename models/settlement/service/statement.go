package service

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/logiflow/dispatch-backend/pkg/valueobjects"
	"github.com/logiflow/dispatch-backend/types"
)

// RenderStatement writes a settlement as CSV: a summary block, a blank row,
// then one row per item. Amounts are rounded to whole won here and nowhere
// else. Item dates are printed in loc.
func RenderStatement(st *types.Settlement, driverName string, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	summary := [][]string{
		{"Settlement", st.ID},
		{"Driver", driverName},
		{"Month", st.YearMonth},
		{"Source", string(st.Source)},
		{"Status", string(st.Status)},
		{"Total trips", strconv.Itoa(st.TotalTrips)},
		{"Base fare", valueobjects.FormatKRW(st.TotalBaseFare)},
		{"Deductions", valueobjects.FormatKRW(st.TotalDeductions)},
		{"Additions", valueobjects.FormatKRW(st.TotalAdditions)},
		{"Final amount", valueobjects.FormatKRW(st.FinalAmount)},
		{},
		{"Date", "Type", "Description", "Amount"},
	}
	if err := w.WriteAll(summary); err != nil {
		return nil, err
	}

	for _, item := range st.Items {
		if err := w.Write([]string{
			item.Date.In(loc).Format("2006-01-02"),
			string(item.Type),
			item.Description,
			valueobjects.FormatKRW(item.Amount),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
