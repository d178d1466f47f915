package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader defines the column names written as the first row of any CSV
// export. The order is fixed and matched by spreadsheet templates.
var csvHeader = []string{"Date", "Odo", "Distance", "Amount", "Liters", "Mileage"}

// WriteCSV writes the ledger as CSV in display order (most recent first).
// Numeric columns use the shortest representation that round-trips exactly.
func WriteCSV(w io.Writer, l Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range l.Entries {
		record := []string{
			e.Date,
			formatFloat(e.Odo),
			formatFloat(e.Distance),
			formatFloat(e.Amount),
			formatFloat(e.Liters),
			formatFloat(e.Mileage),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
