package simulator

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/aduval/bessplan/core/model"
)

// WriteCSV writes the series in the planner's input format, so generated
// profiles feed straight back into a plan run.
func WriteCSV(w io.Writer, s model.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "production_kw", "load_kw", "price"}); err != nil {
		return err
	}
	for _, st := range s.Steps {
		rec := []string{
			st.Start.Format(time.RFC3339),
			strconv.FormatFloat(st.ProductionKW, 'f', 3, 64),
			strconv.FormatFloat(st.LoadKW, 'f', 3, 64),
			strconv.FormatFloat(st.Price, 'f', 5, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
