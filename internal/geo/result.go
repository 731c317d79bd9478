package geo

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tbckr/netgeo/internal/output"
	"github.com/tbckr/netgeo/internal/record"
)

// Result holds the records of one Resolve call, in input order.
type Result struct {
	Inputs  []string
	Records []record.Record
}

// Single returns the only record when exactly one target was requested.
func (r *Result) Single() (record.Record, bool) {
	if len(r.Records) != 1 {
		return record.Record{}, false
	}
	return r.Records[0], true
}

// IsEmpty reports whether the result holds no records.
func (r *Result) IsEmpty() bool { return len(r.Records) == 0 }

// MarshalJSON encodes a single-target result as one object and any other
// result as an array.
func (r *Result) MarshalJSON() ([]byte, error) {
	if rec, ok := r.Single(); ok {
		return json.Marshal(rec)
	}
	if r.Records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Records)
}

// WriteTable renders all records in a single table grouped by input.
// Columns: Input / Field / Value.
func (r *Result) WriteTable(w io.Writer) error {
	var rows [][]string
	for i, rec := range r.Records {
		input := r.input(i)
		for _, f := range rec.Fields() {
			rows = append(rows, []string{input, f.Name, f.Value})
		}
	}
	table := output.NewGroupedWrappingTable(w, 20, 30)
	table.Header([]string{"Input", "Field", "Value"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WriteText writes one tab-separated line per record:
// input, status, country, latitude, longitude.
func (r *Result) WriteText(w io.Writer) error {
	for i, rec := range r.Records {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.input(i), rec.Status, rec.Country, rec.Lat, rec.Long); err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) input(i int) string {
	if i < len(r.Inputs) {
		return r.Inputs[i]
	}
	return r.Records[i].Target
}
