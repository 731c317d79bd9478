package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/output"
	"github.com/tbckr/netgeo/internal/record"
)

// GetRecord resolves the full NetGeo record of every input.
func (r *Resolver) GetRecord(ctx context.Context, inputs ...string) (*Result, error) {
	return r.Resolve(ctx, netgeo.MethodRecord, inputs)
}

// Country is the country view of one resolved input.
type Country struct {
	Input   string `json:"input"`
	Target  string `json:"target,omitempty"`
	Country string `json:"country,omitempty"`
	Status  string `json:"status"`
}

// Countries is the result of GetCountry, in input order.
type Countries []Country

// GetCountry resolves the country of every input. Country is empty when the
// server has no country for the target.
func (r *Resolver) GetCountry(ctx context.Context, inputs ...string) (Countries, error) {
	res, err := r.Resolve(ctx, netgeo.MethodCountry, inputs)
	if err != nil {
		return nil, err
	}
	out := make(Countries, len(res.Records))
	for i, rec := range res.Records {
		c := Country{Input: res.input(i), Target: rec.Target, Status: rec.Status}
		if !notFound(rec) {
			c.Country = rec.Country
		}
		out[i] = c
	}
	return out, nil
}

// MarshalJSON encodes a single country as one object and any other count as an array.
func (cs Countries) MarshalJSON() ([]byte, error) {
	if len(cs) == 1 {
		return json.Marshal(cs[0])
	}
	return json.Marshal([]Country(cs))
}

// WriteTable renders one row per input.
func (cs Countries) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.Input, c.Country, c.Status})
	}
	table := output.NewWrappingTable(w, 20, 20)
	table.Header([]string{"Input", "Country", "Status"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WriteText writes "input<TAB>country" per line.
func (cs Countries) WriteText(w io.Writer) error {
	for _, c := range cs {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", c.Input, c.Country); err != nil {
			return err
		}
	}
	return nil
}

// LatLong is the coordinate view of one resolved input.
type LatLong struct {
	Input       string  `json:"input"`
	Target      string  `json:"target,omitempty"`
	Lat         float64 `json:"lat"`
	Long        float64 `json:"long"`
	Granularity string  `json:"granularity,omitempty"`
	Status      string  `json:"status"`
}

// LatLongs is the result of GetLatLong, in input order.
type LatLongs []LatLong

// GetLatLong resolves the coordinates of every input. Coordinates are zero
// when the server has none for the target or sent a value that is not a number.
func (r *Resolver) GetLatLong(ctx context.Context, inputs ...string) (LatLongs, error) {
	res, err := r.Resolve(ctx, netgeo.MethodLatLong, inputs)
	if err != nil {
		return nil, err
	}
	out := make(LatLongs, len(res.Records))
	for i, rec := range res.Records {
		ll := LatLong{Input: res.input(i), Target: rec.Target, Status: rec.Status}
		if !notFound(rec) {
			ll.Lat = parseCoord(rec.Lat)
			ll.Long = parseCoord(rec.Long)
			ll.Granularity = rec.LatLongGran
		}
		out[i] = ll
	}
	return out, nil
}

// MarshalJSON encodes a single position as one object and any other count as an array.
func (ls LatLongs) MarshalJSON() ([]byte, error) {
	if len(ls) == 1 {
		return json.Marshal(ls[0])
	}
	return json.Marshal([]LatLong(ls))
}

// WriteTable renders one row per input.
func (ls LatLongs) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(ls))
	for i := range ls {
		ll := &ls[i]
		rows = append(rows, []string{ll.Input, Lat(ll), Long(ll), ll.Granularity, ll.Status})
	}
	table := output.NewWrappingTable(w, 20, 40)
	table.Header([]string{"Input", "Lat", "Long", "Granularity", "Status"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// WriteText writes "input<TAB>lat<TAB>long" per line.
func (ls LatLongs) WriteText(w io.Writer) error {
	for i := range ls {
		ll := &ls[i]
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", ll.Input, Lat(ll), Long(ll)); err != nil {
			return err
		}
	}
	return nil
}

// Lat formats the latitude with two decimals. A nil position formats as "0.00".
func Lat(ll *LatLong) string {
	if ll == nil {
		return formatCoord(0)
	}
	return formatCoord(ll.Lat)
}

// Long formats the longitude with two decimals. A nil position formats as "0.00".
func Long(ll *LatLong) string {
	if ll == nil {
		return formatCoord(0)
	}
	return formatCoord(ll.Long)
}

func formatCoord(v float64) string { return fmt.Sprintf("%.2f", v) }

func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func notFound(rec record.Record) bool {
	return rec.Status == record.StatusNoMatch || rec.Status == record.StatusNoCountry
}
