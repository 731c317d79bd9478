// Package record defines the lookup record returned for every resolved target.
package record

import (
	"encoding/json"
	"sort"
)

// Field names used by the NetGeo service.
const (
	FieldTarget      = "TARGET"
	FieldStatus      = "STATUS"
	FieldCountry     = "COUNTRY"
	FieldLat         = "LAT"
	FieldLong        = "LONG"
	FieldLatLongGran = "LAT_LONG_GRAN"
)

// Status values set by the client itself. The server may also return free text.
const (
	StatusInputError    = "INPUT_ERROR"
	StatusHTTPError     = "HTTP_ERROR"
	StatusNoMatch       = "NO MATCH"
	StatusNoCountry     = "NO_COUNTRY"
	StatusLimitExceeded = "NETGEO_LIMIT_EXCEEDED"
	StatusEmptyContent  = "Empty content string"
	StatusUnrecognized  = "UNRECOGNIZED_RESPONSE"
)

// Record is the resolved result for one target. Fields the client knows about
// have named slots; any other field sent by the server is kept verbatim in Extra.
// An empty string means the field is absent.
type Record struct {
	Target      string
	Status      string
	Country     string
	Lat         string
	Long        string
	LatLongGran string
	Extra       map[string]string
}

// Field is a single name/value pair of a record.
type Field struct {
	Name  string
	Value string
}

// knownFields lists the named fields in display order.
var knownFields = []string{FieldTarget, FieldStatus, FieldCountry, FieldLat, FieldLong, FieldLatLongGran}

// New returns a record with only TARGET and STATUS set.
func New(target, status string) Record {
	return Record{Target: target, Status: status}
}

// Set stores value under field, routing known field names to their slot.
func (r *Record) Set(field, value string) {
	switch field {
	case FieldTarget:
		r.Target = value
	case FieldStatus:
		r.Status = value
	case FieldCountry:
		r.Country = value
	case FieldLat:
		r.Lat = value
	case FieldLong:
		r.Long = value
	case FieldLatLongGran:
		r.LatLongGran = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[field] = value
	}
}

// Get returns the value stored under field and whether it is present.
func (r *Record) Get(field string) (string, bool) {
	var v string
	switch field {
	case FieldTarget:
		v = r.Target
	case FieldStatus:
		v = r.Status
	case FieldCountry:
		v = r.Country
	case FieldLat:
		v = r.Lat
	case FieldLong:
		v = r.Long
	case FieldLatLongGran:
		v = r.LatLongGran
	default:
		v = r.Extra[field]
	}
	return v, v != ""
}

// HasTarget reports whether the record carries a TARGET field. Records built
// from malformed server replies may not.
func (r *Record) HasTarget() bool { return r.Target != "" }

// IsEmpty reports whether no field is set.
func (r *Record) IsEmpty() bool { return len(r.Fields()) == 0 }

// Fields returns all present fields: known fields first in a fixed order,
// then server-supplied extras sorted by name.
func (r *Record) Fields() []Field {
	fields := make([]Field, 0, len(knownFields)+len(r.Extra))
	for _, name := range knownFields {
		if v, ok := r.Get(name); ok {
			fields = append(fields, Field{Name: name, Value: v})
		}
	}
	names := make([]string, 0, len(r.Extra))
	for name, v := range r.Extra {
		if v != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, Field{Name: name, Value: r.Extra[name]})
	}
	return fields
}

// MarshalJSON encodes the record as a flat object keyed by field name.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := r.Fields()
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a flat field-name object into the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = Record{}
	for k, v := range m {
		r.Set(k, v)
	}
	return nil
}
