package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ObjectSentinel is the counter reference that resolves to the owning
// object's id instead of a meter entry.
const ObjectSentinel = "ZLOGID"

// Object is a monitored building as delivered by the object store.
type Object struct {
	ObjectID int64          `json:"objectid"`
	Name     string         `json:"name,omitempty"`
	Meter    MeterMap       `json:"meter"`
	Report   ExplicitConfig `json:"report,omitempty"`
}

// MarshalJSON leaves out a report that does not count as configured.
func (o Object) MarshalJSON() ([]byte, error) {
	type plain Object
	p := plain(o)
	if !o.Report.Valid() {
		p.Report = nil
	}
	return json.Marshal(p)
}

// Key is the store key of the object.
func (o Object) Key() string {
	return strconv.FormatInt(o.ObjectID, 10)
}

func (o *Object) UnmarshalJSON(b []byte) error {
	var aux struct {
		ObjectID json.Number    `json:"objectid"`
		Name     string         `json:"name"`
		Meter    MeterMap       `json:"meter"`
		Report   ExplicitConfig `json:"report"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	var id int64
	if aux.ObjectID != "" {
		v, err := strconv.ParseInt(aux.ObjectID.String(), 10, 64)
		if err != nil {
			return err
		}
		id = v
	}
	*o = Object{ObjectID: id, Name: aux.Name, Meter: aux.Meter, Report: aux.Report}
	return nil
}
