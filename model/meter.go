package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MeterMap maps canonical counter keys (Z20541, ...) to physical counter IDs.
// Key order follows the JSON document it was decoded from.
type MeterMap struct {
	keys   []string
	values map[string]string
}

// NewMeterMap builds a MeterMap from alternating key, value arguments.
func NewMeterMap(kv ...string) MeterMap {
	var m MeterMap
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set stores v under k. An existing key keeps its position.
func (m *MeterMap) Set(k, v string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

// Get is a case-sensitive lookup.
func (m MeterMap) Get(k string) (string, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (m MeterMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m MeterMap) Len() int { return len(m.keys) }

func (m MeterMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts string and numeric counter IDs. Numbers keep their
// literal text so large IDs never turn into exponent notation. null values
// are skipped.
func (m *MeterMap) UnmarshalJSON(b []byte) error {
	*m = MeterMap{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("meter map: expect object, got %v", tok)
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		switch v := raw.(type) {
		case string:
			m.Set(key, v)
		case json.Number:
			m.Set(key, v.String())
		case bool:
			m.Set(key, strconv.FormatBool(v))
		case nil:
		default:
			return fmt.Errorf("meter map: unsupported value for %s", key)
		}
	}
	_, err = dec.Token()
	return err
}
