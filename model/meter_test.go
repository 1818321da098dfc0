package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeterMapKeepsDocumentOrder(t *testing.T) {
	var m MeterMap
	err := json.Unmarshal([]byte(`{"Z20542": "B", "Z20141": 12205158, "Z20541": "A", "ZLOGID": 207315038}`), &m)
	require.NoError(t, err)
	require.Equal(t, []string{"Z20542", "Z20141", "Z20541", "ZLOGID"}, m.Keys())

	v, ok := m.Get("Z20141")
	require.True(t, ok)
	require.Equal(t, "12205158", v)

	v, _ = m.Get("ZLOGID")
	require.Equal(t, "207315038", v)

	_, ok = m.Get("z20541")
	require.False(t, ok, "Get is case-sensitive")
}

func TestMeterMapNullAndEmpty(t *testing.T) {
	var m MeterMap
	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	require.Equal(t, 0, m.Len())

	require.NoError(t, json.Unmarshal([]byte(`{"Z20541": null}`), &m))
	require.Equal(t, 0, m.Len())

	require.Error(t, json.Unmarshal([]byte(`["Z20541"]`), &m))
	require.Error(t, json.Unmarshal([]byte(`{"Z20541": {"x": 1}}`), &m))
}

func TestMeterMapMarshalRoundTrip(t *testing.T) {
	m := NewMeterMap("Z20542", "B", "Z20541", "A")
	b, err := json.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, `{"Z20542":"B","Z20541":"A"}`, string(b))

	m.Set("Z20542", "C")
	require.Equal(t, []string{"Z20542", "Z20541"}, m.Keys())
	v, _ := m.Get("Z20542")
	require.Equal(t, "C", v)
}
