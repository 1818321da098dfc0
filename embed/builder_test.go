package embed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/timerange"
)

func testRegistry() *meter.Registry {
	return meter.NewRegistry(207210027, model.NewMeterMap("Z20541", "12205157", "Z20542", "12205158"), nil)
}

func TestBuildEndToEnd(t *testing.T) {
	b := NewBuilder(Options{})
	p := model.Panel{GrafanaBase: "https://graf.example/", Dashboard: "/d-solo/xyz/board", PanelID: "16"}
	cat := timerange.Default(mustYear(2025))

	got := b.Build(p, p.PanelID, "z20541", cat.Resolve("1y/y"), testRegistry())
	require.Equal(t, "https://graf.example/d-solo/xyz/board?orgId=1&from=now-1y/y&to=now-1y/y&panelId=16&var-id=12205157&__feature.dashboardSceneSolo", got)
}

func TestBuildDefaultsAndOptions(t *testing.T) {
	b := NewBuilder(Options{Refresh: true, Kiosk: true})
	p := model.Panel{PanelID: "3", Interval: "&from=now-4d&to=now"}

	got := b.Build(p, p.PanelID, model.ObjectSentinel, timerange.Range{}, testRegistry())
	require.Equal(t, DefaultGrafanaBase+"/"+DefaultDashboard+"?orgId=1&from=now-4d&to=now&panelId=3&var-id=207210027&__feature.dashboardSceneSolo&refresh=1m&kiosk=1", got)

	// selected range wins over the panel interval
	got = b.Build(p, p.PanelID, "12345", timerange.Range{From: "now-7d", To: "now"}, nil)
	require.Contains(t, got, "&from=now-7d&to=now&panelId=3&var-id=12345&")

	// no range and no interval omits from/to, no counter omits var-id
	got = NewBuilder(Options{}).Build(model.Panel{}, "9", "", timerange.Range{}, nil)
	require.Equal(t, DefaultGrafanaBase+"/"+DefaultDashboard+"?orgId=1&panelId=9&__feature.dashboardSceneSolo", got)
}

func TestWithDefaults(t *testing.T) {
	b := NewBuilder(Options{}).WithDefaults("https://other.example", "")
	got := b.Build(model.Panel{}, "1", "7", timerange.Range{}, nil)
	require.Equal(t, "https://other.example/"+DefaultDashboard+"?orgId=1&panelId=1&var-id=7&__feature.dashboardSceneSolo", got)
}

func TestPanelURLs(t *testing.T) {
	b := NewBuilder(Options{})
	p := model.Panel{PanelID: "16", PanelID2: "3", Histogram: []model.FlexString{"4", "5", "7"}}
	urls := b.Panel(p, "Z20541", timerange.Range{}, testRegistry(), true)
	require.Contains(t, urls.Main, "panelId=16&var-id=12205157")
	require.Contains(t, urls.Second, "panelId=3&var-id=12205157")
	require.Empty(t, urls.Third)
	require.Len(t, urls.Histogram, 3)
	require.Contains(t, urls.Histogram[2], "panelId=7&")

	require.Nil(t, b.Panel(p, "Z20541", timerange.Range{}, testRegistry(), false).Histogram)

	p.Histogram = p.Histogram[:2]
	require.Nil(t, b.Panel(p, "Z20541", timerange.Range{}, testRegistry(), true).Histogram)
}

func TestPatchReplacesInPlace(t *testing.T) {
	b := NewBuilder(Options{})
	in := "https://g/d?orgId=1&panelId=16&var-id=111&var-timeDuration=1mo&__feature.dashboardSceneSolo"

	got := b.Patch(in, "Z20542", testRegistry())
	require.Equal(t, "https://g/d?orgId=1&panelId=16&var-id=12205158&var-timeDuration=1mo&__feature.dashboardSceneSolo", got)
	require.Equal(t, got, b.Patch(got, "Z20542", testRegistry()))

	got = b.PatchParams(in, Param{Key: "var-timeDuration", Value: "1y"})
	require.Equal(t, "https://g/d?orgId=1&panelId=16&var-id=111&var-timeDuration=1y&__feature.dashboardSceneSolo", got)
}

func TestPatchAppends(t *testing.T) {
	b := NewBuilder(Options{})
	got := b.Patch("https://g/d?orgId=1&panelId=16", "Z20541", testRegistry())
	require.Equal(t, "https://g/d?orgId=1&panelId=16&var-id=12205157", got)

	got = b.PatchTimeRange(got, timerange.Range{From: "now-30d", To: "now"})
	require.Equal(t, "https://g/d?orgId=1&panelId=16&var-id=12205157&from=now-30d&to=now", got)

	got = b.PatchTimeRange(got, timerange.Range{From: "now-1y/y", To: "now-1y/y"})
	require.Equal(t, "https://g/d?orgId=1&panelId=16&var-id=12205157&from=now-1y/y&to=now-1y/y", got)

	require.Equal(t, got, b.PatchTimeRange(got, timerange.Range{}))
	require.Equal(t, "https://g/d?orgId=1&panelId=3&var-id=12205157&from=now-1y/y&to=now-1y/y", b.PatchPanelID(got, "3"))
}

func TestPatchUnresolvedKeepsRef(t *testing.T) {
	got := NewBuilder(Options{}).Patch("https://g/d?var-id=1", "Z99999", testRegistry())
	require.Equal(t, "https://g/d?var-id=Z99999", got)
}

func TestPatchEmptyRefKeepsURL(t *testing.T) {
	b := NewBuilder(Options{})
	in := "https://g/d?orgId=1&var-id=9&kiosk=1"
	require.Equal(t, in, b.Patch(in, "", testRegistry()))
	require.Equal(t, in, b.Patch(in, "", nil))
}

func TestPatchKeepsFragment(t *testing.T) {
	b := NewBuilder(Options{})
	require.Equal(t, "https://g/d?orgId=1&var-id=12205157#panel", b.Patch("https://g/d?orgId=1#panel", "Z20541", testRegistry()))
	require.Equal(t, "https://g/d?orgId=1&var-id=12205157&from=now-7d&to=now#",
		b.PatchTimeRange(b.Patch("https://g/d?orgId=1&var-id=1#", "Z20541", testRegistry()), timerange.Range{From: "now-7d", To: "now"}))
	require.Equal(t, "https://g/d?var-id=12205157#x", b.Patch("https://g/d?#x", "Z20541", testRegistry()))

	in := "https://g/d#frag?var-id=1"
	require.Equal(t, in, b.Patch(in, "Z20541", testRegistry()))
}

func TestPatchMalformed(t *testing.T) {
	b := NewBuilder(Options{})
	for _, in := range []string{"", "   ", "https://g/d", "?var-id=1", "http://[::1"} {
		require.Equal(t, in, b.Patch(in, "Z20541", testRegistry()), in)
	}
}

func TestQueryKeepsUnknownSegments(t *testing.T) {
	q, err := ParseQuery("https://g/d?a=1&&flag&b=x%20y&a=2")
	require.NoError(t, err)
	require.Equal(t, "https://g/d", q.Base())

	v, ok := q.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", v)

	q.Set("a", "3")
	q.SetFlag("flag")
	require.Equal(t, "https://g/d?a=3&&flag&b=x%20y&a=2", q.String())
	require.Len(t, q.Params(), 5)
}
