package view

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodastack/meterboard/embed"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/planner"
	"github.com/lodastack/meterboard/timerange"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every pending timer, including stopped ones, like a timer
// that already fired before Stop was called.
func (c *fakeClock) fire(includeStopped bool) {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped || includeStopped {
			t.f()
		}
	}
}

func newTestSession(t *testing.T, clock *fakeClock, frames *[]Frame) *Session {
	reg := meter.NewRegistry(207210027, model.NewMeterMap(
		"Z20541", "1001", "Z20542", "1002", "Z20141", "2001",
	), nil)
	tabs := planner.Plan(reg, nil, planner.Options{})
	require.Len(t, tabs, 2)

	return New(reg, tabs, Config{
		Builder:   embed.NewBuilder(embed.Options{GrafanaBase: "https://graf.example", Dashboard: "d-solo/xyz/board"}),
		Catalog:   timerange.Default(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)),
		AfterFunc: clock.AfterFunc,
		OnRender:  func(f Frame) { *frames = append(*frames, f) },
	})
}

func TestSessionDefaults(t *testing.T) {
	var frames []Frame
	s := newTestSession(t, &fakeClock{}, &frames)

	f := s.Frame()
	require.Equal(t, "idle", f.State)
	require.Equal(t, 0, f.ActiveTab)
	require.True(t, f.Tabs[0].Active)
	require.Equal(t, "Netz", f.Tabs[0].Label)
	require.Len(t, f.Panels, 1)

	p := f.Panels[0]
	require.True(t, p.Selector)
	require.Equal(t, "Z20541", p.Counter)
	require.Equal(t, "1001", p.CounterID)
	require.True(t, p.Histogram)
	require.False(t, p.HistogramShown)
	require.Nil(t, p.URLs.Histogram)
	require.Equal(t, "https://graf.example/d-solo/xyz/board?orgId=1&from=now-4d&to=now&panelId=16&var-id=1001&__feature.dashboardSceneSolo", p.URLs.Main)
	require.Contains(t, p.URLs.Second, "panelId=3&var-id=1001")
	require.Empty(t, frames)
}

func TestSessionTabDebounce(t *testing.T) {
	clock := &fakeClock{}
	var frames []Frame
	s := newTestSession(t, clock, &frames)

	require.False(t, s.SelectTab(0), "active tab")
	require.False(t, s.SelectTab(5), "unknown tab")

	require.True(t, s.SelectTab(1))
	require.Equal(t, Switching, s.State())
	require.Len(t, frames, 1)
	require.Equal(t, 1, frames[0].ActiveTab)
	require.Equal(t, "Wärmezähler Kessel", frames[0].Panels[0].Label)

	// dropped while switching, including the active tab
	require.False(t, s.SelectTab(0))
	require.False(t, s.SelectTab(1))
	require.Equal(t, 1, s.ActiveTab())
	require.Len(t, frames, 1)

	require.Len(t, clock.timers, 1)
	require.Equal(t, DefaultDebounce, clock.timers[0].d)
	clock.fire(false)
	require.Equal(t, Idle, s.State())

	require.True(t, s.SelectTabID("netz"))
	require.Equal(t, 0, s.ActiveTab())
	require.Len(t, frames, 2)
}

func TestSessionCounterAndHistogramIgnoreDebounce(t *testing.T) {
	clock := &fakeClock{}
	var frames []Frame
	s := newTestSession(t, clock, &frames)

	panelID := s.Frame().Panels[0].ID
	require.True(t, s.SelectTab(1))
	require.True(t, s.SelectCounter(panelID, "Z20542"))
	ref, ok := s.Selected(panelID)
	require.True(t, ok)
	require.Equal(t, "Z20542", ref)
	require.False(t, s.SelectCounter(panelID, "Z99999"))
	require.False(t, s.SelectCounter("nope", "Z20541"))

	visible, ok := s.ToggleHistogram(panelID)
	require.True(t, ok)
	require.True(t, visible)
	require.Equal(t, Switching, s.State())

	clock.fire(false)
	require.True(t, s.SelectTab(0))
	p := s.Frame().Panels[0]
	require.Equal(t, "1002", p.CounterID)
	require.True(t, p.HistogramShown)
	require.Len(t, p.URLs.Histogram, 3)
	require.Contains(t, p.URLs.Histogram[0], "panelId=4&var-id=1002")

	visible, ok = s.ToggleHistogram(panelID)
	require.True(t, ok)
	require.False(t, visible)
	require.Nil(t, s.Frame().Panels[0].URLs.Histogram)
}

func TestSessionHistogramAbsent(t *testing.T) {
	reg := meter.NewRegistry(1, model.NewMeterMap(), nil)
	tabs := []model.Tab{{ID: "t", Panels: []model.Panel{
		{ID: "p", PanelID: "16", Histogram: []model.FlexString{"4", "5"}},
	}}}
	s := New(reg, tabs, Config{AfterFunc: (&fakeClock{}).AfterFunc})

	_, ok := s.ToggleHistogram("p")
	require.False(t, ok)
	p := s.Frame().Panels[0]
	require.False(t, p.Histogram)
	require.Equal(t, model.ObjectSentinel, p.Counter)
	require.Equal(t, "1", p.CounterID)
}

func TestSessionTimeRange(t *testing.T) {
	var frames []Frame
	s := newTestSession(t, &fakeClock{}, &frames)

	s.SetTimeRange("1y/y")
	require.Len(t, frames, 1)
	require.Equal(t, timerange.Range{From: "now-1y/y", To: "now-1y/y"}, frames[0].Range)
	require.Contains(t, frames[0].Panels[0].URLs.Main, "&from=now-1y/y&to=now-1y/y&")

	s.SetTimeRange("2023")
	require.Contains(t, s.Frame().Panels[0].URLs.Main, "&from=now-2y/y&to=now-2y/y&")

	s.SetTimeRange("30d")
	require.Contains(t, s.Frame().Panels[0].URLs.Main, "&from=now-30d&to=now&")
}

func TestSessionChangeObject(t *testing.T) {
	clock := &fakeClock{}
	var frames []Frame
	s := newTestSession(t, clock, &frames)

	panelID := s.Frame().Panels[0].ID
	require.True(t, s.SelectCounter(panelID, "Z20542"))
	s.SetTimeRange("30d")
	require.True(t, s.SelectTab(1))
	require.Equal(t, Switching, s.State())

	reg := meter.NewRegistry(42, model.NewMeterMap("Z20241", "3001"), nil)
	s.ChangeObject(reg, planner.Plan(reg, nil, planner.Options{}))
	require.Equal(t, Idle, s.State())
	require.Equal(t, int64(42), s.ObjectID())

	f := s.Frame()
	require.Equal(t, 0, f.ActiveTab)
	require.Equal(t, "30d", f.TimeRange)
	require.Equal(t, "Wärmepumpe", f.Tabs[0].Label)
	require.Equal(t, "3001", f.Panels[0].CounterID)
	_, ok := s.Selected(panelID)
	require.False(t, ok)

	// a timer from the old object that fires late changes nothing
	require.True(t, clock.timers[0].stopped)
	clock.fire(true)
	require.Equal(t, Idle, s.State())
}

func TestSessionEmptyPlan(t *testing.T) {
	s := New(meter.NewRegistry(7, model.NewMeterMap(), nil), []model.Tab{}, Config{AfterFunc: (&fakeClock{}).AfterFunc})
	f := s.Frame()
	require.Empty(t, f.Tabs)
	require.Empty(t, f.Panels)
	require.False(t, s.SelectTab(0))
	s.Close()
}
