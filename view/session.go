// Package view keeps the per-session display state of one object: active
// tab, time range, counter selection and histogram visibility.
package view

import (
	"sync"
	"time"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/embed"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/timerange"
)

// State of the tab switch guard.
type State int

const (
	Idle State = iota
	Switching
)

func (s State) String() string {
	if s == Switching {
		return "switching"
	}
	return "idle"
}

// DefaultDebounce is how long tab selection stays blocked after a switch.
const DefaultDebounce = 500 * time.Millisecond

// Timer is the part of *time.Timer a session needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config of a Session. Builder is required.
type Config struct {
	Builder  *embed.Builder
	Catalog  timerange.Catalog
	Debounce time.Duration
	// TimeRange is the initial catalog value. Empty uses each panel's own
	// interval until a range is chosen.
	TimeRange string
	AfterFunc AfterFunc
	// OnRender receives every frame produced by a state change. It is
	// called without the session lock held.
	OnRender func(Frame)
	Logger   common.Logger
}

// Session is the view state of one object. Tab switches are debounced;
// counter selection and histogram toggles are not. A Session is safe for
// concurrent use since the debounce timer fires on its own goroutine.
type Session struct {
	mu     sync.Mutex
	cfg    Config
	logger common.Logger

	reg  *meter.Registry
	tabs []model.Tab

	active    int
	timeRange string
	selected  map[string]string
	histogram map[string]bool
	state     State
	timer     Timer
	epoch     uint64
}

// New starts a session on the given object plan in its default state.
func New(reg *meter.Registry, tabs []model.Tab, cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = stdAfterFunc
	}
	if cfg.Catalog == nil {
		cfg.Catalog = timerange.Default(time.Now())
	}
	if cfg.Builder == nil {
		cfg.Builder = embed.NewBuilder(embed.Options{Logger: cfg.Logger})
	}
	s := &Session{
		cfg:       cfg,
		logger:    common.OrNop(cfg.Logger),
		timeRange: cfg.TimeRange,
	}
	s.reset(reg, tabs)
	return s
}

// reset puts every per-object selection back to its default. Callers hold mu.
func (s *Session) reset(reg *meter.Registry, tabs []model.Tab) {
	s.reg = reg
	s.tabs = tabs
	s.active = 0
	s.selected = make(map[string]string)
	s.histogram = make(map[string]bool)
	for _, t := range tabs {
		for _, p := range t.Panels {
			s.selected[p.ID] = p.DefaultCounter()
		}
	}
	s.stopTimer()
	s.state = Idle
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
}

// SelectTab activates the tab at index. It is dropped while a switch is
// in progress, for the active tab and for an unknown index.
func (s *Session) SelectTab(index int) bool {
	s.mu.Lock()
	if s.state == Switching || index == s.active || index < 0 || index >= len(s.tabs) {
		s.mu.Unlock()
		return false
	}
	s.active = index
	s.state = Switching
	s.epoch++
	epoch := s.epoch
	s.timer = s.cfg.AfterFunc(s.cfg.Debounce, func() { s.settle(epoch) })
	f := s.frame()
	s.mu.Unlock()

	s.emit(f)
	return true
}

// SelectTabID is SelectTab by tab id.
func (s *Session) SelectTabID(id string) bool {
	s.mu.Lock()
	index := -1
	for i, t := range s.tabs {
		if t.ID == id {
			index = i
			break
		}
	}
	s.mu.Unlock()
	return s.SelectTab(index)
}

func (s *Session) settle(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	s.state = Idle
	s.timer = nil
}

func (s *Session) panel(panelID string) (model.Panel, bool) {
	return model.FindPanel(s.tabs, panelID)
}

// SelectCounter chooses one of the panel's selectable counters.
func (s *Session) SelectCounter(panelID, ref string) bool {
	s.mu.Lock()
	p, ok := s.panel(panelID)
	if !ok || !p.HasCounter(ref) {
		s.mu.Unlock()
		s.logger.Infof("warning: counter %s is not selectable on panel %s", ref, panelID)
		return false
	}
	if s.selected[panelID] == ref {
		s.mu.Unlock()
		return true
	}
	s.selected[panelID] = ref
	f := s.frame()
	s.mu.Unlock()

	s.emit(f)
	return true
}

// ToggleHistogram flips the histogram of a panel and returns whether it is
// now visible. ok is false when the panel has no usable histogram.
func (s *Session) ToggleHistogram(panelID string) (visible, ok bool) {
	s.mu.Lock()
	p, exist := s.panel(panelID)
	if !exist || !p.HasHistogram() {
		s.mu.Unlock()
		return false, false
	}
	visible = !s.histogram[panelID]
	s.histogram[panelID] = visible
	f := s.frame()
	s.mu.Unlock()

	s.emit(f)
	return visible, true
}

// SetTimeRange selects a catalog value. Only URLs change.
func (s *Session) SetTimeRange(value string) {
	s.mu.Lock()
	s.timeRange = value
	f := s.frame()
	s.mu.Unlock()

	s.emit(f)
}

// ChangeObject switches to another object. All selections return to
// their defaults and a pending tab switch is cancelled. The time range
// survives.
func (s *Session) ChangeObject(reg *meter.Registry, tabs []model.Tab) {
	s.mu.Lock()
	s.reset(reg, tabs)
	f := s.frame()
	s.mu.Unlock()

	s.emit(f)
}

// Close cancels the pending debounce timer.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimer()
	s.state = Idle
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ActiveTab() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) ObjectID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.ObjectID()
}

// Selected returns the counter reference chosen for a panel.
func (s *Session) Selected(panelID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.selected[panelID]
	return ref, ok
}

// Frame renders the current state.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame()
}

func (s *Session) emit(f Frame) {
	if s.cfg.OnRender != nil {
		s.cfg.OnRender(f)
	}
}
