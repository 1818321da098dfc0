package httpd

import (
	"testing"
	"time"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/meter"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/view"
)

func newTestViewSession() *viewSession {
	vs := newViewSession()
	reg := meter.NewRegistry(1, model.NewMeterMap("Z20541", "1001"), nil)
	vs.view = view.New(reg, []model.Tab{{ID: "t", Panels: []model.Panel{{ID: "p", PanelID: "16"}}}}, view.Config{OnRender: vs.broadcast})
	return vs
}

func Test_NewSessionStore(t *testing.T) {
	s := NewSessionStore(time.Minute)
	if s == nil || s.Len() != 0 {
		t.Fatalf("new session store failed: %v", s)
	}
}

func Test_SetAndGet(t *testing.T) {
	s := NewSessionStore(time.Minute)
	vs := newTestViewSession()
	s.Set(vs)

	got, err := s.Get(vs.id)
	if err != nil || got != vs {
		t.Fatalf("get failed: %v %v", got, err)
	}
	if _, err := s.Get("nope"); err != common.ErrSessionNotFound {
		t.Fatalf("get unknown session should fail: %v", err)
	}
}

func Test_Delete(t *testing.T) {
	s := NewSessionStore(time.Minute)
	vs := newTestViewSession()
	c := &wsClient{send: make(chan []byte, 1)}
	vs.addClient(c)
	s.Set(vs)

	if err := s.Delete(vs.id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.Get(vs.id); err != common.ErrSessionNotFound {
		t.Fatalf("deleted session still found: %v", err)
	}
	if _, ok := <-c.send; ok {
		t.Fatalf("client channel should be closed")
	}
	if err := s.Delete(vs.id); err != common.ErrSessionNotFound {
		t.Fatalf("delete twice should fail: %v", err)
	}
}

func Test_Expire(t *testing.T) {
	s := NewSessionStore(time.Minute)
	idle, watched := newTestViewSession(), newTestViewSession()
	watched.addClient(&wsClient{send: make(chan []byte, 1)})
	s.Set(idle)
	s.Set(watched)

	if ids := s.Expire(time.Now()); len(ids) != 0 {
		t.Fatalf("fresh sessions should not expire: %v", ids)
	}
	ids := s.Expire(time.Now().Add(2 * time.Minute))
	if len(ids) != 1 || ids[0] != idle.id {
		t.Fatalf("only the idle session should expire: %v", ids)
	}
	if s.Len() != 1 {
		t.Fatalf("expect 1 session left, got %d", s.Len())
	}
	s.CloseAll()
	if s.Len() != 0 {
		t.Fatalf("close all left %d sessions", s.Len())
	}
}

func Test_Broadcast(t *testing.T) {
	vs := newTestViewSession()
	fast := &wsClient{send: make(chan []byte, 4)}
	slow := &wsClient{send: make(chan []byte)}
	vs.addClient(fast)
	vs.addClient(slow)

	vs.view.SetTimeRange("30d")
	select {
	case data := <-fast.send:
		if len(data) == 0 {
			t.Fatalf("empty frame")
		}
	default:
		t.Fatalf("fast client should receive the frame")
	}

	vs.removeClient(fast)
	vs.removeClient(fast)
	if vs.clientCount() != 1 {
		t.Fatalf("expect 1 client, got %d", vs.clientCount())
	}
	vs.close()
}
