package httpd

import (
	"sync"
	"time"

	"github.com/pquerna/ffjson/ffjson"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/view"
)

// viewSession is one client's view state plus the websocket clients that
// follow its frames.
type viewSession struct {
	id   string
	view *view.Session

	mu       sync.Mutex
	lastSeen time.Time
	clients  map[*wsClient]struct{}
}

func newViewSession() *viewSession {
	return &viewSession{
		id:       common.GenUUID(),
		lastSeen: time.Now(),
		clients:  make(map[*wsClient]struct{}),
	}
}

func (vs *viewSession) touch() {
	vs.mu.Lock()
	vs.lastSeen = time.Now()
	vs.mu.Unlock()
}

func (vs *viewSession) idleSince() time.Time {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.lastSeen
}

// broadcast pushes a frame to every client. Slow clients miss frames.
func (vs *viewSession) broadcast(f view.Frame) {
	data, err := ffjson.Marshal(f)
	if err != nil {
		return
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for c := range vs.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (vs *viewSession) addClient(c *wsClient) {
	vs.mu.Lock()
	vs.clients[c] = struct{}{}
	vs.mu.Unlock()
}

func (vs *viewSession) removeClient(c *wsClient) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if _, ok := vs.clients[c]; ok {
		delete(vs.clients, c)
		close(c.send)
	}
}

func (vs *viewSession) clientCount() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.clients)
}

// close stops the view and disconnects every client.
func (vs *viewSession) close() {
	if vs.view != nil {
		vs.view.Close()
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for c := range vs.clients {
		delete(vs.clients, c)
		close(c.send)
	}
}

// SessionStore keeps the live view sessions by id.
type SessionStore struct {
	// Mux locks sessions
	mux      sync.Mutex
	sessions map[string]*viewSession
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*viewSession), ttl: ttl}
}

// Get returns the session and marks it used.
func (ss *SessionStore) Get(id string) (*viewSession, error) {
	ss.mux.Lock()
	vs, ok := ss.sessions[id]
	ss.mux.Unlock()
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	vs.touch()
	return vs, nil
}

// Set stores vs under its id.
func (ss *SessionStore) Set(vs *viewSession) {
	ss.mux.Lock()
	defer ss.mux.Unlock()
	ss.sessions[vs.id] = vs
}

// Delete closes and removes a session.
func (ss *SessionStore) Delete(id string) error {
	ss.mux.Lock()
	vs, ok := ss.sessions[id]
	delete(ss.sessions, id)
	ss.mux.Unlock()
	if !ok {
		return common.ErrSessionNotFound
	}
	vs.close()
	return nil
}

func (ss *SessionStore) Len() int {
	ss.mux.Lock()
	defer ss.mux.Unlock()
	return len(ss.sessions)
}

// Expire closes sessions idle longer than the ttl that have no websocket
// client, and returns their ids.
func (ss *SessionStore) Expire(now time.Time) []string {
	if ss.ttl <= 0 {
		return nil
	}
	var expired []*viewSession
	ss.mux.Lock()
	for id, vs := range ss.sessions {
		if vs.clientCount() == 0 && now.Sub(vs.idleSince()) > ss.ttl {
			expired = append(expired, vs)
			delete(ss.sessions, id)
		}
	}
	ss.mux.Unlock()

	ids := make([]string, 0, len(expired))
	for _, vs := range expired {
		vs.close()
		ids = append(ids, vs.id)
	}
	return ids
}

// CloseAll closes every session.
func (ss *SessionStore) CloseAll() {
	ss.mux.Lock()
	sessions := ss.sessions
	ss.sessions = make(map[string]*viewSession)
	ss.mux.Unlock()
	for _, vs := range sessions {
		vs.close()
	}
}
