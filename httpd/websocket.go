package httpd

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient follows the frames of one session.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// handlerSessionWS upgrades to a websocket that receives the current
// frame and then every frame the session renders.
func (s *Service) handlerSessionWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	vs, err := s.sessions.Get(ps.ByName("id"))
	if err != nil {
		ReturnError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("websocket upgrade fail: %s", err.Error())
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	if data, err := ffjson.Marshal(vs.view.Frame()); err == nil {
		c.send <- data
	}
	vs.addClient(c)

	go c.writePump()
	go c.readPump(vs)
}

// readPump only drains control frames; it ends the client on close.
func (c *wsClient) readPump(vs *viewSession) {
	defer func() {
		vs.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		vs.touch()
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
