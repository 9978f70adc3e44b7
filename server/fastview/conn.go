package fastview

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = 500 * time.Millisecond

// conn wraps the websocket, which allows one concurrent reader and one
// concurrent writer. Only readMessages reads, so only writes are locked.
type conn struct {
	writeMu sync.Mutex
	ws      *websocket.Conn
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

// onPong must be set before reading starts.
func (c *conn) onPong(fn func()) {
	c.ws.SetPongHandler(func(string) error {
		fn()
		return nil
	})
}

func (c *conn) read() (int, []byte, error) {
	return c.ws.ReadMessage()
}

// interruptRead fails any blocked read immediately.
func (c *conn) interruptRead() error {
	return c.ws.SetReadDeadline(time.Now())
}

func (c *conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *conn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// close sends a close frame and drops the connection after a grace period.
// Must be called once Sync has returned.
func (c *conn) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	c.ws.Close()
}
