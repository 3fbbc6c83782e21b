package waktunya

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	initialRedialDelay = time.Second
	maxRedialDelay     = 30 * time.Second
	dialTimeout        = 10 * time.Second
)

// WebsocketChannel joins a named room over a websocket. When the socket
// drops it redials with capped exponential backoff, so a session sees a
// close followed eventually by a fresh open. Lifecycle callbacks must be
// registered before Start.
type WebsocketChannel struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}

	onOpen    func()
	onClose   func(reason string)
	onError   func(err error)
	onMessage func(data []byte)
}

func NewWebsocketChannel(baseURL, room string) (*WebsocketChannel, error) {
	roomURL, err := url.JoinPath(baseURL, room)
	if err != nil {
		return nil, fmt.Errorf("bad channel address: %w", err)
	}
	return &WebsocketChannel{
		url:    roomURL,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
		done:   make(chan struct{}),
	}, nil
}

func (c *WebsocketChannel) OnOpen(f func()) { c.onOpen = f }
func (c *WebsocketChannel) OnClose(f func(string)) { c.onClose = f }
func (c *WebsocketChannel) OnError(f func(error)) { c.onError = f }
func (c *WebsocketChannel) OnMessage(f func([]byte)) { c.onMessage = f }

func (c *WebsocketChannel) Start() {
	log.Println("joining room at", c.url)
	go c.run()
}

func (c *WebsocketChannel) run() {
	delay := initialRedialDelay
	for {
		if c.isDone() {
			return
		}
		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			c.emitError(fmt.Errorf("dial %s: %w", c.url, err))
			if !c.sleep(delay) {
				return
			}
			delay = nextRedialDelay(delay)
			continue
		}
		delay = initialRedialDelay
		c.setConn(conn)
		c.emitOpen()
		reason := c.readLoop(conn)
		c.setConn(nil)
		if c.isDone() {
			return
		}
		c.emitClose(reason)
	}
}

func (c *WebsocketChannel) readLoop(conn *websocket.Conn) string {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err.Error()
		}
		if c.onMessage != nil {
			c.onMessage(data)
		}
	}
}

func (c *WebsocketChannel) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("channel not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebsocketChannel) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *WebsocketChannel) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *WebsocketChannel) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// sleep waits for the redial delay, reporting false if the channel was
// closed in the meantime.
func (c *WebsocketChannel) sleep(d time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(d):
		return true
	}
}

func (c *WebsocketChannel) emitOpen() {
	if c.onOpen != nil {
		c.onOpen()
	}
}

func (c *WebsocketChannel) emitClose(reason string) {
	if c.onClose != nil {
		c.onClose(reason)
	}
}

func (c *WebsocketChannel) emitError(err error) {
	log.Println("channel error:", err)
	if c.onError != nil {
		c.onError(err)
	}
}

func nextRedialDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxRedialDelay {
		return maxRedialDelay
	}
	return d
}
