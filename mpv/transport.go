package mpv

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/mpvctl-cli/mpvctl/protocol"
)

// scanBufSize bounds a single inbound frame; property payloads such as
// playlists can be large.
const scanBufSize = 1024 * 1024

// FrameHandler consumes one decoded inbound frame.
type FrameHandler func(*protocol.Frame)

// CloseHandler receives the connection's single close notification.
// The error is nil on an orderly local close, io.EOF-like reasons are
// reported as received from the read loop.
type CloseHandler func(error)

// Conn owns one duplex byte stream to the player and frames messages by
// the protocol delimiter. The write path is serialized; the read loop
// delivers decoded frames to the registered handler and reports closure
// exactly once.
type Conn struct {
	c       net.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	onFrame   FrameHandler
	onClose   CloseHandler
}

// Dial connects to the player's IPC endpoint at the given socket path.
func Dial(socketPath string) (*Conn, error) {
	c, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", socketPath, err)
	}
	return &Conn{c: c}, nil
}

// Listen registers the frame and close handlers and starts the read loop.
func (c *Conn) Listen(onFrame FrameHandler, onClose CloseHandler) {
	c.onFrame = onFrame
	c.onClose = onClose
	go c.readLoop()
}

// readLoop splits the inbound stream on the frame delimiter, skipping
// empty fragments. A frame that fails to decode indicates protocol
// desynchronization and tears the connection down.
func (c *Conn) readLoop() {
	scanner := bufio.NewScanner(c.c)
	scanner.Buffer(make([]byte, 0, 4096), scanBufSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		frame, err := protocol.Parse(line)
		if err != nil {
			c.closeWith(fmt.Errorf("%w: %v", ErrProtocolDesync, err))
			return
		}
		if c.onFrame != nil {
			c.onFrame(frame)
		}
	}

	c.closeWith(scanner.Err())
}

// Send serializes one request through the connection.
func (c *Conn) Send(req protocol.Request) error {
	data, err := req.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.c.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailure, err)
	}
	return nil
}

// Close shuts the connection down. Idempotent; the close notification
// fires at most once per connection regardless of who initiates it.
func (c *Conn) Close() error {
	c.closeWith(nil)
	return nil
}

func (c *Conn) closeWith(reason error) {
	c.closeOnce.Do(func() {
		_ = c.c.Close()
		if c.onClose != nil {
			c.onClose(reason)
		}
	})
}
