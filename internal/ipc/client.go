package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"restara/pkg/spec"
)

// ErrReply wraps an ERR line returned by the server.
var ErrReply = errors.New("server error")

// Client speaks the line protocol. Calls are serialized; EVENT lines read
// while waiting for a reply go to OnEvent.
type Client struct {
	OnEvent func(Event)
	Timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

func Dial(path string) (*Client, error) {
	c, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}
	return NewClient(c), nil
}

func NewClient(c net.Conn) *Client {
	return &Client{conn: c, r: bufio.NewReader(c), Timeout: 5 * time.Second}
}

func (c *Client) Close() error { return c.conn.Close() }

// Release gives up control without waiting for the disconnect.
func (c *Client) Release() error {
	_, err := c.Do("RELEASE")
	return err
}

// Do sends one command and returns its reply. ERR replies come back as an
// error wrapping ErrReply.
func (c *Client) Do(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.Timeout))
	if _, err := fmt.Fprintf(c.conn, "%s\n", cmd); err != nil {
		return "", err
	}
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.Timeout))
		line, ev, err := c.read()
		if err != nil {
			return "", err
		}
		if ev != nil {
			if c.OnEvent != nil {
				c.OnEvent(*ev)
			}
			continue
		}
		if strings.HasPrefix(line, "ERR ") {
			return "", fmt.Errorf("%w: %s", ErrReply, strings.TrimPrefix(line, "ERR "))
		}
		return line, nil
	}
}

// Status fetches the combined mixer and timer state.
func (c *Client) Status() (Event, error) {
	var ev Event
	line, err := c.Do("STATUS")
	if err != nil {
		return ev, err
	}
	err = json.Unmarshal([]byte(line), &ev)
	return ev, err
}

// Watch subscribes to events and calls fn for each until the connection
// fails or fn returns false.
func (c *Client) Watch(fn func(Event) bool) error {
	if _, err := c.Do("SUBSCRIBE"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetReadDeadline(time.Time{})
	for {
		_, ev, err := c.read()
		if err != nil {
			return err
		}
		if ev != nil && !fn(*ev) {
			return nil
		}
	}
}

func (c *Client) read() (string, *Event, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, spec.EventPfx) {
		return line, nil, nil
	}
	var ev Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, spec.EventPfx)), &ev); err != nil {
		return "", nil, fmt.Errorf("bad event: %w", err)
	}
	return line, &ev, nil
}
