// Package client is a minimal SDK for the pouch line protocol: one
// command JSON per write, one response line per read.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pouchkv/pouch/pkg/command"
	"github.com/pouchkv/pouch/pkg/response"
)

// Client is a single TCP connection to a pouch server. It is not safe
// for concurrent use; responses arrive in request order.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a server's TCP listener.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Do sends one command and reads its response.
func (c *Client) Do(cmd command.Command) (response.Response, error) {
	data, err := command.Encode(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return response.Decode([]byte(strings.TrimSuffix(line, "\n")))
}

func (c *Client) Close() error {
	return c.conn.Close()
}
