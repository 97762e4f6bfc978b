// Package ipc implements the local hook transport: a Unix-domain socket
// server the daemon listens on, and a client the cc-run-hook subcommand
// uses to forward a single event. Built on net.Listen("unix", ...) with
// one goroutine per accepted connection.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// HookMessage is the payload a hook invocation forwards to the daemon.
type HookMessage struct {
	EventName   string          `json:"event_name"`
	IssueNumber uint64          `json:"issue_number"`
	Payload     json.RawMessage `json:"payload"`
}

// HookResponse is the daemon's acknowledgement of a HookMessage.
type HookResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
}

// Server listens on a Unix socket and forwards each decoded HookMessage
// to Messages. Each accepted connection is handled on its own goroutine;
// a message is read, acknowledged, and the connection is closed.
type Server struct {
	socketPath string
	listener   net.Listener
	Messages   chan HookMessage
}

// NewServer constructs a Server bound to socketPath, removing any stale
// socket file left behind by an unclean previous shutdown.
func NewServer(socketPath string) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("remove stale socket %s: %w", socketPath, err)
		}
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("bind hook socket %s: %w", socketPath, err)
	}

	return &Server{
		socketPath: socketPath,
		listener:   ln,
		Messages:   make(chan HookMessage, 32),
	}, nil
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine. It returns once Accept fails, which happens when
// Close is called.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		// Dropped client connection mid-message: the partial message is
		// discarded without a response. Nothing is logged.
		return
	}

	var msg HookMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		writeResponse(conn, HookResponse{Success: false, Message: strPtr("invalid hook message: " + err.Error())})
		return
	}

	select {
	case s.Messages <- msg:
		writeResponse(conn, HookResponse{Success: true})
	default:
		// Channel full: the daemon is either overloaded or shutting
		// down. Acknowledge failure rather than block the hook.
		writeResponse(conn, HookResponse{Success: false, Message: strPtr("daemon message queue is full")})
	}
}

func writeResponse(conn net.Conn, resp HookResponse) {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return
	}
	conn.Write(append(encoded, '\n'))
}

func strPtr(s string) *string { return &s }

// Close shuts down the listener and removes the socket file.
func (s *Server) Close() error {
	err := s.listener.Close()
	os.Remove(s.socketPath)
	return err
}

// Client sends a single HookMessage to a running Server and waits for
// its response.
type Client struct {
	socketPath string
}

// NewClient constructs a Client targeting socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Send connects, writes one newline-framed JSON message, reads the
// response, and closes the connection.
func (c *Client) Send(msg HookMessage) (HookResponse, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return HookResponse{}, fmt.Errorf("connect to daemon socket %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	encoded, err := json.Marshal(msg)
	if err != nil {
		return HookResponse{}, fmt.Errorf("encode hook message: %w", err)
	}
	if _, err := conn.Write(append(encoded, '\n')); err != nil {
		return HookResponse{}, fmt.Errorf("write hook message: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return HookResponse{}, fmt.Errorf("read daemon response: %w", err)
	}

	var resp HookResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return HookResponse{}, fmt.Errorf("parse daemon response: %w", err)
	}
	return resp, nil
}
