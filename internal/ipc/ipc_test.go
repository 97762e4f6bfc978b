package ipc

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestRoundtrip(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "pleb.sock")

	server, err := NewServer(socketPath)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go server.Serve()
	defer server.Close()

	client := NewClient(socketPath)
	payload, _ := json.Marshal(map[string]string{
		"cwd":             "/path/to/worktree",
		"session_id":      "test-session",
		"hook_event_name": "UserPromptSubmit",
	})
	msg := HookMessage{EventName: "UserPromptSubmit", IssueNumber: 42, Payload: payload}

	respCh := make(chan HookResponse, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := client.Send(msg)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case received := <-server.Messages:
		if received.IssueNumber != 42 || received.EventName != "UserPromptSubmit" {
			t.Errorf("unexpected message: %+v", received)
		}
	case err := <-errCh:
		t.Fatalf("client send failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive message")
	}

	select {
	case resp := <-respCh:
		if !resp.Success {
			t.Errorf("expected success response, got %+v", resp)
		}
	case err := <-errCh:
		t.Fatalf("client send failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client response")
	}
}

func TestServerRemovesStaleSocket(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "pleb.sock")

	s1, err := NewServer(socketPath)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	// Simulate an unclean shutdown: close the listener without removing
	// the socket file (Close would normally do both).
	s1.listener.Close()

	s2, err := NewServer(socketPath)
	if err != nil {
		t.Fatalf("expected NewServer to recover from a stale socket, got: %v", err)
	}
	defer s2.Close()
}

func TestClientSendWithoutServerFails(t *testing.T) {
	dir := t.TempDir()
	client := NewClient(filepath.Join(dir, "nonexistent.sock"))
	if _, err := client.Send(HookMessage{EventName: "Stop", IssueNumber: 1}); err == nil {
		t.Error("expected error connecting to a nonexistent socket")
	}
}
