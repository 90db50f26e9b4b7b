package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylusarm/stylus-mcp/internal/arm"
	"github.com/stylusarm/stylus-mcp/internal/capture"
	"github.com/stylusarm/stylus-mcp/internal/eventlog"
)

// commandRecorder fakes the legacy arm API and records every command.
type commandRecorder struct {
	mu       sync.Mutex
	commands []string
	respond  func(handle, cmd string) (string, int)
}

func (f *commandRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmd := r.URL.Query().Get("cmd")
	handle := r.URL.Query().Get("handle")

	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	respond := f.respond
	f.mu.Unlock()

	body, status := `""`, http.StatusOK
	if respond != nil {
		body, status = respond(handle, cmd)
	}
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (f *commandRecorder) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// respondOpen answers the open command with handle and all else with "".
func respondOpen(handle string) func(string, string) (string, int) {
	return func(h, cmd string) (string, int) {
		if cmd == "0" && h == "0" {
			return `"` + handle + `"`, http.StatusOK
		}
		return `""`, http.StatusOK
	}
}

func newTestServer(t *testing.T, api *commandRecorder, frames *capture.Correlator) *Server {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	host, port, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	client := arm.NewClient(2 * time.Second)
	client.APIPort = port

	events := eventlog.New(io.Discard, zerolog.Disabled)
	state := arm.NewState(host, "COM3")
	ctrl := arm.NewController(state, client, arm.Timing{}, events)

	if frames == nil {
		frames = capture.NewCorrelator(nil, 10*time.Millisecond, 0)
	}
	return New("stylus-mcp", "test", ctrl, frames, events)
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)
	req := &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "stylus-mcp" {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)
	req := &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)
	req := &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}

	if resp := s.handleRequest(context.Background(), req); resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)
	req := &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestHandleMessage_ParseError(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)

	raw := s.HandleMessage(context.Background(), []byte("{not json"))
	if raw == nil {
		t.Fatal("expected a parse error response")
	}

	var resp MCPResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Errorf("expected -32700, got %+v", resp.Error)
	}
}

func TestHandleMessage_Notification(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)

	raw := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if raw != nil {
		t.Errorf("notification should produce no response, got %s", raw)
	}
}

func TestResourcesList(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)
	req := &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "resources/list"}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	result := resp.Result.(map[string]interface{})
	resources := result["resources"].([]map[string]interface{})
	if len(resources) != 1 {
		t.Fatalf("resources: got %d, want 1", len(resources))
	}
	if resources[0]["uri"] != StatusResourceURI {
		t.Errorf("uri: got %v", resources[0]["uri"])
	}
}

func TestResourcesRead_Status(t *testing.T) {
	api := &commandRecorder{respond: respondOpen("42")}
	s := newTestServer(t, api, nil)

	// Status before connect.
	req := &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "resources/read",
		Params: json.RawMessage(`{"uri":"arm://status"}`),
	}
	resp := s.handleRequest(context.Background(), req)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	text := resp.Result.(map[string]interface{})["contents"].([]map[string]interface{})[0]["text"].(string)
	var snap arm.Snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		t.Fatalf("status is not JSON: %v", err)
	}
	if snap.Connected {
		t.Error("should start disconnected")
	}

	// Status reflects state at read time.
	s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"arm_connect","arguments":{}}}`))

	resp = s.handleRequest(context.Background(), req)
	text = resp.Result.(map[string]interface{})["contents"].([]map[string]interface{})[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		t.Fatal(err)
	}
	if !snap.Connected || snap.Handle != 42 {
		t.Errorf("snapshot after connect: %+v", snap)
	}
}

func TestResourcesRead_Unknown(t *testing.T) {
	s := newTestServer(t, &commandRecorder{}, nil)
	req := &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "resources/read",
		Params: json.RawMessage(`{"uri":"arm://nope"}`),
	}

	resp := s.handleRequest(context.Background(), req)
	if resp.Error == nil || resp.Error.Code != -32002 {
		t.Errorf("expected -32002, got %+v", resp.Error)
	}
}

func TestToolDefinitions_Complete(t *testing.T) {
	tools := GetToolDefinitions()
	want := []string{"arm_connect", "arm_disconnect", "arm_move", "arm_click", "capture_frame"}

	if len(tools) != len(want) {
		t.Fatalf("tool count: got %d, want %d", len(tools), len(want))
	}
	for i, name := range want {
		if tools[i].Name != name {
			t.Errorf("tool[%d]: got %s, want %s", i, tools[i].Name, name)
		}
		if tools[i].InputSchema["type"] != "object" {
			t.Errorf("tool %s: schema type %v", name, tools[i].InputSchema["type"])
		}
	}

	// Schemas must be serializable: they are the client-facing contract.
	if _, err := json.Marshal(tools); err != nil {
		t.Fatalf("tool definitions do not marshal: %v", err)
	}

	var names []string
	for _, tool := range tools {
		if !strings.HasPrefix(tool.Name, "arm_") && tool.Name != "capture_frame" {
			names = append(names, tool.Name)
		}
	}
	if len(names) != 0 {
		t.Errorf("unexpected tool names: %v", names)
	}
}
