package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stylusarm/stylus-mcp/internal/arm"
	"github.com/stylusarm/stylus-mcp/internal/capture"
	"github.com/stylusarm/stylus-mcp/internal/eventlog"
)

// Server is one protocol server instance. The gateway creates one per
// client session; all instances share the same arm controller and frame
// correlator, so device access stays globally serialized while protocol
// state stays per-session.
type Server struct {
	name    string
	version string
	arm     *arm.Controller
	frames  *capture.Correlator
	events  *eventlog.Log
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a protocol server instance bound to the shared device layers.
func New(name, version string, ctrl *arm.Controller, frames *capture.Correlator, events *eventlog.Log) *Server {
	return &Server{
		name:    name,
		version: version,
		arm:     ctrl,
		frames:  frames,
		events:  events,
	}
}

// HandleMessage processes one raw JSON-RPC message and returns the encoded
// response. Notifications return nil: they get no response by protocol.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	var req MCPRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mustEncode(s.errorResponse(nil, -32700, "Parse error", err.Error()))
	}

	resp := s.handleRequest(ctx, &req)
	if resp == nil {
		return nil
	}
	return mustEncode(resp)
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return s.handleResourcesList(req)
	case "resources/read":
		return s.handleResourcesRead(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":     map[string]interface{}{},
				"resources": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.name,
				"version": s.version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func mustEncode(resp *MCPResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// Responses are built from marshalable values only.
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"Internal error"}}`)
	}
	return data
}
