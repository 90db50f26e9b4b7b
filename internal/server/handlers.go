package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stylusarm/stylus-mcp/internal/arm"
	"github.com/stylusarm/stylus-mcp/internal/capture"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "arm_connect", "arm_move").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolResult is the uniform outcome of a tool invocation. Device and
// validation failures are values here, not errors: nothing below the
// protocol layer raises past its boundary.
type toolResult struct {
	Success bool
	Message string
	Data    map[string]interface{}
	Frame   *capture.Frame
}

func failure(format string, args ...interface{}) *toolResult {
	return &toolResult{Message: fmt.Sprintf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified
// tool.
//
// The response wraps the outcome in MCP's content format: always a textual
// JSON summary, plus an image content block when a camera frame rode along:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON summary>"},
//	              {"type": "image", "data": "<base64>", "mimeType": "image/jpeg"}]
//	}
//
// Only malformed params JSON and unknown tool names produce JSON-RPC
// errors; every device-level failure is a success=false summary so the
// client always receives a structured, actionable message.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	s.events.Request(params.Name, compactJSON(params.Arguments))

	out, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.events.Error(params.Name, err.Error())
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	if out.Success {
		s.events.Response(params.Name, out.Message)
	} else {
		s.events.Error(params.Name, out.Message)
	}

	summary := map[string]interface{}{
		"success": out.Success,
		"message": out.Message,
	}
	for k, v := range out.Data {
		summary[k] = v
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(summary),
		},
	}
	if out.Frame != nil {
		content = append(content, map[string]interface{}{
			"type":     "image",
			"data":     base64.StdEncoding.EncodeToString(out.Frame.Data),
			"mimeType": out.Frame.MIME,
		})
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Validates types and ranges before any device side effect
//  3. Calls into the arm controller or frame correlator
//  4. Maps the outcome onto a toolResult
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (*toolResult, error) {
	switch name {
	case "arm_connect":
		return s.handleArmConnect(ctx, args)
	case "arm_disconnect":
		return s.handleArmDisconnect(ctx, args)
	case "arm_move":
		return s.handleArmMove(ctx, args)
	case "arm_click":
		return s.handleArmClick(ctx, args)
	case "capture_frame":
		return s.handleCaptureFrame(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// compactJSON renders raw arguments for the event stream.
func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// === Device Tool Handlers ===

type armConnectArgs struct {
	Address string `json:"address"`
	Port    string `json:"port"`
}

func (s *Server) handleArmConnect(ctx context.Context, args json.RawMessage) (*toolResult, error) {
	var a armConnectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	if err := s.arm.Connect(ctx, a.Address, a.Port); err != nil {
		switch {
		case errors.Is(err, arm.ErrAlreadyConnected):
			return failure("already connected"), nil
		case errors.Is(err, arm.ErrOpenFailed):
			return failure("failed to open port"), nil
		default:
			return failure("transport failure: %v", err), nil
		}
	}

	snap := s.arm.Snapshot()
	return &toolResult{
		Success: true,
		Message: fmt.Sprintf("connected to %s", snap.Port),
		Data: map[string]interface{}{
			"handle": snap.Handle,
			"port":   snap.Port,
		},
	}, nil
}

func (s *Server) handleArmDisconnect(ctx context.Context, args json.RawMessage) (*toolResult, error) {
	if err := s.arm.Disconnect(ctx); err != nil {
		// State is reset regardless; report the hardware error.
		return failure("transport failure: %v", err), nil
	}
	return &toolResult{Success: true, Message: "disconnected"}, nil
}

type armMoveArgs struct {
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	NoFrame bool     `json:"no_frame"`
}

func (s *Server) handleArmMove(ctx context.Context, args json.RawMessage) (*toolResult, error) {
	var a armMoveArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.X == nil || a.Y == nil {
		return failure("x and y are required"), nil
	}
	if *a.X < 0 || *a.Y < 0 {
		return failure("x and y must be >= 0"), nil
	}

	res, err := s.arm.Move(ctx, *a.X, *a.Y)
	if err != nil {
		if errors.Is(err, arm.ErrNotConnected) {
			return failure("not connected"), nil
		}
		return failure("transport failure: %v", err), nil
	}

	out := &toolResult{
		Success: true,
		Message: fmt.Sprintf("moved to (%d, %d)", res.To.X, res.To.Y),
		Data: map[string]interface{}{
			"previous_position": res.From,
			"position":          res.To,
		},
	}
	if !a.NoFrame {
		out.Frame = s.captureAfterAction(ctx)
	}
	return out, nil
}

type armClickArgs struct {
	Depth   *int `json:"depth"`
	NoFrame bool `json:"no_frame"`
}

func (s *Server) handleArmClick(ctx context.Context, args json.RawMessage) (*toolResult, error) {
	var a armClickArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	depth := arm.DefaultClickDepth
	if a.Depth != nil {
		depth = *a.Depth
	}
	if depth < arm.MinClickDepth || depth > arm.MaxClickDepth {
		return failure("depth must be between %d and %d", arm.MinClickDepth, arm.MaxClickDepth), nil
	}

	if err := s.arm.Click(ctx, depth); err != nil {
		if errors.Is(err, arm.ErrNotConnected) {
			return failure("not connected"), nil
		}
		return failure("transport failure: %v", err), nil
	}

	out := &toolResult{
		Success: true,
		Message: fmt.Sprintf("clicked at depth %d", depth),
		Data:    map[string]interface{}{"depth": depth},
	}
	if !a.NoFrame {
		out.Frame = s.captureAfterAction(ctx)
	}
	return out, nil
}

type captureFrameArgs struct {
	NoImage bool `json:"no_image"`
}

func (s *Server) handleCaptureFrame(ctx context.Context, args json.RawMessage) (*toolResult, error) {
	var a captureFrameArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	frame, err := s.frames.Capture(ctx)
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrBusy):
			return failure("capture busy: a frame request is already pending"), nil
		case errors.Is(err, capture.ErrUnavailable):
			return failure("capture unavailable"), nil
		default:
			return failure("capture unavailable: %v", err), nil
		}
	}
	if frame == nil {
		return failure("capture unavailable: no frame arrived before the timeout"), nil
	}

	out := &toolResult{
		Success: true,
		Message: "frame captured",
		Data: map[string]interface{}{
			"mime_type": frame.MIME,
			"bytes":     len(frame.Data),
		},
	}
	if !a.NoImage {
		out.Frame = frame
	}
	return out, nil
}

// captureAfterAction grabs a frame to attach to a move/click result. It is
// best-effort: a busy correlator, a missing renderer, or a timeout just
// means the action result ships without an image.
func (s *Server) captureAfterAction(ctx context.Context) *capture.Frame {
	frame, err := s.frames.Capture(ctx)
	if err != nil {
		return nil
	}
	return frame
}

// unmarshalArgs decodes tool arguments, treating absent arguments as an
// empty object.
func unmarshalArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
