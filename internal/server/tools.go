package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "arm_connect",
			Description: "Open the arm's serial port through the control API and wait for the device to settle. Fails if already connected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"address": map[string]interface{}{
						"type":        "string",
						"description": "IP address of the arm control API. Defaults to the configured address.",
					},
					"port": map[string]interface{}{
						"type":        "string",
						"description": "Serial port name (e.g. COM3). Defaults to the configured port.",
					},
				},
			},
		},
		{
			Name:        "arm_disconnect",
			Description: "Park the arm at origin with the pen raised and close the serial port. Safe to call when not connected.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "arm_move",
			Description: "Move the stylus to an absolute position in millimeters. Coordinates are rounded to whole millimeters and must be non-negative.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"description": "Target X position in millimeters",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"description": "Target Y position in millimeters. Larger values move away from the screen top.",
					},
					"no_frame": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip the camera frame normally attached after the move",
						"default":     false,
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "arm_click",
			Description: "Tap the screen at the current position: lower the pen to the given depth, hold briefly, raise it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"depth": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"maximum":     15,
						"description": "Pen-down Z depth (1-15). Default 12.",
						"default":     12,
					},
					"no_frame": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip the camera frame normally attached after the click",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "capture_frame",
			Description: "Capture the current camera view of the phone screen and return it as an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"no_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return only the capture summary without the image payload",
						"default":     false,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
