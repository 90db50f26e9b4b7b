package server

import "encoding/json"

// StatusResourceURI identifies the read-only arm status snapshot.
const StatusResourceURI = "arm://status"

// handleResourcesList advertises the status resource.
func (s *Server) handleResourcesList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"resources": []map[string]interface{}{
				{
					"uri":         StatusResourceURI,
					"name":        "Arm status",
					"description": "Connection state, resource handle, position, and pen depth of the stylus arm",
					"mimeType":    "application/json",
				},
			},
		},
	}
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

// handleResourcesRead serves the status snapshot. The snapshot reflects
// ArmState at read time, independent of any tool call.
func (s *Server) handleResourcesRead(req *MCPRequest) *MCPResponse {
	var params resourcesReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if params.URI != StatusResourceURI {
		return s.errorResponse(req.ID, -32002, "Resource not found", params.URI)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"contents": []map[string]interface{}{
				{
					"uri":      StatusResourceURI,
					"mimeType": "application/json",
					"text":     mustMarshalJSON(s.arm.Snapshot()),
				},
			},
		},
	}
}
