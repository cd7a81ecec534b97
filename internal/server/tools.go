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
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "edge_list_backends",
			Description: "List the edge-detection backends that edge_detect accepts, with their aliases.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "edge_detect",
			Description: "Run Sobel edge detection on an image with the chosen backend. Returns the elapsed backend time and the edge image as base64 PNG, or writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"backend": map[string]interface{}{
						"type":        "string",
						"description": "Backend id from edge_list_backends (required, no default)",
					},
					"tint": map[string]interface{}{
						"type":        "string",
						"description": "Hex color for edges, e.g. #00FF00. Default white",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write the result to instead of returning base64; format follows the extension",
					},
				},
				"required": []string{"path", "backend"},
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
