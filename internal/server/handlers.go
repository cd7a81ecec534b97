package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/edge-detect/internal/backend"
	"github.com/ironsheep/edge-detect/internal/imaging"
	"github.com/ironsheep/edge-detect/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "edge_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Unknown backends are reported with code -32001 so clients can tell a bad
// selection apart from other failures (-32000).
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		var unknown *backend.UnknownBackendError
		if errors.As(err, &unknown) {
			return s.errorResponse(req.ID, -32001, "Unknown backend", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "edge_list_backends":
		return s.handleListBackends()
	case "edge_detect":
		return s.handleEdgeDetect(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// BackendsResult lists the registered backends.
type BackendsResult struct {
	Backends []backend.Descriptor `json:"backends"`
}

func (s *Server) handleListBackends() (interface{}, error) {
	return &BackendsResult{Backends: s.registry.Descriptors()}, nil
}

type edgeDetectArgs struct {
	Path       string `json:"path"`
	Backend    string `json:"backend"`
	Tint       string `json:"tint"`
	OutputPath string `json:"output_path"`
}

// EdgeDetectResult is returned by the edge_detect tool.
type EdgeDetectResult struct {
	Backend   string  `json:"backend"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	ElapsedMS float64 `json:"elapsed_ms"`

	// OutputPath is set when the image was written to disk.
	OutputPath string `json:"output_path,omitempty"`

	// ImageBase64 holds the PNG-encoded edge image when no output path was given.
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	// Resolve the backend before touching the file.
	if _, err := s.registry.Select(a.Backend); err != nil {
		return nil, err
	}

	var opts []imaging.Option
	if a.Tint != "" {
		opts = append(opts, imaging.WithTint(a.Tint))
	}
	if err := imaging.ValidateOptions(opts...); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	buf, err := imaging.FromImage(img, imaging.BGRA)
	if err != nil {
		return nil, err
	}

	res, err := pipeline.New(s.registry, opts...).Detect(buf, a.Backend)
	if err != nil {
		return nil, err
	}

	out := &EdgeDetectResult{
		Backend:   res.Edge.BackendID,
		Width:     res.Display.Width,
		Height:    res.Display.Height,
		ElapsedMS: res.Edge.ElapsedMillis(),
	}
	if a.OutputPath != "" {
		if err := imaging.Save(res.Display, a.OutputPath); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
		return out, nil
	}

	out.ImageBase64, err = imaging.EncodePNGBase64(res.Display)
	if err != nil {
		return nil, err
	}
	out.MimeType = "image/png"
	return out, nil
}
