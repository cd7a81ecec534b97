// Package server implements the MCP (Model Context Protocol) server for edge detection.
//
// This package provides a JSON-RPC 2.0 server that exposes the edge-detection
// pipeline through the MCP protocol, so MCP-compatible clients can run the
// detector and compare backends without the CLI.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load image and get metadata
//   - edge_list_backends: List backend ids and aliases
//   - edge_detect: Run Sobel edge detection with a named backend
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process. Each
// edge_detect call copies the cached image into its own pixel buffer, so
// concurrent or repeated calls never share pixel storage.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32001 for an unknown backend id, -32000 for other tool failures,
//     or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, naming the failed pipeline stage
package server
