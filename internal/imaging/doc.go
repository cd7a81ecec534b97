// Package imaging provides the pixel buffers of the edge-detection pipeline
// and the conversions at both ends of it.
//
// PixelBuffer is a row-major color or gray image with an explicit stride;
// IntensityBuffer is a tightly packed single-channel image. ToGray turns the
// first into the second and ToDisplayBuffer turns an edge magnitude back into
// an opaque color image. The loader functions (ImageCache, FromImage, Save)
// bridge to image files and are used only by the CLI and the MCP server.
//
// # Coordinate System
//
// Buffer accessors take (row, col), both 0-based from the top-left corner:
//   - row: 0 to Height-1, increasing downward
//   - col: 0 to Width-1, increasing rightward
//
// # Ownership
//
// Every conversion allocates its output. Buffers are passed from stage to
// stage and never aliased, so independent requests may run concurrently
// without locking. The ImageCache type is safe for concurrent use.
//
// # Error Handling
//
// Functions return typed errors for invalid inputs:
//   - *BoundsError for pixel access outside the buffer
//   - *UnsupportedFormatError for a channel layout an operation cannot handle
//   - plain wrapped errors for inconsistent geometry and file I/O failures
package imaging
