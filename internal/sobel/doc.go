// Package sobel computes Sobel edge-magnitude images from intensity buffers.
//
// Two interchangeable engines implement the same contract:
//
//   - Reference: per-pixel convolution with clamped indices and a float64
//     magnitude. Easy to audit; exposes the intermediate GradientPair.
//   - FixedPoint: integer-only convolution over a replicate-padded copy,
//     parallel across rows, with a rounded square-root lookup table.
//
// # Kernels
//
//	Gx = [-1 0 1; -2 0 2; -1 0 1]     Gy = [-1 -2 -1; 0 0 0; 1 2 1]
//
// # Border Handling
//
// Samples outside the image take the value of the nearest pixel inside it
// (replicate extension). Output dimensions always equal input dimensions and
// a flat image yields zero everywhere, including the outer ring.
//
// # Tolerance
//
// In Euclidean mode both engines produce the same bytes; callers comparing
// engines should still allow a difference of one intensity level so other
// implementations of the contract can round differently.
package sobel
