package sobel

import (
	"fmt"
	"math"

	"github.com/ironsheep/edge-detect/internal/imaging"
)

// Engine computes an edge-magnitude image from an intensity image.
//
// Implementations must return a buffer with the input's dimensions, must not
// modify the input, and must be safe for concurrent use on independent buffers.
type Engine interface {
	Detect(src imaging.IntensityBuffer) (imaging.IntensityBuffer, error)
}

// Mode selects how the two gradients are combined into a magnitude.
type Mode int

const (
	// Euclidean is min(255, round(sqrt(gx² + gy²))). It is the default.
	Euclidean Mode = iota
	// L1 is the approximation min(255, |gx| + |gy|). It overestimates
	// diagonal edges by up to a factor of sqrt(2).
	L1
)

func (m Mode) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case L1:
		return "l1"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Kernels, indexed [ky+1][kx+1].
var (
	KernelX = [3][3]int16{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	KernelY = [3][3]int16{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// MaxGradient bounds |gx| and |gy|: the positive kernel weights sum to 4.
const MaxGradient = 4 * 255

// GradientPair holds the signed horizontal and vertical gradients of an image,
// row-major with the source's width.
type GradientPair struct {
	Width, Height int
	Gx, Gy        []int16
}

// Gradients convolves src with both Sobel kernels.
//
// Neighbors outside the image take the value of the nearest in-range pixel
// (replicate extension), so every pixel, including the outer ring, gets a
// gradient and no read leaves the buffer.
func Gradients(src imaging.IntensityBuffer) GradientPair {
	w, h := src.Width, src.Height
	gp := GradientPair{
		Width:  w,
		Height: h,
		Gx:     make([]int16, w*h),
		Gy:     make([]int16, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy int16
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, h-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, w-1)
					v := int16(src.Pix[py*w+px])
					gx += v * KernelX[ky+1][kx+1]
					gy += v * KernelY[ky+1][kx+1]
				}
			}
			gp.Gx[y*w+x] = gx
			gp.Gy[y*w+x] = gy
		}
	}
	return gp
}

// Combine folds a gradient pair into an 8-bit magnitude image.
func Combine(gp GradientPair, mode Mode) imaging.IntensityBuffer {
	dst := imaging.NewIntensityBuffer(gp.Width, gp.Height)
	for i := range dst.Pix {
		dst.Pix[i] = magnitude(gp.Gx[i], gp.Gy[i], mode)
	}
	return dst
}

func magnitude(gx, gy int16, mode Mode) uint8 {
	if mode == L1 {
		s := abs(int32(gx)) + abs(int32(gy))
		if s > 255 {
			return 255
		}
		return uint8(s)
	}
	m := math.Round(math.Sqrt(float64(gx)*float64(gx) + float64(gy)*float64(gy)))
	if m > 255 {
		return 255
	}
	return uint8(m)
}

// Reference is the portable implementation: a direct per-pixel convolution
// with clamped neighbor indices followed by a floating point magnitude.
type Reference struct {
	Mode Mode
}

// Detect implements Engine.
func (r Reference) Detect(src imaging.IntensityBuffer) (imaging.IntensityBuffer, error) {
	if err := src.Validate(); err != nil {
		return imaging.IntensityBuffer{}, err
	}
	return Combine(Gradients(src), r.Mode), nil
}

// clamp constrains an integer value to the range [min, max].
// Used for replicate border handling in the convolution.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
