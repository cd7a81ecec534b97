package imaging

import "fmt"

// UnsupportedFormatError reports a channel layout an operation cannot handle.
type UnsupportedFormatError struct {
	Op     string
	Layout Layout
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported channel layout %v for %s", e.Layout, e.Op)
}

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ToGray reduces a color buffer to a single-channel intensity buffer.
//
// Each pixel becomes 0.299*R + 0.587*G + 0.114*B, clamped to [0,255] and
// truncated toward zero, which is what a direct byte cast of the weighted sum
// produces. Alpha is ignored.
//
// Returns:
//   - IntensityBuffer: new storage with the same width and height as src.
//   - error: *UnsupportedFormatError for Gray8 input, or a geometry error if
//     src fails Validate. No output is produced on error.
func ToGray(src PixelBuffer) (IntensityBuffer, error) {
	if !src.Layout.IsColor() {
		return IntensityBuffer{}, &UnsupportedFormatError{Op: "grayscale", Layout: src.Layout}
	}
	if err := src.Validate(); err != nil {
		return IntensityBuffer{}, fmt.Errorf("invalid pixel buffer: %w", err)
	}

	ro, gO, bo, _ := src.Layout.offsets()
	dst := NewIntensityBuffer(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+src.Width*4]
		out := dst.Pix[y*dst.Width : (y+1)*dst.Width]
		for x := range out {
			px := row[x*4 : x*4+4]
			out[x] = luma(px[ro], px[gO], px[bo])
		}
	}
	return dst, nil
}

func luma(r, g, b uint8) uint8 {
	// Explicit conversions keep the products rounded, so no platform fuses
	// them into FMA and the truncated byte is identical everywhere.
	v := float64(lumaR*float64(r)) + float64(lumaG*float64(g)) + float64(lumaB*float64(b))
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
