package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded images to avoid redundant
// disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an
// image is loaded, subsequent Load() calls for the same path return the cached
// copy without disk I/O. Callers convert with FromImage, which always copies, so
// cached images are never mutated by the pipeline.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/photo.bmp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	buf, err := imaging.FromImage(img, imaging.BGRA)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Supported formats are BMP, PNG, JPEG, GIF and TIFF. EXIF orientation in JPEG
// files is applied so the pixel grid matches what a viewer shows.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not in a supported format
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format implied by the file extension: "bmp", "png",
	// "jpeg", "gif", "tiff", or "unknown".
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// FromImage copies any image.Image into a new PixelBuffer with the given
// color layout (BGRA or RGBA) and minimal stride. Colors are taken
// non-premultiplied. Gray8 is rejected with *UnsupportedFormatError since the
// pipeline needs color input.
func FromImage(img image.Image, layout Layout) (PixelBuffer, error) {
	if !layout.IsColor() {
		return PixelBuffer{}, &UnsupportedFormatError{Op: "load", Layout: layout}
	}
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	buf := PixelBuffer{Width: w, Height: h, Stride: nrgba.Stride, Layout: layout, Pix: nrgba.Pix}
	if layout == BGRA {
		for y := 0; y < h; y++ {
			row := buf.Pix[y*buf.Stride : y*buf.Stride+w*4]
			for x := 0; x < len(row); x += 4 {
				row[x], row[x+2] = row[x+2], row[x]
			}
		}
	}
	return buf, nil
}

// ToImage copies a PixelBuffer into a standard library image. Color layouts
// become *image.NRGBA and Gray8 becomes *image.Gray.
func ToImage(p PixelBuffer) (image.Image, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, p.Width, p.Height)
	if p.Layout == Gray8 {
		g := image.NewGray(rect)
		for y := 0; y < p.Height; y++ {
			copy(g.Pix[y*g.Stride:y*g.Stride+p.Width], p.Pix[y*p.Stride:])
		}
		return g, nil
	}

	out := image.NewNRGBA(rect)
	ro, gO, bo, ao := p.Layout.offsets()
	for y := 0; y < p.Height; y++ {
		src := p.Pix[y*p.Stride : y*p.Stride+p.Width*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+p.Width*4]
		for x := 0; x < len(src); x += 4 {
			dst[x+0] = src[x+ro]
			dst[x+1] = src[x+gO]
			dst[x+2] = src[x+bo]
			dst[x+3] = src[x+ao]
		}
	}
	return out, nil
}

// Save encodes p to path. The format is chosen from the file extension;
// missing parent directories are created.
func Save(p PixelBuffer, path string) error {
	img, err := ToImage(p)
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// EncodePNGBase64 encodes p as a base64 PNG string.
func EncodePNGBase64(p PixelBuffer) (string, error) {
	img, err := ToImage(p)
	if err != nil {
		return "", fmt.Errorf("failed to convert image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
