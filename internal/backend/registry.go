package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ironsheep/edge-detect/internal/imaging"
	"github.com/ironsheep/edge-detect/internal/sobel"
)

// Backend is one selectable edge-detection implementation.
type Backend interface {
	ID() string
	Description() string
	Detect(src imaging.IntensityBuffer) (imaging.IntensityBuffer, error)
}

// Built-in backend ids.
const (
	IDReference    = "reference"
	IDFixedPoint   = "fixed-point"
	IDFixedPointL1 = "fixed-point-l1"
)

type engineBackend struct {
	id, desc string
	engine   sobel.Engine
}

func (b engineBackend) ID() string          { return b.id }
func (b engineBackend) Description() string { return b.desc }
func (b engineBackend) Detect(src imaging.IntensityBuffer) (imaging.IntensityBuffer, error) {
	return b.engine.Detect(src)
}

// FromEngine wraps a sobel.Engine as a Backend.
func FromEngine(id, description string, e sobel.Engine) Backend {
	return engineBackend{id: id, desc: description, engine: e}
}

// Descriptor describes a registered backend for listings.
type Descriptor struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Registry is a fixed set of backends addressed by id. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	backends map[string]Backend
	aliases  map[string]string // lowercased alias -> id, for lookup
	labels   map[string]string // alias as registered -> id, for listing
	order    []string
}

// NewRegistry builds a registry from backends. Ids must be non-empty and unique.
func NewRegistry(backends ...Backend) (*Registry, error) {
	r := &Registry{
		backends: make(map[string]Backend, len(backends)),
		aliases:  make(map[string]string),
		labels:   make(map[string]string),
	}
	for _, b := range backends {
		id := b.ID()
		if id == "" {
			return nil, fmt.Errorf("backend with empty id")
		}
		if _, dup := r.backends[id]; dup {
			return nil, fmt.Errorf("duplicate backend id %q", id)
		}
		r.backends[id] = b
		r.order = append(r.order, id)
	}
	sort.Strings(r.order)
	return r, nil
}

// WithAliases returns a copy of r that also resolves each alias to its target
// id. Aliases are matched case-insensitively; targets must be registered.
func (r *Registry) WithAliases(aliases map[string]string) (*Registry, error) {
	out := &Registry{
		backends: r.backends,
		aliases:  make(map[string]string, len(r.aliases)+len(aliases)),
		labels:   make(map[string]string, len(r.labels)+len(aliases)),
		order:    r.order,
	}
	for k, v := range r.aliases {
		out.aliases[k] = v
	}
	for k, v := range r.labels {
		out.labels[k] = v
	}
	for alias, target := range aliases {
		if _, ok := r.backends[target]; !ok {
			return nil, fmt.Errorf("alias %q targets unknown backend %q", alias, target)
		}
		key := strings.ToLower(alias)
		for label := range out.labels {
			if strings.ToLower(label) == key {
				delete(out.labels, label)
			}
		}
		out.aliases[key] = target
		out.labels[alias] = target
	}
	return out, nil
}

// Default returns the registry of built-in backends. The legacy labels "C++"
// and "Assembly" resolve to the reference and fixed-point backends.
func Default() *Registry {
	r, err := NewRegistry(
		FromEngine(IDReference, "portable per-pixel convolution, float64 Euclidean magnitude", sobel.Reference{Mode: sobel.Euclidean}),
		FromEngine(IDFixedPoint, "integer row convolution, parallel rows, table Euclidean magnitude", sobel.FixedPoint{Mode: sobel.Euclidean}),
		FromEngine(IDFixedPointL1, "integer row convolution with |gx|+|gy| approximate magnitude", sobel.FixedPoint{Mode: sobel.L1}),
	)
	if err != nil {
		panic(err)
	}
	r, err = r.WithAliases(map[string]string{
		"C++":      IDReference,
		"Assembly": IDFixedPoint,
	})
	if err != nil {
		panic(err)
	}
	return r
}

// Select resolves id (or a registered alias) to a backend.
func (r *Registry) Select(id string) (Backend, error) {
	if b, ok := r.backends[id]; ok {
		return b, nil
	}
	if target, ok := r.aliases[strings.ToLower(id)]; ok {
		return r.backends[target], nil
	}
	return nil, &UnknownBackendError{ID: id}
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Descriptors lists registered backends in id order with their aliases.
func (r *Registry) Descriptors() []Descriptor {
	byTarget := make(map[string][]string)
	for label, target := range r.labels {
		byTarget[target] = append(byTarget[target], label)
	}
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		aliases := byTarget[id]
		sort.Strings(aliases)
		out = append(out, Descriptor{ID: id, Description: r.backends[id].Description(), Aliases: aliases})
	}
	return out
}

// Run executes b on src. The input is validated first, panics inside the
// backend are recovered, and the output must match the input's shape and own
// its storage. Any failure is returned as *BackendExecutionError with a zero
// buffer.
func Run(b Backend, src imaging.IntensityBuffer) (out imaging.IntensityBuffer, err error) {
	if b == nil {
		return imaging.IntensityBuffer{}, &BackendExecutionError{Err: errors.New("nil backend")}
	}
	id := b.ID()
	if verr := src.Validate(); verr != nil {
		return imaging.IntensityBuffer{}, &BackendExecutionError{ID: id, Err: fmt.Errorf("invalid input: %w", verr)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = imaging.IntensityBuffer{}
			err = &BackendExecutionError{ID: id, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	res, derr := b.Detect(src)
	if derr != nil {
		return imaging.IntensityBuffer{}, &BackendExecutionError{ID: id, Err: derr}
	}
	if res.Width != src.Width || res.Height != src.Height {
		return imaging.IntensityBuffer{}, &BackendExecutionError{
			ID:  id,
			Err: fmt.Errorf("output is %dx%d, input is %dx%d", res.Width, res.Height, src.Width, src.Height),
		}
	}
	if verr := res.Validate(); verr != nil {
		return imaging.IntensityBuffer{}, &BackendExecutionError{ID: id, Err: fmt.Errorf("invalid output: %w", verr)}
	}
	if &res.Pix[0] == &src.Pix[0] || &res.Pix[len(res.Pix)-1] == &src.Pix[len(src.Pix)-1] {
		return imaging.IntensityBuffer{}, &BackendExecutionError{ID: id, Err: errors.New("output shares storage with input")}
	}
	return res, nil
}
