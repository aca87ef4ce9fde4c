// Package recipe reads ordered lists of image operations from YAML.
//
// A recipe looks like:
//
//	steps:
//	  - op: rotate90
//	  - op: resize
//	    width: 320
//	    height: 240
//	    filter: lanczos3
//	  - op: brightness
//	    delta: 20
//
// Filters may be given by code (0..4) or by name; unknown codes resize with
// nearest neighbor, unknown names are an error.
package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-handle/internal/imaging"
)

// ErrInvalidRecipe wraps every parse and validation failure.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is the document form of a list of operations.
type Recipe struct {
	Steps []Step `yaml:"steps"`
}

// Step is one operation and whichever parameters it takes.
type Step struct {
	Name    string   `yaml:"op"`
	Degrees int      `yaml:"degrees,omitempty"`
	Axis    string   `yaml:"axis,omitempty"`
	Width   uint32   `yaml:"width,omitempty"`
	Height  uint32   `yaml:"height,omitempty"`
	Filter  string   `yaml:"filter,omitempty"`
	Delta   int32    `yaml:"delta,omitempty"`
	Amount  *float32 `yaml:"amount,omitempty"`
	Sigma   *float32 `yaml:"sigma,omitempty"`
}

// Parse decodes a YAML recipe into operations.
func Parse(data []byte) ([]imaging.Op, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidRecipe)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	return r.Ops()
}

// Load reads and parses the recipe file at path.
func Load(path string) ([]imaging.Op, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	ops, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

// Ops converts every step, failing on the first bad one.
func (r *Recipe) Ops() ([]imaging.Op, error) {
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}
	ops := make([]imaging.Op, 0, len(r.Steps))
	for i, s := range r.Steps {
		op, err := s.Operation()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidRecipe, i+1, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Operation returns the operation the step describes.
func (s Step) Operation() (imaging.Op, error) {
	switch strings.ToLower(strings.TrimSpace(s.Name)) {
	case "rotate90":
		return imaging.Rotate90{}, nil
	case "rotate180":
		return imaging.Rotate180{}, nil
	case "rotate270":
		return imaging.Rotate270{}, nil
	case "rotate":
		return rotation(s.Degrees)
	case "flip_horizontal", "fliph":
		return imaging.FlipHorizontal{}, nil
	case "flip_vertical", "flipv":
		return imaging.FlipVertical{}, nil
	case "flip":
		switch strings.ToLower(s.Axis) {
		case "h", "horizontal":
			return imaging.FlipHorizontal{}, nil
		case "v", "vertical":
			return imaging.FlipVertical{}, nil
		}
		return nil, fmt.Errorf("flip axis must be horizontal or vertical, got %q", s.Axis)
	case "resize":
		if s.Width == 0 || s.Height == 0 {
			return nil, errors.New("resize needs width and height")
		}
		f := imaging.FilterNearest
		if s.Filter != "" {
			var err error
			if f, err = imaging.ParseFilter(s.Filter); err != nil {
				return nil, err
			}
		}
		return imaging.Resize{Width: s.Width, Height: s.Height, Filter: f}, nil
	case "brightness":
		return imaging.Brightness{Delta: s.Delta}, nil
	case "contrast":
		if s.Amount == nil {
			return nil, errors.New("contrast needs amount")
		}
		return imaging.Contrast{Amount: *s.Amount}, nil
	case "blur":
		if s.Sigma == nil {
			return nil, errors.New("blur needs sigma")
		}
		return imaging.Blur{Sigma: *s.Sigma}, nil
	case "grayscale", "greyscale":
		return imaging.Grayscale{}, nil
	case "invert":
		return imaging.Invert{}, nil
	case "":
		return nil, errors.New("missing op")
	}
	return nil, fmt.Errorf("unknown op %q", s.Name)
}

func rotation(degrees int) (imaging.Op, error) {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate90{}, nil
	case 180:
		return imaging.Rotate180{}, nil
	case 270:
		return imaging.Rotate270{}, nil
	}
	return nil, fmt.Errorf("rotation must be a multiple of 90 other than 0, got %d", degrees)
}

// StepFor is the inverse of Step.Operation.
func StepFor(op imaging.Op) (Step, error) {
	switch o := op.(type) {
	case imaging.Resize:
		return Step{Name: o.Name(), Width: o.Width, Height: o.Height, Filter: o.Filter.Normalize().String()}, nil
	case imaging.Brightness:
		return Step{Name: o.Name(), Delta: o.Delta}, nil
	case imaging.Contrast:
		return Step{Name: o.Name(), Amount: &o.Amount}, nil
	case imaging.Blur:
		return Step{Name: o.Name(), Sigma: &o.Sigma}, nil
	case nil:
		return Step{}, fmt.Errorf("%w: nil op", ErrInvalidRecipe)
	}
	return Step{Name: op.Name()}, nil
}

// Marshal renders ops as a recipe document that Parse reads back.
func Marshal(ops []imaging.Op) ([]byte, error) {
	r := Recipe{Steps: make([]Step, 0, len(ops))}
	for _, op := range ops {
		s, err := StepFor(op)
		if err != nil {
			return nil, err
		}
		r.Steps = append(r.Steps, s)
	}
	return yaml.Marshal(&r)
}
