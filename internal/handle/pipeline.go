package handle

import (
	"fmt"

	"github.com/ironsheep/image-handle/internal/imaging"
	"go.uber.org/zap"
)

// Apply runs op on the image behind tok and replaces its contents.
//
// Every mutating operation goes through the same steps:
//
//  1. resolve tok
//  2. view the current buffer as an image (no copy)
//  3. check the output size against the buffer cap, then run op, which
//     always produces a new image
//  4. convert the result to canonical RGBA8 in a newly allocated buffer
//  5. install the new dimensions and buffer, then free the old buffer
//
// If any step before 5 fails the handle is left exactly as it was.
//
// # Errors
//
//   - ErrInvalidHandle if tok does not resolve, its buffer is absent or
//     malformed, or op is not a known operation
//   - ErrAllocation if the output would exceed the buffer cap or the new
//     buffer cannot be allocated
func (m *Manager) Apply(tok Token, op imaging.Op) error {
	img := m.table.get(tok)
	if img == nil {
		return ErrInvalidHandle
	}

	src, err := imaging.FromCanonical(img.buf, img.width, img.height)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}

	if op != nil {
		if err := m.checkSize(imaging.OutputSize(img.width, img.height, op)); err != nil {
			return err
		}
	}

	out, err := imaging.Apply(src, op)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}

	canon := imaging.ToCanonical(out)
	width, height := imaging.Dimensions(canon)
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %s produced an empty image", ErrInvalidHandle, op.Name())
	}

	buf, err := m.allocCopy(canon.Pix)
	if err != nil {
		return err
	}
	img.install(m.alloc, width, height, buf)

	Logger().Debug("image transformed",
		zap.Stringer("token", tok),
		zap.String("op", op.Name()),
		zap.Uint32("width", width),
		zap.Uint32("height", height))
	return nil
}

// StepError reports which operation of a sequence failed.
type StepError struct {
	Step int // 1-based
	Op   string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ApplyAll runs ops in order, stopping at the first failure, which is
// returned as a *StepError. Operations that already succeeded stay applied.
func (m *Manager) ApplyAll(tok Token, ops ...imaging.Op) error {
	for i, op := range ops {
		if err := m.Apply(tok, op); err != nil {
			return &StepError{Step: i + 1, Op: opName(op), Err: err}
		}
	}
	return nil
}

func opName(op imaging.Op) string {
	if op == nil {
		return "<nil>"
	}
	return op.Name()
}
