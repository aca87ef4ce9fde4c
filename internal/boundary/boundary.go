package boundary

import (
	"fmt"
	"runtime/debug"

	"github.com/ironsheep/image-handle/internal/handle"
	"github.com/ironsheep/image-handle/internal/imaging"
	"go.uber.org/zap"
)

// Boundary exposes the handle manager through result codes.
type Boundary struct {
	m *handle.Manager
}

// New wraps m.
func New(m *handle.Manager) *Boundary {
	return &Boundary{m: m}
}

// Manager returns the wrapped manager.
func (b *Boundary) Manager() *handle.Manager { return b.m }

// guard runs fn and turns its error or panic into a Result. fallback is what
// a panic, or an error outside the handle taxonomy, is reported as.
func guard(name string, tok handle.Token, fallback Result, fn func() error) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("recovered panic at boundary",
				zap.String("op", name),
				zap.Stringer("token", tok),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res = fallback
		}
	}()

	err := fn()
	res = ResultOf(err, fallback)
	if err != nil {
		Logger().Debug("operation failed",
			zap.String("op", name),
			zap.Stringer("token", tok),
			zap.Stringer("result", res),
			zap.Error(err))
	}
	return res
}

// construct is guard for entry points that produce a token. Any failure
// yields the null token.
func construct(name string, fn func() (handle.Token, error)) (tok handle.Token) {
	guard(name, 0, InvalidHandle, func() error {
		t, err := fn()
		if err != nil {
			return err
		}
		tok = t
		return nil
	})
	return tok
}

// Load decodes the file at path into a new handle, or returns 0.
func (b *Boundary) Load(path string) handle.Token {
	tok, _ := b.LoadResult(path)
	return tok
}

// LoadResult is Load that also reports why it failed.
func (b *Boundary) LoadResult(path string) (handle.Token, Result) {
	var tok handle.Token
	res := guard("load", 0, LoadFailed, func() error {
		t, err := b.m.Load(path)
		tok = t
		return err
	})
	if res != Success {
		return 0, res
	}
	return tok, Success
}

// FromRaw copies an RGBA8 buffer into a new handle, or returns 0.
func (b *Boundary) FromRaw(data []byte, width, height uint32) handle.Token {
	return construct("from_raw", func() (handle.Token, error) {
		return b.m.FromRaw(data, width, height)
	})
}

// Save writes the image behind tok to path.
func (b *Boundary) Save(tok handle.Token, path string) Result {
	if tok == 0 {
		return InvalidHandle
	}
	return guard("save", tok, SaveFailed, func() error {
		return b.m.Save(tok, path)
	})
}

// Transform applies op to the image behind tok.
func (b *Boundary) Transform(tok handle.Token, op imaging.Op) Result {
	if tok == 0 {
		return InvalidHandle
	}
	name := "<nil>"
	if op != nil {
		name = op.Name()
	}
	return guard(name, tok, InvalidHandle, func() error {
		return b.m.Apply(tok, op)
	})
}

// Rotate90 rotates the image a quarter turn clockwise.
func (b *Boundary) Rotate90(tok handle.Token) Result {
	return b.Transform(tok, imaging.Rotate90{})
}

// Rotate180 rotates the image a half turn.
func (b *Boundary) Rotate180(tok handle.Token) Result {
	return b.Transform(tok, imaging.Rotate180{})
}

// Rotate270 rotates the image three quarter turns clockwise.
func (b *Boundary) Rotate270(tok handle.Token) Result {
	return b.Transform(tok, imaging.Rotate270{})
}

// FlipHorizontal mirrors the image left to right.
func (b *Boundary) FlipHorizontal(tok handle.Token) Result {
	return b.Transform(tok, imaging.FlipHorizontal{})
}

// FlipVertical mirrors the image top to bottom.
func (b *Boundary) FlipVertical(tok handle.Token) Result {
	return b.Transform(tok, imaging.FlipVertical{})
}

// ResizeWithFilter fits the image inside width x height. Filter codes
// outside 0..4 fall back to nearest neighbor.
func (b *Boundary) ResizeWithFilter(tok handle.Token, width, height, filter uint32) Result {
	return b.Transform(tok, imaging.Resize{Width: width, Height: height, Filter: imaging.Filter(filter)})
}

// AdjustBrightness adds delta to every color channel, saturating at 0 and 255.
func (b *Boundary) AdjustBrightness(tok handle.Token, delta int32) Result {
	return b.Transform(tok, imaging.Brightness{Delta: delta})
}

// AdjustContrast scales contrast around mid-grey by ((100+amount)/100)^2.
func (b *Boundary) AdjustContrast(tok handle.Token, amount float32) Result {
	return b.Transform(tok, imaging.Contrast{Amount: amount})
}

// Blur applies a Gaussian blur with the given sigma. Non-positive sigma
// leaves the pixels unchanged.
func (b *Boundary) Blur(tok handle.Token, sigma float32) Result {
	return b.Transform(tok, imaging.Blur{Sigma: sigma})
}

// Grayscale converts the image to opaque luma, discarding alpha.
func (b *Boundary) Grayscale(tok handle.Token) Result {
	return b.Transform(tok, imaging.Grayscale{})
}

// Invert replaces every color channel c with 255-c. Alpha is kept.
func (b *Boundary) Invert(tok handle.Token) Result {
	return b.Transform(tok, imaging.Invert{})
}

// Width returns the image width, or 0.
func (b *Boundary) Width(tok handle.Token) (w uint32) {
	if tok == 0 {
		return 0
	}
	guard("width", tok, InvalidHandle, func() error {
		w = b.m.Width(tok)
		return nil
	})
	return w
}

// Height returns the image height, or 0.
func (b *Boundary) Height(tok handle.Token) (h uint32) {
	if tok == 0 {
		return 0
	}
	guard("height", tok, InvalidHandle, func() error {
		h = b.m.Height(tok)
		return nil
	})
	return h
}

// Data returns the image's RGBA8 buffer without copying, or nil. It stays
// valid until the next mutating call on tok or its release.
func (b *Boundary) Data(tok handle.Token) (data []byte) {
	if tok == 0 {
		return nil
	}
	guard("data", tok, InvalidHandle, func() error {
		data = b.m.Data(tok)
		return nil
	})
	return data
}

// DataLen returns the buffer length in bytes, or 0.
func (b *Boundary) DataLen(tok handle.Token) (n int) {
	if tok == 0 {
		return 0
	}
	guard("data_len", tok, InvalidHandle, func() error {
		n = b.m.Len(tok)
		return nil
	})
	return n
}

// Release frees the image behind tok. Releasing 0 or a stale token does
// nothing.
func (b *Boundary) Release(tok handle.Token) {
	if tok == 0 {
		return
	}
	guard("release", tok, InvalidHandle, func() error {
		b.m.Release(tok)
		return nil
	})
}

// Apply runs ops in order on tok, stopping at the first failure. The error
// wraps a *handle.StepError naming the failing step when one is known.
func (b *Boundary) Apply(tok handle.Token, ops ...imaging.Op) (Result, error) {
	var err error
	res := guard("apply", tok, InvalidHandle, func() error {
		err = b.m.ApplyAll(tok, ops...)
		return err
	})
	if res != Success && err == nil {
		err = fmt.Errorf("apply: %s", res)
	}
	return res, err
}
