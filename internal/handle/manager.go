package handle

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ironsheep/image-handle/internal/imaging"
	"go.uber.org/zap"
)

// Image is the state behind one token: dimensions plus an owned canonical
// RGBA8 buffer. A released image has no buffer and zero dimensions.
type Image struct {
	width  uint32
	height uint32
	buf    []byte
}

// install replaces the image's contents with a freshly allocated buffer and
// frees the previous one.
func (img *Image) install(alloc Allocator, width, height uint32, buf []byte) {
	old := img.buf
	img.width, img.height, img.buf = width, height, buf
	if len(old) > 0 {
		alloc.Free(old)
	}
}

// Manager owns every image handle it has issued and the allocator their
// buffers come from.
//
// Distinct tokens can be used from different goroutines concurrently. Calls
// that mutate the same token must not overlap; that is the caller's contract
// and is not checked.
type Manager struct {
	table       *table
	alloc       Allocator
	jpegQuality int
	maxBytes    int
}

// DefaultMaxBufferBytes caps a single image buffer at 1 GiB.
const DefaultMaxBufferBytes = 1 << 30

// Option configures a Manager.
type Option func(*Manager)

// WithAllocator sets the allocator used for image buffers.
func WithAllocator(a Allocator) Option {
	return func(m *Manager) {
		if a != nil {
			m.alloc = a
		}
	}
}

// WithJPEGQuality sets the quality used when saving JPEG files.
func WithJPEGQuality(q int) Option {
	return func(m *Manager) { m.jpegQuality = q }
}

// WithMaxBufferBytes caps the size of any one image buffer. Loads and
// transforms that would need more fail with ErrAllocation before any pixel
// work is done. n <= 0 keeps the default.
func WithMaxBufferBytes(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxBytes = n
		}
	}
}

// NewManager returns an empty manager. Buffers come from the Go heap unless
// WithAllocator says otherwise.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		table:       newTable(),
		alloc:       HeapAllocator{},
		jpegQuality: imaging.DefaultJPEGQuality,
		maxBytes:    DefaultMaxBufferBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load decodes the image file at path into a new handle.
//
// # Errors
//
//   - ErrInvalidPath if path is empty or not valid UTF-8
//   - ErrUnsupportedFormat if no decoder recognizes the file contents
//   - ErrLoadFailed if the file cannot be read or decoding fails
//   - ErrAllocation if the buffer cannot be allocated
func (m *Manager) Load(path string) (Token, error) {
	if err := checkPath(path); err != nil {
		return 0, err
	}

	img, err := imaging.Decode(path)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return 0, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	canon := imaging.ToCanonical(img)
	width, height := imaging.Dimensions(canon)
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("%w: %s has no pixels", ErrLoadFailed, path)
	}

	tok, err := m.adopt(canon.Pix, width, height)
	if err != nil {
		return 0, err
	}

	Logger().Debug("image loaded",
		zap.Stringer("token", tok),
		zap.String("path", path),
		zap.Uint32("width", width),
		zap.Uint32("height", height))
	return tok, nil
}

// FromRaw copies a caller-supplied RGBA8 buffer into a new handle.
//
// data must be non-nil and exactly width*height*4 bytes with both dimensions
// non-zero; otherwise ErrInvalidHandle is returned. The caller's slice is
// never retained.
func (m *Manager) FromRaw(data []byte, width, height uint32) (Token, error) {
	if data == nil || width == 0 || height == 0 {
		return 0, ErrInvalidHandle
	}
	n, ok := imaging.CanonicalLen(width, height)
	if !ok || len(data) != n {
		return 0, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidHandle, len(data), width, height)
	}

	tok, err := m.adopt(data, width, height)
	if err != nil {
		return 0, err
	}

	Logger().Debug("image created from raw buffer",
		zap.Stringer("token", tok),
		zap.Uint32("width", width),
		zap.Uint32("height", height))
	return tok, nil
}

// adopt copies pix into a newly allocated buffer and registers it.
func (m *Manager) adopt(pix []byte, width, height uint32) (Token, error) {
	buf, err := m.allocCopy(pix)
	if err != nil {
		return 0, err
	}
	img := &Image{}
	img.install(m.alloc, width, height, buf)
	return m.table.insert(img), nil
}

// checkSize fails with ErrAllocation if a width x height buffer is over the
// manager's cap or not addressable at all.
func (m *Manager) checkSize(width, height uint32) error {
	n, ok := imaging.CanonicalLen(width, height)
	if !ok || n > m.maxBytes {
		return fmt.Errorf("%w: %dx%d image exceeds %d byte buffer limit", ErrAllocation, width, height, m.maxBytes)
	}
	return nil
}

func (m *Manager) allocCopy(pix []byte) ([]byte, error) {
	if len(pix) > m.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d byte buffer limit", ErrAllocation, len(pix), m.maxBytes)
	}
	buf, err := m.alloc.Alloc(len(pix))
	if err != nil {
		if errors.Is(err, ErrAllocation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	copy(buf, pix)
	return buf, nil
}

// Save encodes the image behind tok to path, choosing the format from the
// path's extension.
//
// # Errors
//
//   - ErrInvalidHandle if tok does not resolve or its buffer is malformed
//   - ErrInvalidPath if path is empty or not valid UTF-8
//   - ErrUnsupportedFormat if the extension has no encoder (e.g. ".webp")
//   - ErrSaveFailed if encoding or writing fails
func (m *Manager) Save(tok Token, path string) error {
	img := m.table.get(tok)
	if img == nil {
		return ErrInvalidHandle
	}
	if err := checkPath(path); err != nil {
		return err
	}

	view, err := imaging.FromCanonical(img.buf, img.width, img.height)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}

	if err := imaging.EncodeFile(path, view, m.jpegQuality); err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	Logger().Debug("image saved", zap.Stringer("token", tok), zap.String("path", path))
	return nil
}

// Release frees the buffer behind tok and then the handle itself.
//
// The null token is ignored. Releasing a token twice, or one this manager
// never issued, is logged and otherwise ignored.
func (m *Manager) Release(tok Token) {
	if tok == 0 {
		return
	}

	img, ok := m.table.remove(tok)
	if !ok {
		Logger().Warn("release of unknown or stale image handle", zap.Stringer("token", tok))
		return
	}
	img.install(m.alloc, 0, 0, nil)

	Logger().Debug("image released", zap.Stringer("token", tok))
}

// Width returns the image width, or 0 if tok does not resolve.
func (m *Manager) Width(tok Token) uint32 {
	if img := m.table.get(tok); img != nil {
		return img.width
	}
	return 0
}

// Height returns the image height, or 0 if tok does not resolve.
func (m *Manager) Height(tok Token) uint32 {
	if img := m.table.get(tok); img != nil {
		return img.height
	}
	return 0
}

// Data returns the handle's canonical buffer without copying, or nil if tok
// does not resolve. The slice is only valid until the next mutating call on
// tok or its release.
func (m *Manager) Data(tok Token) []byte {
	if img := m.table.get(tok); img != nil {
		return img.buf
	}
	return nil
}

// Len returns the buffer length in bytes, or 0 if tok does not resolve.
func (m *Manager) Len(tok Token) int {
	if img := m.table.get(tok); img != nil {
		return len(img.buf)
	}
	return 0
}

// Live returns the number of handles that have not been released.
func (m *Manager) Live() int {
	return m.table.count()
}

// Close releases every live handle.
func (m *Manager) Close() {
	toks := m.table.tokens()
	for _, tok := range toks {
		m.Release(tok)
	}
	if len(toks) > 0 {
		Logger().Info("released outstanding image handles", zap.Int("count", len(toks)))
	}
}

func checkPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidPath)
	}
	return nil
}
