// Command libimagehandle builds the image handle library as a C shared
// object:
//
//	go build -buildmode=c-shared -o libimagehandle.so ./cmd/libimagehandle
//
// Handles are opaque uint64_t tokens, 0 meaning none. Effectful calls
// return an int32_t result code (0 on success). Pixel buffers are allocated
// with malloc, so the pointer from image_get_data stays readable from C
// until the next mutating call on the handle or image_free.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/ironsheep/image-handle/internal/boundary"
	"github.com/ironsheep/image-handle/internal/cmem"
	"github.com/ironsheep/image-handle/internal/config"
	"github.com/ironsheep/image-handle/internal/handle"
	"github.com/ironsheep/image-handle/internal/imaging"
)

var (
	lib     *boundary.Boundary
	libOnce sync.Once
)

// library returns the process-wide boundary, configuring it from the
// environment on first use.
func library() *boundary.Boundary {
	libOnce.Do(func() {
		cfg, err := config.Load("")
		if err != nil {
			cfg = config.Default()
		}
		if log, err := cfg.Logger(); err == nil {
			handle.SetLogger(log.Named("handle"))
			boundary.SetLogger(log.Named("boundary"))
		}
		lib = boundary.New(handle.NewManager(
			handle.WithAllocator(cmem.Allocator{}),
			handle.WithJPEGQuality(cfg.JPEGQuality),
			handle.WithMaxBufferBytes(cfg.MaxBufferBytes),
		))
	})
	return lib
}

func goPath(p *C.char) string {
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

func token(h C.uint64_t) handle.Token { return handle.Token(h) }

func result(r boundary.Result) C.int32_t { return C.int32_t(r) }

//export image_load
func image_load(path *C.char) C.uint64_t {
	return C.uint64_t(library().Load(goPath(path)))
}

//export image_from_rgba
func image_from_rgba(data *C.uint8_t, width, height C.uint32_t) C.uint64_t {
	if data == nil || width == 0 || height == 0 {
		return 0
	}
	n, ok := imaging.CanonicalLen(uint32(width), uint32(height))
	if !ok {
		return 0
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(data)), n)
	return C.uint64_t(library().FromRaw(buf, uint32(width), uint32(height)))
}

//export image_save
func image_save(h C.uint64_t, path *C.char) C.int32_t {
	return result(library().Save(token(h), goPath(path)))
}

//export image_rotate_90
func image_rotate_90(h C.uint64_t) C.int32_t {
	return result(library().Rotate90(token(h)))
}

//export image_rotate_180
func image_rotate_180(h C.uint64_t) C.int32_t {
	return result(library().Rotate180(token(h)))
}

//export image_rotate_270
func image_rotate_270(h C.uint64_t) C.int32_t {
	return result(library().Rotate270(token(h)))
}

//export image_flip_horizontal
func image_flip_horizontal(h C.uint64_t) C.int32_t {
	return result(library().FlipHorizontal(token(h)))
}

//export image_flip_vertical
func image_flip_vertical(h C.uint64_t) C.int32_t {
	return result(library().FlipVertical(token(h)))
}

//export image_resize_with_filter
func image_resize_with_filter(h C.uint64_t, width, height, filter C.uint32_t) C.int32_t {
	return result(library().ResizeWithFilter(token(h), uint32(width), uint32(height), uint32(filter)))
}

//export image_adjust_brightness
func image_adjust_brightness(h C.uint64_t, value C.int32_t) C.int32_t {
	return result(library().AdjustBrightness(token(h), int32(value)))
}

//export image_adjust_contrast
func image_adjust_contrast(h C.uint64_t, contrast C.float) C.int32_t {
	return result(library().AdjustContrast(token(h), float32(contrast)))
}

//export image_blur
func image_blur(h C.uint64_t, sigma C.float) C.int32_t {
	return result(library().Blur(token(h), float32(sigma)))
}

//export image_grayscale
func image_grayscale(h C.uint64_t) C.int32_t {
	return result(library().Grayscale(token(h)))
}

//export image_invert
func image_invert(h C.uint64_t) C.int32_t {
	return result(library().Invert(token(h)))
}

//export image_get_width
func image_get_width(h C.uint64_t) C.uint32_t {
	return C.uint32_t(library().Width(token(h)))
}

//export image_get_height
func image_get_height(h C.uint64_t) C.uint32_t {
	return C.uint32_t(library().Height(token(h)))
}

//export image_get_data
func image_get_data(h C.uint64_t) *C.uint8_t {
	data := library().Data(token(h))
	if len(data) == 0 {
		return nil
	}
	return (*C.uint8_t)(unsafe.Pointer(unsafe.SliceData(data)))
}

//export image_get_data_len
func image_get_data_len(h C.uint64_t) C.size_t {
	return C.size_t(library().DataLen(token(h)))
}

//export image_free
func image_free(h C.uint64_t) {
	library().Release(token(h))
}

//export image_live_count
func image_live_count() C.size_t {
	return C.size_t(library().Manager().Live())
}

func main() {}
