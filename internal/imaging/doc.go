// Package imaging is the pixel side of the image handle library.
//
// It converts between the flat canonical buffer that crosses the C boundary
// and the image.Image values the codec and filter libraries operate on, and it
// wraps those libraries behind a small, closed set of operations.
//
// # Canonical Buffer
//
// Every buffer visible to a caller is row-major, non-premultiplied RGBA8:
//   - 4 bytes per pixel in R, G, B, A order
//   - no row padding (stride is always width*4)
//   - len(buf) == width*height*4
//
// FromCanonical wraps such a buffer as an *image.NRGBA without copying.
// ToCanonical turns any image.Image (including single-channel results such as
// *image.Gray) back into a tight NRGBA whose Pix slice is a canonical buffer.
//
// # Operations
//
// Op is a sealed interface. The concrete variants (Rotate90, Resize,
// Brightness, ...) carry their own parameters and Apply dispatches them with a
// single type switch. Every operation returns a freshly allocated image and
// never writes into its input, so the input may alias a handle's live buffer.
//
// Parameters are passed through unmodified: brightness deltas, contrast
// amounts and blur sigmas are not range-checked. Unknown resize filter codes
// fall back to nearest-neighbour.
//
// # Codecs
//
// Decode and EncodeFile use github.com/disintegration/imaging, which covers
// PNG, JPEG, GIF, BMP and TIFF. WebP can be decoded (golang.org/x/image/webp)
// but has no encoder, so saving to ".webp" reports ErrUnsupportedFormat.
//
// # Inspection
//
// Inspect, MeanColor, DominantColors and SampleColor describe an image for
// operators; Compare measures how far two images are apart. None of them are
// part of the C surface.
//
// # Thread Safety
//
// All functions are stateless and safe to call concurrently on different
// images.
package imaging
