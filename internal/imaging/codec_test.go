package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage writes a single-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writeTestImage(t, "test-image.png", createInMemoryImage(width, height, c))
}

// writeTestImage PNG-encodes img to name inside t.TempDir(), whatever the extension.
func writeTestImage(t *testing.T, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, img))
	return path
}

func TestDecode(t *testing.T) {
	path := createTestImage(t, 100, 80, color.NRGBA{255, 0, 0, 255})

	img, err := Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestDecode_NonExistent(t *testing.T) {
	_, err := Decode("/nonexistent/path/to/image.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecode_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid-image.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := Decode(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"out.png", false},
		{"out.PNG", false},
		{"out.jpg", false},
		{"out.jpeg", false},
		{"out.gif", false},
		{"out.bmp", false},
		{"out.tif", false},
		{"out.tiff", false},
		{"out.webp", true},
		{"out.xyz", true},
		{"no-extension", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEncodeFile_LosslessRoundTrip(t *testing.T) {
	tests := []struct {
		ext string
		src *image.NRGBA
	}{
		{".png", gradientImage(6, 4)}, // translucent pixels survive PNG
		{".bmp", createPatternImage(6, 4)},
		{".tiff", createPatternImage(6, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "round-trip"+tt.ext)
			require.NoError(t, EncodeFile(path, tt.src, 0))

			img, err := Decode(path)
			require.NoError(t, err)
			assert.Equal(t, tt.src.Pix, ToCanonical(img).Pix)
		})
	}
}

func TestEncodeFile_JPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, EncodeFile(path, createPatternImage(16, 16), 80))

	info, _, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, 16, info.Width)
}

func TestEncodeFile_Unsupported(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"out.webp", "out.xyz"} {
		path := filepath.Join(dir, name)
		err := EncodeFile(path, gradientImage(2, 2), 0)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "%s must not be created", name)
	}
}

func TestEncodeFile_WriteError(t *testing.T) {
	err := EncodeFile("/nonexistent/dir/out.png", gradientImage(2, 2), 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestInspect(t *testing.T) {
	path := createTestImage(t, 200, 150, color.NRGBA{255, 128, 64, 255})

	info, img, err := Inspect(path)
	require.NoError(t, err)
	require.NotNil(t, img)

	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 150, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.FileSizeBytes)
}

func TestInspect_FormatDetection(t *testing.T) {
	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".bmp", "bmp"},
		{".tiff", "tiff"},
		{".webp", "webp"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			// A valid PNG regardless of extension; decoding sniffs the content.
			path := writeTestImage(t, "test-format"+tt.ext, image.NewNRGBA(image.Rect(0, 0, 10, 10)))

			info, _, err := Inspect(path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, info.Format)
		})
	}
}

func TestInspect_NonExistent(t *testing.T) {
	_, _, err := Inspect("/nonexistent/image.png")
	assert.Error(t, err)
}
