package handle

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/ironsheep/image-handle/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromRaw(t *testing.T, m *Manager, data []byte, width, height uint32) Token {
	t.Helper()
	tok, err := m.FromRaw(data, width, height)
	require.NoError(t, err)
	return tok
}

func snapshot(m *Manager, tok Token) []byte {
	return append([]byte(nil), m.Data(tok)...)
}

func TestApply_RotationIdentities(t *testing.T) {
	m, _ := newTrackedManager(t)
	original := patternPixels(5, 3)

	t.Run("rotate90 four times", func(t *testing.T) {
		tok := fromRaw(t, m, original, 5, 3)
		for i := 0; i < 4; i++ {
			require.NoError(t, m.Apply(tok, imaging.Rotate90{}))
		}
		assert.Equal(t, original, m.Data(tok))
	})

	t.Run("rotate90 swaps dimensions", func(t *testing.T) {
		tok := fromRaw(t, m, original, 5, 3)
		require.NoError(t, m.Apply(tok, imaging.Rotate90{}))
		assert.Equal(t, uint32(3), m.Width(tok))
		assert.Equal(t, uint32(5), m.Height(tok))
	})

	t.Run("rotate180 equals rotate90 twice", func(t *testing.T) {
		a := fromRaw(t, m, original, 5, 3)
		b := fromRaw(t, m, original, 5, 3)
		require.NoError(t, m.Apply(a, imaging.Rotate180{}))
		require.NoError(t, m.ApplyAll(b, imaging.Rotate90{}, imaging.Rotate90{}))
		assert.Equal(t, m.Data(a), m.Data(b))
	})

	t.Run("rotate270 undoes rotate90", func(t *testing.T) {
		tok := fromRaw(t, m, original, 5, 3)
		require.NoError(t, m.ApplyAll(tok, imaging.Rotate90{}, imaging.Rotate270{}))
		assert.Equal(t, original, m.Data(tok))
	})
}

func TestApply_Involutions(t *testing.T) {
	m, _ := newTrackedManager(t)
	original := patternPixels(4, 6)

	for _, op := range []imaging.Op{imaging.Invert{}, imaging.FlipHorizontal{}, imaging.FlipVertical{}} {
		t.Run(op.Name(), func(t *testing.T) {
			tok := fromRaw(t, m, original, 4, 6)

			require.NoError(t, m.Apply(tok, op))
			assert.NotEqual(t, original, m.Data(tok))

			require.NoError(t, m.Apply(tok, op))
			assert.Equal(t, original, m.Data(tok))
		})
	}
}

func TestApply_UnknownFilterFallsBackToNearest(t *testing.T) {
	m, _ := newTrackedManager(t)
	original := patternPixels(9, 7)

	a := fromRaw(t, m, original, 9, 7)
	b := fromRaw(t, m, original, 9, 7)
	require.NoError(t, m.Apply(a, imaging.Resize{Width: 4, Height: 4, Filter: imaging.Filter(99)}))
	require.NoError(t, m.Apply(b, imaging.Resize{Width: 4, Height: 4, Filter: imaging.FilterNearest}))

	assert.Equal(t, m.Width(b), m.Width(a))
	assert.Equal(t, m.Height(b), m.Height(a))
	assert.Equal(t, m.Data(b), m.Data(a))
}

func TestApply_ResizeKeepsAspectRatio(t *testing.T) {
	m, _ := newTrackedManager(t)
	tok := fromRaw(t, m, patternPixels(40, 20), 40, 20)

	require.NoError(t, m.Apply(tok, imaging.Resize{Width: 10, Height: 10, Filter: imaging.FilterLanczos3}))

	assert.Equal(t, uint32(10), m.Width(tok))
	assert.Equal(t, uint32(5), m.Height(tok))
	assert.Equal(t, 10*5*4, m.Len(tok))
}

// The 2x2 red/green/blue/white scenario: grayscale leaves four opaque
// pixels whose color channels are equal.
func TestApply_GrayscaleScenario(t *testing.T) {
	m, _ := newTrackedManager(t)
	tok := fromRaw(t, m, scenarioPixels, 2, 2)

	require.NoError(t, m.Apply(tok, imaging.Grayscale{}))

	require.Equal(t, uint32(2), m.Width(tok))
	require.Equal(t, uint32(2), m.Height(tok))
	data := m.Data(tok)
	require.Len(t, data, 16)
	for i := 0; i < 4; i++ {
		px := data[i*4 : i*4+4]
		assert.Equal(t, px[0], px[1], "pixel %d", i)
		assert.Equal(t, px[1], px[2], "pixel %d", i)
		assert.Equal(t, uint8(255), px[3], "pixel %d", i)
	}
	assert.Greater(t, data[12], data[0], "white is brighter than red")
	assert.Greater(t, data[4], data[8], "green is brighter than blue")
}

func TestApply_GrayscaleIgnoresAlpha(t *testing.T) {
	m, _ := newTrackedManager(t)
	tok := fromRaw(t, m, []byte{
		255, 255, 255, 0,
		200, 100, 50, 128,
	}, 2, 1)

	require.NoError(t, m.Apply(tok, imaging.Grayscale{}))

	data := m.Data(tok)
	require.Len(t, data, 8)
	white, mixed := data[0:4], data[4:8]
	assert.GreaterOrEqual(t, white[0], uint8(254), "transparent white stays white")
	assert.Equal(t, white[0], white[1])
	assert.Equal(t, white[1], white[2])
	assert.Equal(t, mixed[0], mixed[1])
	assert.Equal(t, mixed[1], mixed[2])
	assert.InDelta(t, 125, int(mixed[0]), 2)
	assert.Equal(t, uint8(255), white[3])
	assert.Equal(t, uint8(255), mixed[3])
}

func TestApply_OversizedResizeIsAllocationFailure(t *testing.T) {
	m, alloc := newTrackedManager(t)
	tok := fromRaw(t, m, []byte{1, 2, 3, 255}, 1, 1)
	before := alloc.Allocs()

	err := m.Apply(tok, imaging.Resize{Width: math.MaxUint32, Height: math.MaxUint32})

	assert.ErrorIs(t, err, ErrAllocation)
	assert.Equal(t, uint32(1), m.Width(tok))
	assert.Equal(t, []byte{1, 2, 3, 255}, m.Data(tok))
	assert.Equal(t, before, alloc.Allocs(), "rejected before any allocation")
}

func TestApply_BufferCap(t *testing.T) {
	alloc := NewTrackingAllocator(nil)
	m := NewManager(WithAllocator(alloc), WithMaxBufferBytes(64))
	t.Cleanup(m.Close)

	tok := fromRaw(t, m, patternPixels(2, 2), 2, 2)

	require.NoError(t, m.Apply(tok, imaging.Resize{Width: 4, Height: 4}))
	assert.Equal(t, 64, m.Len(tok))

	assert.ErrorIs(t, m.Apply(tok, imaging.Resize{Width: 5, Height: 5}), ErrAllocation)
	assert.Equal(t, uint32(4), m.Width(tok))

	_, err := m.FromRaw(patternPixels(5, 5), 5, 5)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestApply_BrightnessSaturates(t *testing.T) {
	m, _ := newTrackedManager(t)
	tok := fromRaw(t, m, []byte{100, 200, 250, 255}, 1, 1)

	require.NoError(t, m.Apply(tok, imaging.Brightness{Delta: 10}))
	assert.Equal(t, []byte{110, 210, 255, 255}, m.Data(tok))

	require.NoError(t, m.Apply(tok, imaging.Brightness{Delta: -1000}))
	assert.Equal(t, []byte{0, 0, 0, 255}, m.Data(tok))
}

func TestApply_InvalidHandle(t *testing.T) {
	m, alloc := newTrackedManager(t)

	released := fromRaw(t, m, scenarioPixels, 2, 2)
	m.Release(released)
	before := alloc.Allocs()

	for _, tok := range []Token{0, released, makeToken(500, 1)} {
		assert.ErrorIs(t, m.Apply(tok, imaging.Invert{}), ErrInvalidHandle, "token %s", tok)
	}
	assert.Equal(t, before, alloc.Allocs())
}

func TestApply_NilOp(t *testing.T) {
	m, _ := newTrackedManager(t)
	tok := fromRaw(t, m, scenarioPixels, 2, 2)

	assert.ErrorIs(t, m.Apply(tok, nil), ErrInvalidHandle)
	assert.Equal(t, scenarioPixels, m.Data(tok))
}

func TestApply_MalformedBufferLeavesHandleAlone(t *testing.T) {
	m, _ := newTrackedManager(t)

	// A handle whose buffer disagrees with its dimensions.
	img := &Image{width: 2, height: 2, buf: []byte{1, 2, 3}}
	tok := m.table.insert(img)
	t.Cleanup(func() { m.table.remove(tok) })

	assert.ErrorIs(t, m.Apply(tok, imaging.Rotate90{}), ErrInvalidHandle)
	assert.Equal(t, []byte{1, 2, 3}, img.buf)
	assert.Equal(t, uint32(2), img.width)
}

func TestApply_AllocationFailureLeavesHandleAlone(t *testing.T) {
	m, alloc := newTrackedManager(t)
	tok := fromRaw(t, m, patternPixels(3, 2), 3, 2)
	before := snapshot(m, tok)

	alloc.FailAfter = alloc.Allocs()

	assert.ErrorIs(t, m.Apply(tok, imaging.Rotate90{}), ErrAllocation)
	assert.Equal(t, uint32(3), m.Width(tok))
	assert.Equal(t, uint32(2), m.Height(tok))
	assert.Equal(t, before, m.Data(tok))

	alloc.FailAfter = 0
	require.NoError(t, m.Apply(tok, imaging.Rotate90{}))
	assert.Equal(t, uint32(2), m.Width(tok))
}

func TestApply_FreesReplacedBuffers(t *testing.T) {
	m, alloc := newTrackedManager(t)
	tok := fromRaw(t, m, patternPixels(8, 8), 8, 8)

	ops := []imaging.Op{
		imaging.Rotate90{},
		imaging.Resize{Width: 4, Height: 4, Filter: imaging.FilterTriangle},
		imaging.Brightness{Delta: 5},
		imaging.Contrast{Amount: 10},
		imaging.Blur{Sigma: 1},
		imaging.Grayscale{},
		imaging.Invert{},
	}
	require.NoError(t, m.ApplyAll(tok, ops...))

	count, bytes := alloc.Live()
	assert.Equal(t, 1, count, "only the current buffer is outstanding")
	assert.EqualValues(t, m.Len(tok), bytes)
	assert.EqualValues(t, len(ops)+1, alloc.Allocs())
	assert.EqualValues(t, len(ops), alloc.Frees())
}

func TestApplyAll_ReportsFailingStep(t *testing.T) {
	m, _ := newTrackedManager(t)
	tok := fromRaw(t, m, patternPixels(3, 2), 3, 2)

	err := m.ApplyAll(tok, imaging.Rotate90{}, nil, imaging.Invert{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Contains(t, err.Error(), "step 2")

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Step)
	assert.Equal(t, "<nil>", se.Op)
	assert.Equal(t, uint32(2), m.Width(tok), "the first step stays applied")
}

func TestApply_ConcurrentDistinctHandles(t *testing.T) {
	m, alloc := newTrackedManager(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			original := patternPixels(i+2, 3)
			tok, err := m.FromRaw(original, uint32(i+2), 3)
			if err != nil {
				errs <- err
				return
			}
			defer m.Release(tok)

			for j := 0; j < 4; j++ {
				if err := m.Apply(tok, imaging.Rotate90{}); err != nil {
					errs <- err
					return
				}
			}
			if err := m.ApplyAll(tok, imaging.Invert{}, imaging.Invert{}); err != nil {
				errs <- err
				return
			}
			if got := m.Data(tok); string(got) != string(original) {
				errs <- fmt.Errorf("worker %d: buffer changed", i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Zero(t, m.Live())
	count, _ := alloc.Live()
	assert.Zero(t, count)
}
