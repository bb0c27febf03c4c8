package frame

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Accessors(t *testing.T) {
	t.Parallel()

	f := New(4, 3)
	f.Smoothed[1*4+2] = 7
	f.Mask[1*4+2] = BitThreshold | BitMotion

	assert.Equal(t, float32(7), f.At(2, 1))
	assert.Equal(t, float32(0), f.At(-1, 1))
	assert.Equal(t, float32(0), f.At(4, 0))
	assert.Equal(t, BitThreshold|BitMotion, f.MaskAt(2, 1))
	assert.False(t, f.In(0, 3))

	// Without a dedicated edge source the smoothed grid is used.
	assert.Equal(t, f.Smoothed, f.Edges())
	f.EdgeSource = make([]float32, 12)
	f.EdgeSource[0] = 1
	assert.Equal(t, float32(1), f.Edges()[0])
}

func TestBuildMask(t *testing.T) {
	t.Parallel()

	cur := []float32{10, 50, 50, 31}
	prev := []float32{10, 10, 49, 0}

	mask := BuildMask(cur, prev, 30, 5)
	assert.Equal(t, []uint8{0, BitThreshold | BitMotion, BitThreshold, BitThreshold | BitMotion}, mask)
	assert.Equal(t, 3, CountBits(mask, BitThreshold))
	assert.Equal(t, 2, CountBits(mask, BitMotion))

	noPrev := BuildMask(cur, nil, 30, 5)
	assert.Zero(t, CountBits(noPrev, BitMotion))
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	assert.True(t, ComputeStats(nil, 1).Zero())

	s := ComputeStats([]float32{2, 4, 4, 4, 5, 5, 7, 9}, 1)
	assert.Equal(t, float32(2), s.Min)
	assert.Equal(t, float32(9), s.Max)
	// mean 5, sample stddev sqrt(32/7)
	assert.InDelta(t, 5+2.138, float64(s.Threshold), 1e-3)

	one := ComputeStats([]float32{3}, 2)
	assert.Equal(t, float32(3), one.Threshold)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 3, 2)
	require.NoError(t, err)

	first := New(3, 2)
	first.Index = 4
	first.Time = time.Unix(1700000000, 500).UTC()
	first.Stats = Stats{Min: 1, Max: 9, Threshold: 5}
	copy(first.Smoothed, []float32{1, 2, 3, 4, 5, 9})
	copy(first.Mask, []uint8{0, 0, 0, 0, 1, 3})

	second := New(3, 2)
	second.Index = 5
	second.Mask = nil
	second.EdgeSource = []float32{6, 5, 4, 3, 2, 1}

	require.NoError(t, w.Write(first))
	require.NoError(t, w.Write(second))
	require.NoError(t, w.Flush())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	width, height := r.Size()
	assert.Equal(t, 3, width)
	assert.Equal(t, 2, height)

	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 5, got.Index)
	assert.Nil(t, got.Mask)
	assert.True(t, got.Time.IsZero())
	assert.Equal(t, second.EdgeSource, got.EdgeSource)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCodec_Errors(t *testing.T) {
	t.Parallel()

	t.Run("bad magic", func(t *testing.T) {
		_, err := NewReader(bytes.NewBufferString("NOPE\x03\x00\x02\x00"))
		assert.ErrorIs(t, err, ErrBadMagic)
	})
	t.Run("zero dimensions", func(t *testing.T) {
		_, err := NewReader(bytes.NewBufferString("TSF1\x00\x00\x02\x00"))
		assert.ErrorIs(t, err, ErrDimensions)
	})
	t.Run("writer rejects mismatched frame", func(t *testing.T) {
		w, err := NewWriter(io.Discard, 3, 2)
		require.NoError(t, err)
		assert.ErrorIs(t, w.Write(New(2, 2)), ErrDimensions)
	})
	t.Run("truncated record", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, 3, 2)
		require.NoError(t, err)
		require.NoError(t, w.Write(New(3, 2)))
		require.NoError(t, w.Flush())
		truncated := buf.Bytes()[:buf.Len()-3]

		r, err := NewReader(bytes.NewReader(truncated))
		require.NoError(t, err)
		_, err = r.Next()
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}
