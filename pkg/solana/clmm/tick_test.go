package clmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayStartIndex(t *testing.T) {
	t.Run("Negative Tick Floors", func(t *testing.T) {
		start, err := ArrayStartIndex(-1, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(-60), start)
	})

	t.Run("Boundaries", func(t *testing.T) {
		cases := []struct {
			tick    int32
			spacing uint16
			want    int32
		}{
			{0, 1, 0},
			{59, 1, 0},
			{60, 1, 60},
			{-60, 1, -60},
			{-61, 1, -120},
			{-10, 10, -600},
			{10, 10, 0},
			{600, 10, 600},
			{-600, 10, -600},
			{-610, 10, -1200},
		}
		for _, c := range cases {
			got, err := ArrayStartIndex(c.tick, c.spacing)
			require.NoError(t, err)
			assert.Equal(t, c.want, got, "tick %d spacing %d", c.tick, c.spacing)
		}
	})

	t.Run("Alignment Holds", func(t *testing.T) {
		for _, spacing := range []uint16{1, 5, 10, 60, 100, 120} {
			span := int64(spacing) * TickArraySize
			for tick := -2 * int32(span) * 5; tick <= 2*int32(span)*5; tick += int32(spacing) {
				start, err := ArrayStartIndex(tick, spacing)
				require.NoError(t, err)
				assert.Zero(t, int64(start)%span)
				assert.LessOrEqual(t, int64(start), int64(tick))
				assert.Less(t, int64(tick), int64(start)+span)
			}
		}
	})

	t.Run("Rejects Misaligned Tick", func(t *testing.T) {
		_, err := ArrayStartIndex(7, 10)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Reason, "not a multiple")
	})

	t.Run("Rejects Out Of Range Tick", func(t *testing.T) {
		_, err := ArrayStartIndex(MaxTick+1, 1)
		assert.Error(t, err)
		_, err = ArrayStartIndex(MinTick-1, 1)
		assert.Error(t, err)
	})

	t.Run("Rejects Zero Spacing", func(t *testing.T) {
		_, err := ArrayStartIndex(0, 0)
		assert.Error(t, err)
	})
}

func TestValidateTickRange(t *testing.T) {
	assert.NoError(t, ValidateTickRange(OpOpen, -10, 10, 10))
	assert.Error(t, ValidateTickRange(OpOpen, 7, 20, 10))
	assert.Error(t, ValidateTickRange(OpOpen, 10, 10, 10))
	assert.Error(t, ValidateTickRange(OpOpen, 20, 10, 10))
}

func TestResolveBitmapPage(t *testing.T) {
	// spacing 1: one bitmap covers 60 * 512 = 30720 ticks per side
	const m = 30720

	t.Run("Inline Range", func(t *testing.T) {
		for _, start := range []int32{0, -60, -m, m - 60} {
			page, err := ResolveBitmapPage(start, 1)
			require.NoError(t, err)
			assert.False(t, page.InExtension, "start %d", start)
		}
	})

	t.Run("Extension Pages", func(t *testing.T) {
		cases := []struct {
			start    int32
			positive bool
			offset   int
		}{
			{m, true, 0},
			{2*m - 60, true, 0},
			{2 * m, true, 1},
			{-m - 60, false, 0},
			{-2 * m, false, 0},
			{-2*m - 60, false, 1},
		}
		for _, c := range cases {
			page, err := ResolveBitmapPage(c.start, 1)
			require.NoError(t, err)
			assert.True(t, page.InExtension, "start %d", c.start)
			assert.Equal(t, c.positive, page.Positive, "start %d", c.start)
			assert.Equal(t, c.offset, page.Offset, "start %d", c.start)
		}
	})

	t.Run("Highest Array Fits Extension", func(t *testing.T) {
		start := arrayStartIndex(MaxTick, 1)
		page, err := ResolveBitmapPage(start, 1)
		require.NoError(t, err)
		assert.Less(t, page.Offset, ExtensionTickArrayBitmapSize)
	})

	t.Run("Rejects Unaligned Start", func(t *testing.T) {
		_, err := ResolveBitmapPage(30, 1)
		assert.Error(t, err)
	})
}
