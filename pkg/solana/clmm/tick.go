package clmm

// TickArraySpan returns the number of ticks covered by one tick array at tickSpacing.
func TickArraySpan(tickSpacing uint16) int64 {
	return int64(tickSpacing) * TickArraySize
}

// maxTickInTickArrayBitmap is the boundary of the pool's inline bitmap on either side of zero.
func maxTickInTickArrayBitmap(tickSpacing uint16) int64 {
	return TickArraySpan(tickSpacing) * TickArrayBitmapSize
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// ValidateTick checks that tick lies inside the protocol range and sits on a multiple of tickSpacing.
func ValidateTick(op Op, tick int32, tickSpacing uint16) error {
	if tickSpacing == 0 {
		return invalid(op, "tick spacing must be positive")
	}
	if tick < MinTick || tick > MaxTick {
		return invalid(op, "tick %d outside [%d, %d]", tick, MinTick, MaxTick)
	}
	if tick%int32(tickSpacing) != 0 {
		return invalid(op, "tick %d is not a multiple of tick spacing %d", tick, tickSpacing)
	}
	return nil
}

// ValidateTickRange checks both bounds and that lower is strictly below upper.
func ValidateTickRange(op Op, tickLower, tickUpper int32, tickSpacing uint16) error {
	if err := ValidateTick(op, tickLower, tickSpacing); err != nil {
		return err
	}
	if err := ValidateTick(op, tickUpper, tickSpacing); err != nil {
		return err
	}
	if tickLower >= tickUpper {
		return invalid(op, "tick lower %d must be below tick upper %d", tickLower, tickUpper)
	}
	return nil
}

// ArrayStartIndex returns the start index of the tick array holding tick. Division is floored,
// so negative ticks land in the array below zero: ArrayStartIndex(-1, 1) is -60.
func ArrayStartIndex(tick int32, tickSpacing uint16) (int32, error) {
	if err := ValidateTick("", tick, tickSpacing); err != nil {
		return 0, err
	}
	return arrayStartIndex(tick, tickSpacing), nil
}

func arrayStartIndex(tick int32, tickSpacing uint16) int32 {
	span := TickArraySpan(tickSpacing)
	t := int64(tick)
	q := t / span
	if t%span != 0 && t < 0 {
		q--
	}
	return int32(q * span)
}

// BitmapPage locates a tick array in the pool's bitmaps. Arrays inside
// [-ticksInOneBitmap, ticksInOneBitmap) are tracked inline by the pool state;
// all others live on one page of the bitmap extension account.
type BitmapPage struct {
	StartIndex  int32 `json:"start_index"`
	InExtension bool  `json:"in_extension"`
	// Positive is the extension side, meaningful only when InExtension is set.
	Positive bool `json:"positive"`
	Offset   int  `json:"offset"`
}

// ResolveBitmapPage returns the bitmap location of the tick array starting at startIndex.
func ResolveBitmapPage(startIndex int32, tickSpacing uint16) (BitmapPage, error) {
	if tickSpacing == 0 {
		return BitmapPage{}, invalid("", "tick spacing must be positive")
	}
	span := TickArraySpan(tickSpacing)
	s := int64(startIndex)
	if s%span != 0 {
		return BitmapPage{}, invalid("", "start index %d is not aligned to tick array span %d", startIndex, span)
	}

	page := BitmapPage{StartIndex: startIndex}
	ticksInOneBitmap := maxTickInTickArrayBitmap(tickSpacing)
	if s >= -ticksInOneBitmap && s < ticksInOneBitmap {
		return page, nil
	}

	offset := abs64(s)/ticksInOneBitmap - 1
	if s < 0 && abs64(s)%ticksInOneBitmap == 0 {
		offset--
	}
	if offset < 0 || offset >= ExtensionTickArrayBitmapSize {
		return BitmapPage{}, invalid("", "start index %d beyond bitmap extension range", startIndex)
	}

	page.InExtension = true
	page.Positive = s > 0
	page.Offset = int(offset)
	return page, nil
}
