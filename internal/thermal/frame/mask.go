package frame

import "math"

// BuildMask derives the mask for cur. BitThreshold is set where the value
// exceeds threshold and BitMotion where it differs from prev by more than
// motionDelta. A nil prev sets no motion bits.
func BuildMask(cur, prev []float32, threshold, motionDelta float32) []uint8 {
	mask := make([]uint8, len(cur))
	usePrev := len(prev) == len(cur)
	for i, v := range cur {
		var m uint8
		if v > threshold {
			m |= BitThreshold
		}
		if usePrev && float32(math.Abs(float64(v-prev[i]))) > motionDelta {
			m |= BitMotion
		}
		mask[i] = m
	}
	return mask
}

// CountBits returns the number of mask entries with bit set.
func CountBits(mask []uint8, bit uint8) int {
	n := 0
	for _, m := range mask {
		if m&bit != 0 {
			n++
		}
	}
	return n
}
