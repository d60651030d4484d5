package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}

// Sanitize32 replaces NaN and infinite samples with silence and reports how
// many were replaced.
func Sanitize32(buf []float32) int {
	n := 0
	for i, v := range buf {
		// v != v is the NaN test; the bounds catch both infinities.
		if v != v || v > 3.4e38 || v < -3.4e38 {
			buf[i] = 0
			n++
		}
	}
	return n
}
