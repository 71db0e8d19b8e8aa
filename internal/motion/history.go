// Package motion classifies vertical wrist movement into direction reversals.
package motion

// History is a fixed-capacity ring of recent wrist y positions for one hand.
// Pushing onto a full history overwrites the oldest sample.
type History struct {
	samples []float64
	start   int
	n       int
}

// NewHistory creates a History holding at most size samples.
// Sizes below 2 are raised to 2 so a velocity can always be computed.
func NewHistory(size int) *History {
	if size < 2 {
		size = 2
	}
	return &History{samples: make([]float64, size)}
}

// Push appends y, dropping the oldest sample when full.
func (h *History) Push(y float64) {
	if h.n < len(h.samples) {
		h.samples[(h.start+h.n)%len(h.samples)] = y
		h.n++
		return
	}
	h.samples[h.start] = y
	h.start = (h.start + 1) % len(h.samples)
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.n
}

// Cap returns the maximum number of samples.
func (h *History) Cap() int {
	return len(h.samples)
}

// At returns the i-th sample, oldest first.
func (h *History) At(i int) float64 {
	return h.samples[(h.start+i)%len(h.samples)]
}

// Last returns the newest sample and whether one exists.
func (h *History) Last() (float64, bool) {
	if h.n == 0 {
		return 0, false
	}
	return h.At(h.n - 1), true
}

// Delta returns the difference between the two newest samples.
func (h *History) Delta() (float64, bool) {
	if h.n < 2 {
		return 0, false
	}
	return h.At(h.n-1) - h.At(h.n-2), true
}

// Values returns a copy of the samples, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}

// Clear drops every sample.
func (h *History) Clear() {
	h.start = 0
	h.n = 0
}
