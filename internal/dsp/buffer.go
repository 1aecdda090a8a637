package dsp

// Buffer is planar audio: one slice per channel, all of equal length.
// Voices and sample layers add into it; nothing in the render path resizes it.
type Buffer [][]float32

// NewBuffer allocates a zeroed buffer.
func NewBuffer(channels, frames int) Buffer {
	if channels < 1 {
		channels = 1
	}
	b := make(Buffer, channels)
	for ch := range b {
		b[ch] = make([]float32, frames)
	}
	return b
}

// Frames returns the per-channel length.
func (b Buffer) Frames() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Clear zeroes every channel.
func (b Buffer) Clear() {
	for _, ch := range b {
		clear(ch)
	}
}

// Add mixes v into every channel at frame idx.
func (b Buffer) Add(idx int, v float32) {
	for _, ch := range b {
		ch[idx] += v
	}
}

// Interleave writes the buffer as interleaved stereo into dst.
// A mono buffer is duplicated to both sides.
func (b Buffer) Interleave(dst []float32) {
	if len(b) == 0 {
		return
	}
	left := b[0]
	right := left
	if len(b) > 1 {
		right = b[1]
	}
	frames := len(dst) / 2
	if frames > len(left) {
		frames = len(left)
	}
	for f := 0; f < frames; f++ {
		dst[f*2] = left[f]
		dst[f*2+1] = right[f]
	}
}

// Window re-slices src into view without allocating: view must already hold
// len(src) channel headers. It returns view limited to frames [start, start+n).
func Window(view, src Buffer, start, n int) Buffer {
	for ch := range src {
		view[ch] = src[ch][start : start+n]
	}
	return view[:len(src)]
}
