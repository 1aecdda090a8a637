package effects

// ring is a fixed-length delay line. Read returns the sample written
// len(buf) frames ago.
type ring struct {
	buf []float32
	pos int
}

func newRing(frames int) ring {
	return ring{buf: make([]float32, max(frames, 1))}
}

func (r *ring) read() float32 { return r.buf[r.pos] }

// write stores v at the read head and advances.
func (r *ring) write(v float32) {
	r.buf[r.pos] = v
	r.pos++
	if r.pos == len(r.buf) {
		r.pos = 0
	}
}

func (r *ring) clear() {
	clear(r.buf)
	r.pos = 0
}
