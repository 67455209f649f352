package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines []string
	next  int // Slot of the next write
	count int // Lines currently held
	// pending counts lines written since the file was last compacted
	pending int
}

// NewRingBuffer creates a ring buffer holding up to capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, max(capacity, 1))}
}

// Cap returns the number of lines the buffer can hold.
func (rb *RingBuffer) Cap() int {
	return len(rb.lines)
}

// Push stores a line, overwriting the oldest one when full.
func (rb *RingBuffer) Push(line string) {
	rb.lines[rb.next] = line
	rb.next = (rb.next + 1) % len(rb.lines)
	rb.count = min(rb.count+1, len(rb.lines))
	rb.pending++
}

// Lines returns the held lines oldest first.
func (rb *RingBuffer) Lines() []string {
	out := make([]string, 0, rb.count)
	start := (rb.next - rb.count + len(rb.lines)) % len(rb.lines)
	for i := range rb.count {
		out = append(out, rb.lines[(start+i)%len(rb.lines)])
	}
	return out
}
