package mqtt

// outbound is a serialized message waiting for a connection.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer keeps the most recent messages published while offline.
// Not safe for concurrent use; the caller must synchronize.
type ringBuffer struct {
	items   []outbound
	next    int // slot the next push writes
	size    int
	dropped int // messages overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{items: make([]outbound, capacity)}
}

// push appends msg, overwriting the oldest message when full.
func (r *ringBuffer) push(msg outbound) {
	r.items[r.next] = msg
	r.next = (r.next + 1) % len(r.items)
	if r.size == len(r.items) {
		r.dropped++
		return
	}
	r.size++
}

// drain returns the buffered messages oldest first, with the number that
// were lost to overflow, and empties the buffer.
func (r *ringBuffer) drain() ([]outbound, int) {
	dropped := r.dropped
	r.dropped = 0
	if r.size == 0 {
		return nil, dropped
	}

	out := make([]outbound, 0, r.size)
	first := (r.next - r.size + len(r.items)) % len(r.items)
	for i := 0; i < r.size; i++ {
		out = append(out, r.items[(first+i)%len(r.items)])
	}
	r.next = 0
	r.size = 0
	return out, dropped
}

func (r *ringBuffer) len() int {
	return r.size
}
