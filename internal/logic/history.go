package logic

// history is a fixed-capacity log of channel edges indexed newest-first.
// Pushing past capacity overwrites the oldest entry.
type history struct {
	buf   []HistoryEntry
	head  int // position of the newest entry
	count int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]HistoryEntry, capacity)}
}

func (h *history) push(e HistoryEntry) {
	h.head = (h.head + 1) % len(h.buf)
	h.buf[h.head] = e
	if h.count < len(h.buf) {
		h.count++
	}
}

// at returns the i-th newest entry; at(0) is the most recent edge.
// i must be below len().
func (h *history) at(i int) HistoryEntry {
	return h.buf[(h.head-i+len(h.buf))%len(h.buf)]
}

func (h *history) newest() (HistoryEntry, bool) {
	if h.count == 0 {
		return HistoryEntry{}, false
	}
	return h.at(0), true
}

func (h *history) len() int {
	return h.count
}

func (h *history) capacity() int {
	return len(h.buf)
}

// entries copies the log newest-first.
func (h *history) entries() []HistoryEntry {
	out := make([]HistoryEntry, h.count)
	for i := range out {
		out[i] = h.at(i)
	}
	return out
}
