package connection

import "bytes"

// lineFramer holds back an incomplete trailing line until the rest arrives.
type lineFramer struct {
	pending []byte
}

// Push appends data and returns every complete line, or "" when none is complete.
func (f *lineFramer) Push(data []byte) string {
	f.pending = append(f.pending, data...)
	idx := bytes.LastIndexByte(f.pending, '\n')
	if idx < 0 {
		return ""
	}
	out := string(f.pending[:idx+1])
	rest := f.pending[idx+1:]
	f.pending = append(make([]byte, 0, len(rest)), rest...)
	return out
}

// Flush returns and clears the partial line.
func (f *lineFramer) Flush() string {
	out := string(f.pending)
	f.pending = f.pending[:0]
	return out
}

func (f *lineFramer) HasPending() bool {
	return len(f.pending) > 0
}
