package pipeline

// chunk is the unit of transport between the stages of a run. Sequence
// numbers are assigned once by the source stage and form a contiguous range
// starting at 0. The payload is owned by whichever stage currently holds the
// chunk; a sender must not retain or mutate it after a put.
type chunk struct {
	seq      uint64
	payload  []byte
	terminal bool
}

func newChunk(seq uint64, payload []byte) *chunk {
	return &chunk{seq: seq, payload: payload}
}

// terminalChunk marks "no more chunks will follow from this producer".
// It carries no payload.
func terminalChunk() *chunk {
	return &chunk{terminal: true}
}
