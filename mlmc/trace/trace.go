package trace

// PilotTrace collects iteration records during a pilot run. Records are
// append-only; the pilot loop is their single writer.
type PilotTrace struct {
	Iterations []IterationRecord
}

// NewPilotTrace creates a PilotTrace ready for recording.
func NewPilotTrace() *PilotTrace {
	return &PilotTrace{Iterations: make([]IterationRecord, 0)}
}

// Record appends an iteration record.
func (pt *PilotTrace) Record(record IterationRecord) {
	pt.Iterations = append(pt.Iterations, record)
}

// Len returns the number of recorded iterations.
func (pt *PilotTrace) Len() int {
	return len(pt.Iterations)
}
