package logging

// ProgressSampler thins out per-unit progress logs to one line every N units.
type ProgressSampler struct {
	every int
	last  int
}

// NewProgressSampler constructs a sampler that emits once per `every` units
// (default 20).
func NewProgressSampler(every int) *ProgressSampler {
	if every <= 0 {
		every = 20
	}
	return &ProgressSampler{every: every}
}

// ShouldLog reports whether the running count has reached the next multiple
// of the sampling interval since the last emitted line.
func (s *ProgressSampler) ShouldLog(count int) bool {
	if s == nil {
		return true
	}
	if count <= 0 || count%s.every != 0 || count == s.last {
		return false
	}
	s.last = count
	return true
}

// Reset clears the sampler state when a new run begins.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.last = 0
}
