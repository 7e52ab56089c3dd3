package compositor

import (
	"github.com/lumen3d/lumen/render"
)

// BatchState tracks the feature of the batch currently executing. The
// pick outputs of a draw take their element id from here; outside of
// any batch the invalid id is written.
type BatchState struct {
	stack []*Batch
}

func (s *BatchState) Push(b *Batch) {
	s.stack = append(s.stack, b)
}

func (s *BatchState) Pop() {
	if len(s.stack) == 0 {
		panic("batch state: pop without matching push")
	}

	s.stack = s.stack[:len(s.stack)-1]
}

func (s *BatchState) Current() *Batch {
	if len(s.stack) == 0 {
		return nil
	}

	return s.stack[len(s.stack)-1]
}

// Feature returns the active feature, or the zero feature with the
// invalid element id outside of a batch.
func (s *BatchState) Feature() render.Feature {
	if b := s.Current(); b != nil {
		return b.Feature
	}

	return render.Feature{}
}

// Reset drops any leftover state. Called after pick reads, which run
// partial command lists.
func (s *BatchState) Reset() {
	s.stack = s.stack[:0]
}
