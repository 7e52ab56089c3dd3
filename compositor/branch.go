package compositor

import (
	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/render"
)

// branchFrame is the resolved render state below one branch.
type branchFrame struct {
	branch *Branch

	flags      render.ViewFlags
	overrides  *render.FeatureOverrides
	transform  glm.Mat4d
	clip       *render.ClipVolume
	classifier *render.PlanarClassifier
}

// BranchStack tracks the active branch state while a command list
// executes. Pushes and pops must balance; an unbalanced list is a bug
// in the command builder, so Pop panics on underflow instead of
// guessing.
type BranchStack struct {
	base   branchFrame
	frames []branchFrame
}

func NewBranchStack(flags render.ViewFlags, overrides *render.FeatureOverrides) *BranchStack {
	return &BranchStack{
		base: branchFrame{
			flags:     flags,
			overrides: overrides,
			transform: glm.IdentityMat4[float64](),
		},
	}
}

func (s *BranchStack) top() *branchFrame {
	if len(s.frames) == 0 {
		return &s.base
	}

	return &s.frames[len(s.frames)-1]
}

func (s *BranchStack) Flags() render.ViewFlags {
	return s.top().flags
}

func (s *BranchStack) Overrides() *render.FeatureOverrides {
	return s.top().overrides
}

func (s *BranchStack) Transform() glm.Mat4d {
	return s.top().transform
}

func (s *BranchStack) Clip() *render.ClipVolume {
	return s.top().clip
}

func (s *BranchStack) Classifier() *render.PlanarClassifier {
	return s.top().classifier
}

// Depth is the number of open branches. Zero between command lists.
func (s *BranchStack) Depth() int {
	return len(s.frames)
}

func (s *BranchStack) PushBranch(b *Branch) {
	frame := *s.top()
	frame.branch = b

	if b.Opts.FlagOverrides != nil {
		frame.flags = *b.Opts.FlagOverrides
	}
	if b.Opts.Overrides != nil {
		frame.overrides = b.Opts.Overrides
	}
	if !b.Opts.Transform.IsZero() {
		frame.transform = frame.transform.Mul(b.Opts.Transform)
	}
	if b.Opts.Clip != nil {
		frame.clip = b.Opts.Clip
	}
	if b.Opts.Classifier != nil {
		frame.classifier = b.Opts.Classifier
	}

	s.frames = append(s.frames, frame)
}

func (s *BranchStack) Pop() {
	if len(s.frames) == 0 {
		panic("branch stack: pop without matching push")
	}

	s.frames = s.frames[:len(s.frames)-1]
}
