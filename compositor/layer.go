package compositor

import (
	"cmp"
	"slices"
)

// layerKey identifies one layer bucket. Layers with the same id but
// different elevations (the same layer in two containers) stay
// separate buckets.
type layerKey struct {
	layerID   string
	elevation float64
}

type layerBucket struct {
	layerID   string
	elevation float64
	priority  int32

	commands []DrawCommand

	// number of container level push commands currently replayed into
	// this bucket
	materialized int
}

// LayerCommandMap buckets layer pass commands by layer so that
// coplanar geometry renders in a deterministic order regardless of
// scene traversal order. Buckets sort ascending by elevation, then
// display priority, then layer id; later buckets draw on top.
//
// Push and pop commands seen inside a layer container are replayed
// into every bucket the container touches, so each bucket's command
// list is balanced and self contained.
type LayerCommandMap struct {
	buckets map[RenderPass]map[layerKey]*layerBucket

	// buckets touched by the currently open container
	open []*layerBucket
}

func (m *LayerCommandMap) init() {
	m.buckets = map[RenderPass]map[layerKey]*layerBucket{}
}

// Add appends a primitive to the bucket of the given layer, replaying
// the container level pushes the bucket has not seen yet. The stack
// holds all open push commands of the traversal; only the entries
// above the container's base depth concern the bucket.
func (m *LayerCommandMap) Add(container *containerState, layer *LayerGraphic, priority int32, stack []DrawCommand, p *Primitive) {
	key := layerKey{layerID: layer.LayerID, elevation: container.elevation}

	perPass := m.buckets[container.pass]
	if perPass == nil {
		perPass = map[layerKey]*layerBucket{}
		m.buckets[container.pass] = perPass
	}

	bucket := perPass[key]
	if bucket == nil {
		bucket = &layerBucket{
			layerID:   layer.LayerID,
			elevation: container.elevation,
			priority:  priority,
		}

		perPass[key] = bucket
	}

	if bucket.materialized == 0 {
		m.open = append(m.open, bucket)
	}

	relStack := stack[container.baseDepth:]
	for i := bucket.materialized; i < len(relStack); i++ {
		bucket.commands = append(bucket.commands, relStack[i])
	}

	bucket.materialized = len(relStack)
	bucket.commands = append(bucket.commands, primitiveCmd(p))
}

// popState closes a container level push command in every open bucket
// that replayed it. relDepth is the depth of the push relative to the
// container base.
func (m *LayerCommandMap) popState(push DrawCommand, relDepth int) {
	for _, bucket := range m.open {
		if bucket.materialized > relDepth {
			bucket.commands = append(bucket.commands, popOf(push))
			bucket.materialized = relDepth
		}
	}
}

// CloseContainer finishes the current container. All its buckets are
// balanced at this point since every container level push has been
// popped by the traversal.
func (m *LayerCommandMap) CloseContainer() {
	m.open = m.open[:0]
}

func (m *LayerCommandMap) HasCommands(pass RenderPass) bool {
	return len(m.buckets[pass]) > 0
}

// OutputCommands flattens the buckets of a layer pass into one
// command list in draw order.
func (m *LayerCommandMap) OutputCommands(pass RenderPass) []DrawCommand {
	perPass := m.buckets[pass]
	if len(perPass) == 0 {
		return nil
	}

	sorted := make([]*layerBucket, 0, len(perPass))
	for _, bucket := range perPass {
		sorted = append(sorted, bucket)
	}

	slices.SortFunc(sorted, func(a, b *layerBucket) int {
		if c := cmp.Compare(a.elevation, b.elevation); c != 0 {
			return c
		}
		if c := cmp.Compare(a.priority, b.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.layerID, b.layerID)
	})

	var out []DrawCommand
	for _, bucket := range sorted {
		out = append(out, bucket.commands...)
	}

	return out
}

func (m *LayerCommandMap) Clear() {
	clear(m.buckets)
	m.open = m.open[:0]
}
