package compositor

import (
	"math/rand/v2"
	"testing"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/render"
)

// test geometry is never drawn, so it needs no GPU buffers
func testGeometry(kind GeometryKind, planar bool) *CachedGeometry {
	return &CachedGeometry{kind: kind, planar: planar, vertexCount: 3}
}

func testPrimitive(kind GeometryKind) *Primitive {
	return &Primitive{
		Geom:   testGeometry(kind, false),
		Params: GraphicParams{FillColor: lumen.ColorLinearRGBA(1, 0, 0, 1)},
	}
}

func newTestCommands(flags render.ViewFlags, overrides *render.FeatureOverrides) *RenderCommands {
	return NewRenderCommands(flags, overrides, glm.IdentityMat4[float64]())
}

// checkBalanced walks a command list and verifies that pushes and
// pops nest correctly and that the list ends at depth zero.
func checkBalanced(t *testing.T, pass RenderPass, cmds []DrawCommand) {
	t.Helper()

	depth := 0
	for i, cmd := range cmds {
		switch cmd.Kind {
		case CmdPushBranch, CmdPushBatch:
			depth++
		case CmdPopBranch, CmdPopBatch:
			depth--
			if depth < 0 {
				t.Fatalf("pass %s: pop below depth 0 at command %d", pass, i)
			}
		}
	}

	if depth != 0 {
		t.Fatalf("pass %s: command list ends at depth %d", pass, depth)
	}
}

func TestCommandsRouting(t *testing.T) {
	tests := []struct {
		name     string
		kind     GeometryKind
		planar   bool
		alpha    float32
		flags    render.ViewFlags
		wantPass RenderPass
	}{
		{
			name: "opaque surface", kind: GeometrySurfaceMesh, alpha: 1,
			flags:    render.ViewFlags{Transparency: true},
			wantPass: PassOpaqueGeneral,
		},
		{
			name: "planar surface", kind: GeometrySurfaceMesh, planar: true, alpha: 1,
			flags:    render.ViewFlags{Transparency: true},
			wantPass: PassOpaquePlanar,
		},
		{
			name: "polyline", kind: GeometryPolyline, alpha: 1,
			flags:    render.ViewFlags{Transparency: true},
			wantPass: PassOpaqueLinear,
		},
		{
			name: "translucent surface", kind: GeometrySurfaceMesh, alpha: 0.5,
			flags:    render.ViewFlags{Transparency: true},
			wantPass: PassTranslucent,
		},
		{
			name: "translucent surface without view transparency",
			kind: GeometrySurfaceMesh, alpha: 0.5,
			flags:    render.ViewFlags{},
			wantPass: PassOpaqueGeneral,
		},
		{
			name: "translucent polyline stays opaque", kind: GeometryPolyline, alpha: 0.5,
			flags:    render.ViewFlags{Transparency: true},
			wantPass: PassOpaqueLinear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestCommands(tt.flags, nil)

			rc.AddScene(render.GraphicList{&Primitive{
				Geom:   testGeometry(tt.kind, tt.planar),
				Params: GraphicParams{FillColor: lumen.ColorLinearRGBA(1, 1, 1, tt.alpha)},
			}})

			got := rc.Commands(tt.wantPass)
			if len(got) != 1 || got[0].Kind != CmdPrimitive {
				t.Fatalf("pass %s has %d commands, want 1 primitive", tt.wantPass, len(got))
			}

			for pass := RenderPass(0); pass < RenderPass(NumRenderPasses); pass++ {
				if pass != tt.wantPass && len(rc.Commands(pass)) != 0 {
					t.Errorf("unexpected commands in pass %s", pass)
				}
			}
		})
	}
}

func TestCommandsLazyMaterialization(t *testing.T) {
	// two nested branches, one primitive per pass: each pass list
	// must contain only the pushes enclosing its own primitive
	opaque := testPrimitive(GeometrySurfaceMesh)
	linear := testPrimitive(GeometryPolyline)

	inner := &Branch{Children: render.GraphicList{linear}}
	outer := &Branch{Children: render.GraphicList{opaque, inner}}

	rc := newTestCommands(render.ViewFlags{}, nil)
	rc.AddScene(render.GraphicList{outer})

	general := rc.Commands(PassOpaqueGeneral)
	wantGeneral := []CommandKind{CmdPushBranch, CmdPrimitive, CmdPopBranch}
	if !kindsEqual(general, wantGeneral) {
		t.Errorf("general pass = %v, want %v", kindsOf(general), wantGeneral)
	}

	linearCmds := rc.Commands(PassOpaqueLinear)
	wantLinear := []CommandKind{CmdPushBranch, CmdPushBranch, CmdPrimitive, CmdPopBranch, CmdPopBranch}
	if !kindsEqual(linearCmds, wantLinear) {
		t.Errorf("linear pass = %v, want %v", kindsOf(linearCmds), wantLinear)
	}

	checkBalanced(t, PassOpaqueGeneral, general)
	checkBalanced(t, PassOpaqueLinear, linearCmds)
}

func TestCommandsEmptyBranchStaysOut(t *testing.T) {
	// a branch without primitives must not leave push/pop noise in
	// any pass list
	rc := newTestCommands(render.ViewFlags{}, nil)

	rc.AddScene(render.GraphicList{
		&Branch{Children: render.GraphicList{
			&Branch{Children: nil},
		}},
		testPrimitive(GeometrySurfaceMesh),
	})

	got := rc.Commands(PassOpaqueGeneral)
	if !kindsEqual(got, []CommandKind{CmdPrimitive}) {
		t.Errorf("general pass = %v, want a lone primitive", kindsOf(got))
	}
}

func TestCommandsHiliteRouting(t *testing.T) {
	overrides := render.NewFeatureOverrides()
	overrides.Hilite(render.Id64(7))

	hilited := &Batch{
		Graphic: testPrimitive(GeometrySurfaceMesh),
		Feature: render.Feature{Element: render.Id64(7), Locatable: true},
	}

	plain := &Batch{
		Graphic: testPrimitive(GeometrySurfaceMesh),
		Feature: render.Feature{Element: render.Id64(8), Locatable: true},
	}

	rc := newTestCommands(render.ViewFlags{}, overrides)
	rc.AddScene(render.GraphicList{hilited, plain})

	hiliteCmds := rc.Commands(PassHilite)
	checkBalanced(t, PassHilite, hiliteCmds)

	primitives := 0
	for _, cmd := range hiliteCmds {
		if cmd.Kind == CmdPrimitive {
			primitives++
		}
	}

	if primitives != 1 {
		t.Errorf("hilite pass has %d primitives, want 1", primitives)
	}

	if rc.CompositeFlags()&CompositeHilite == 0 {
		t.Error("CompositeFlags misses hilite")
	}
}

func TestCommandsHiddenEdgeRouting(t *testing.T) {
	edge := testPrimitive(GeometryEdge)

	rc := newTestCommands(render.ViewFlags{HiddenEdges: true}, nil)
	rc.AddScene(render.GraphicList{edge})

	if got := rc.Commands(PassHiddenEdge); len(got) != 1 {
		t.Errorf("hidden edge pass has %d commands, want 1", len(got))
	}

	// without the flag the extra pass stays empty
	rc = newTestCommands(render.ViewFlags{}, nil)
	rc.AddScene(render.GraphicList{testPrimitive(GeometryEdge)})

	if got := rc.Commands(PassHiddenEdge); len(got) != 0 {
		t.Errorf("hidden edge pass has %d commands without the flag", len(got))
	}
}

func TestCommandsCompositeFlags(t *testing.T) {
	rc := newTestCommands(render.ViewFlags{Transparency: true}, nil)
	rc.AddScene(render.GraphicList{testPrimitive(GeometrySurfaceMesh)})

	if flags := rc.CompositeFlags(); flags.NeedComposite() {
		t.Errorf("opaque-only scene needs composite: %v", flags)
	}

	rc.AddScene(render.GraphicList{&Primitive{
		Geom:   testGeometry(GeometrySurfaceMesh, false),
		Params: GraphicParams{FillColor: lumen.ColorLinearRGBA(1, 1, 1, 0.5)},
	}})

	if flags := rc.CompositeFlags(); flags&CompositeTranslucent == 0 {
		t.Errorf("translucent scene misses composite flag: %v", flags)
	}
}

func TestCommandsDecorations(t *testing.T) {
	rc := newTestCommands(render.ViewFlags{}, nil)

	rc.AddDecorations(&render.Decorations{
		World:        render.GraphicList{testPrimitive(GeometrySurfaceMesh)},
		WorldOverlay: render.GraphicList{testPrimitive(GeometrySurfaceMesh)},
		ViewOverlay:  render.GraphicList{testPrimitive(GeometrySurfaceMesh)},
	})

	if got := rc.Commands(PassOpaqueGeneral); len(got) != 1 {
		t.Errorf("world decoration not routed to scene passes: %d", len(got))
	}

	if got := rc.Commands(PassWorldOverlay); len(got) != 1 {
		t.Errorf("world overlay pass has %d commands, want 1", len(got))
	}

	if got := rc.Commands(PassViewOverlay); len(got) != 1 {
		t.Errorf("view overlay pass has %d commands, want 1", len(got))
	}
}

func TestCommandsBackground(t *testing.T) {
	rc := newTestCommands(render.ViewFlags{Transparency: true}, nil)

	// even a translucent primitive lands in the background pass when
	// forced there
	rc.AddBackground(&Primitive{
		Geom:   testGeometry(GeometrySurfaceMesh, false),
		Params: GraphicParams{FillColor: lumen.ColorLinearRGBA(1, 1, 1, 0.5)},
	})

	if got := rc.Commands(PassBackground); len(got) != 1 {
		t.Errorf("background pass has %d commands, want 1", len(got))
	}

	if got := rc.Commands(PassTranslucent); len(got) != 0 {
		t.Errorf("background primitive leaked into translucent pass")
	}
}

func TestCommandsClear(t *testing.T) {
	rc := newTestCommands(render.ViewFlags{}, nil)
	rc.AddScene(render.GraphicList{testPrimitive(GeometrySurfaceMesh)})

	rc.Clear()

	for pass := RenderPass(0); pass < RenderPass(NumRenderPasses); pass++ {
		if len(rc.Commands(pass)) != 0 {
			t.Errorf("pass %s still has commands after Clear", pass)
		}
	}

	rc.AddScene(render.GraphicList{testPrimitive(GeometrySurfaceMesh)})
	if got := rc.Commands(PassOpaqueGeneral); len(got) != 1 {
		t.Errorf("reuse after Clear yields %d commands, want 1", len(got))
	}
}

// layerScene builds a container with three layers in the given
// traversal order. The returned map identifies each primitive's layer
// for order checking.
func layerScene(order []int) (render.GraphicList, map[*Primitive]string) {
	layers := []*LayerGraphic{
		{LayerID: "layer/a", SubCategory: render.Id64(1)},
		{LayerID: "layer/b", SubCategory: render.Id64(2)},
		{LayerID: "layer/c", SubCategory: render.Id64(3)},
	}

	byPrimitive := map[*Primitive]string{}
	for _, l := range layers {
		p := testPrimitive(GeometrySurfaceMesh)
		l.Graphic = p
		byPrimitive[p] = l.LayerID
	}

	children := make(render.GraphicList, 0, len(order))
	for _, idx := range order {
		children = append(children, layers[idx])
	}

	scene := render.GraphicList{&LayerContainer{
		Graphic: &Branch{Children: children},
	}}

	return scene, byPrimitive
}

func TestLayerOrderIndependentOfTraversal(t *testing.T) {
	overrides := render.NewFeatureOverrides()
	overrides.SetSubCategoryPriority(render.Id64(1), 10)
	overrides.SetSubCategoryPriority(render.Id64(2), 30)
	overrides.SetSubCategoryPriority(render.Id64(3), 20)

	// priority order: a(10) < c(20) < b(30)
	wantIDs := []string{"layer/a", "layer/c", "layer/b"}

	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 20; trial++ {
		order := []int{0, 1, 2}
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		scene, byPrimitive := layerScene(order)

		rc := newTestCommands(render.ViewFlags{}, overrides)
		rc.AddScene(scene)

		cmds := rc.Commands(PassOpaqueLayers)
		checkBalanced(t, PassOpaqueLayers, cmds)

		var gotIDs []string
		for _, cmd := range cmds {
			if cmd.Kind == CmdPrimitive {
				gotIDs = append(gotIDs, byPrimitive[cmd.Primitive])
			}
		}

		if !stringsEqual(gotIDs, wantIDs) {
			t.Fatalf("trial %d with order %v: layers = %v, want %v",
				trial, order, gotIDs, wantIDs)
		}
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func kindsOf(cmds []DrawCommand) []CommandKind {
	out := make([]CommandKind, len(cmds))
	for i, cmd := range cmds {
		out[i] = cmd.Kind
	}

	return out
}

func kindsEqual(cmds []DrawCommand, want []CommandKind) bool {
	if len(cmds) != len(want) {
		return false
	}

	for i := range cmds {
		if cmds[i].Kind != want[i] {
			return false
		}
	}

	return true
}

func TestCommandsClassifierRouting(t *testing.T) {
	content := testPrimitive(GeometrySurfaceMesh)
	child := testPrimitive(GeometrySurfaceMesh)

	branch := &Branch{
		Opts: render.BranchOptions{
			Classifier: &render.PlanarClassifier{
				ID:        render.Id64(9),
				Elevation: 2,
				Graphic:   content,
			},
		},
		Children: render.GraphicList{child},
	}

	rc := newTestCommands(render.ViewFlags{}, nil)
	rc.AddScene(render.GraphicList{branch})

	cls := rc.Commands(PassClassification)
	checkBalanced(t, PassClassification, cls)

	primitives := 0
	for _, cmd := range cls {
		if cmd.Kind == CmdPrimitive {
			if cmd.Primitive != content {
				t.Error("classification pass holds a foreign primitive")
			}

			primitives++
		}
	}

	if primitives != 1 {
		t.Errorf("classification pass has %d primitives, want 1", primitives)
	}

	// the branch child renders normally, the classifier content only
	// drapes
	for _, cmd := range rc.Commands(PassOpaqueGeneral) {
		if cmd.Kind == CmdPrimitive && cmd.Primitive == content {
			t.Error("classifier content leaked into the opaque pass")
		}
	}

	if got := rc.Commands(PassOpaqueGeneral); len(got) == 0 {
		t.Error("classified branch child missing from the opaque pass")
	}
}

func TestCommandsClassifierWithoutGraphic(t *testing.T) {
	branch := &Branch{
		Opts: render.BranchOptions{
			Classifier: &render.PlanarClassifier{ID: render.Id64(9)},
		},
		Children: render.GraphicList{testPrimitive(GeometrySurfaceMesh)},
	}

	rc := newTestCommands(render.ViewFlags{}, nil)
	rc.AddScene(render.GraphicList{branch})

	if got := rc.Commands(PassClassification); len(got) != 0 {
		t.Errorf("classification pass has %d commands without content", len(got))
	}
}
