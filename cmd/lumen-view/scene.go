package main

import (
	"fmt"

	"github.com/furui/fastnoiselite-go"

	"github.com/lumen3d/lumen/compositor"
	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/render"
)

type sceneBundle struct {
	Scene       render.GraphicList
	Decorations *render.Decorations
	Overrides   *render.FeatureOverrides
}

// buildScene assembles the demo town: a noise terrain, a handful of
// pickable buildings, a glass tower to exercise translucency and a
// coplanar road layer with deterministic priority ordering.
func buildScene(ctx *lumen.Context) (*sceneBundle, error) {
	overrides := render.NewFeatureOverrides()

	var scene render.GraphicList

	nextID := render.Id64(1)
	newID := func() render.Id64 {
		id := nextID
		nextID++
		return id
	}

	terrain, err := buildTerrain(ctx)
	if err != nil {
		return nil, err
	}

	scene = append(scene, &compositor.Batch{
		Graphic: terrain,
		Feature: render.Feature{Element: newID(), Locatable: true},
	})

	// buildings on a small grid, heights vary
	heights := []float32{8, 14, 6, 18, 10, 7}

	for i, h := range heights {
		x := float32(i%3)*18 - 18
		y := float32(i/3)*22 - 11

		building, err := buildBox(ctx,
			glm.Vec3f{x, y, h / 2},
			glm.Vec3f{6, 6, h},
			fmt.Sprintf("Building.%d", i))

		if err != nil {
			return nil, err
		}

		scene = append(scene, &compositor.Batch{
			Graphic: &compositor.Branch{
				Children: render.GraphicList{building},
			},
			Feature: render.Feature{Element: newID(), Locatable: true},
		})
	}

	// glass tower, routed to the translucent pass
	tower, err := buildBox(ctx, glm.Vec3f{0, 0, 15}, glm.Vec3f{8, 8, 30}, "Tower")
	if err != nil {
		return nil, err
	}

	tower.Params.FillColor = lumen.ColorSRGBA(0.4, 0.75, 0.9, 0.45)

	scene = append(scene, &compositor.Batch{
		Graphic: tower,
		Feature: render.Feature{Element: newID(), Locatable: true},
	})

	roads, err := buildRoadLayers(ctx, overrides, newID)
	if err != nil {
		return nil, err
	}

	scene = append(scene, roads)

	marker, err := buildMarker(ctx)
	if err != nil {
		return nil, err
	}

	return &sceneBundle{
		Scene:     scene,
		Overrides: overrides,

		Decorations: &render.Decorations{
			WorldOverlay: render.GraphicList{marker},
		},
	}, nil
}

func buildTerrain(ctx *lumen.Context) (*compositor.Primitive, error) {
	noise := fastnoiselite.NewNoise()
	noise.SetNoiseType(fastnoiselite.NoiseTypeOpenSimplex2)
	noise.FractalType = fastnoiselite.FractalTypeFBm

	heightAt := func(x, y float32) float32 {
		h := noise.GetNoise2D(
			fastnoiselite.FNLfloat(x*4),
			fastnoiselite.FNLfloat(y*4),
		)

		return float32(h) * 3
	}

	cell := float32(terrainSize) / terrainCells
	origin := float32(-terrainSize / 2)

	corner := func(ix, iy int) glm.Vec3f {
		x := origin + float32(ix)*cell
		y := origin + float32(iy)*cell
		return glm.Vec3f{x, y, heightAt(x, y)}
	}

	positions := make([]glm.Vec3f, 0, terrainCells*terrainCells*6)

	for iy := 0; iy < terrainCells; iy++ {
		for ix := 0; ix < terrainCells; ix++ {
			a := corner(ix, iy)
			b := corner(ix+1, iy)
			c := corner(ix+1, iy+1)
			d := corner(ix, iy+1)

			positions = append(positions, a, b, c, a, c, d)
		}
	}

	geom, err := compositor.NewGeometry(ctx, compositor.NewGeometryOptions{
		Kind:      compositor.GeometrySurfaceMesh,
		Positions: positions,
		Label:     "Terrain",
	})

	if err != nil {
		return nil, fmt.Errorf("create terrain: %w", err)
	}

	return &compositor.Primitive{
		Geom: geom,
		Params: compositor.GraphicParams{
			FillColor: lumen.ColorSRGBA(0.45, 0.6, 0.35, 1),
		},
	}, nil
}

func buildBox(ctx *lumen.Context, center, size glm.Vec3f, label string) (*compositor.Primitive, error) {
	h := size.MulScalar(0.5)

	// the 8 box corners, bit 0 = +x, bit 1 = +y, bit 2 = +z
	var c [8]glm.Vec3f
	for i := range c {
		c[i] = glm.Vec3f{
			center[0] + h[0]*sign(i&1 != 0),
			center[1] + h[1]*sign(i&2 != 0),
			center[2] + h[2]*sign(i&4 != 0),
		}
	}

	quads := [][4]int{
		{0, 2, 3, 1}, // bottom
		{4, 5, 7, 6}, // top
		{0, 1, 5, 4}, // front
		{2, 6, 7, 3}, // back
		{0, 4, 6, 2}, // left
		{1, 3, 7, 5}, // right
	}

	positions := make([]glm.Vec3f, 0, len(quads)*6)
	for _, q := range quads {
		positions = append(positions,
			c[q[0]], c[q[1]], c[q[2]],
			c[q[0]], c[q[2]], c[q[3]])
	}

	geom, err := compositor.NewGeometry(ctx, compositor.NewGeometryOptions{
		Kind:      compositor.GeometrySurfaceMesh,
		Positions: positions,
		Label:     label,
	})

	if err != nil {
		return nil, fmt.Errorf("create box %q: %w", label, err)
	}

	return &compositor.Primitive{
		Geom: geom,
		Params: compositor.GraphicParams{
			FillColor: lumen.ColorSRGBA(0.75, 0.7, 0.65, 1),
		},
	}, nil
}

// buildRoadLayers builds two coplanar quads at the same elevation. The
// markings carry a higher sub category priority than the asphalt, so
// they always render on top regardless of traversal order.
func buildRoadLayers(ctx *lumen.Context, overrides *render.FeatureOverrides, newID func() render.Id64) (render.Graphic, error) {
	asphaltCat := newID()
	markingCat := newID()

	overrides.SetSubCategoryPriority(asphaltCat, 0)
	overrides.SetSubCategoryPriority(markingCat, 100)

	asphalt, err := buildQuad(ctx, glm.Vec3f{0, -30, 4}, glm.Vec2f{70, 8},
		lumen.ColorSRGBA(0.25, 0.25, 0.28, 1), "Road.Asphalt")
	if err != nil {
		return nil, err
	}

	marking, err := buildQuad(ctx, glm.Vec3f{0, -30, 4}, glm.Vec2f{60, 0.6},
		lumen.ColorSRGBA(0.9, 0.85, 0.3, 1), "Road.Marking")
	if err != nil {
		return nil, err
	}

	return &compositor.LayerContainer{
		Graphic: &compositor.Branch{
			Children: render.GraphicList{
				&compositor.LayerGraphic{
					Graphic:     asphalt,
					LayerID:     "road/asphalt",
					SubCategory: asphaltCat,
				},
				&compositor.LayerGraphic{
					Graphic:     marking,
					LayerID:     "road/marking",
					SubCategory: markingCat,
				},
			},
		},
	}, nil
}

func buildQuad(ctx *lumen.Context, center glm.Vec3f, size glm.Vec2f, color lumen.Color, label string) (*compositor.Primitive, error) {
	hx, hy := size[0]/2, size[1]/2

	a := glm.Vec3f{center[0] - hx, center[1] - hy, center[2]}
	b := glm.Vec3f{center[0] + hx, center[1] - hy, center[2]}
	c := glm.Vec3f{center[0] + hx, center[1] + hy, center[2]}
	d := glm.Vec3f{center[0] - hx, center[1] + hy, center[2]}

	geom, err := compositor.NewGeometry(ctx, compositor.NewGeometryOptions{
		Kind:      compositor.GeometrySurfaceMesh,
		Planar:    true,
		Positions: []glm.Vec3f{a, b, c, a, c, d},
		Label:     label,
	})

	if err != nil {
		return nil, fmt.Errorf("create quad %q: %w", label, err)
	}

	return &compositor.Primitive{
		Geom:   geom,
		Params: compositor.GraphicParams{FillColor: color},
	}, nil
}

// buildMarker builds a small overlay pyramid above the scene origin.
func buildMarker(ctx *lumen.Context) (*compositor.Primitive, error) {
	tip := glm.Vec3f{0, 0, 36}
	base := [4]glm.Vec3f{
		{-1.5, -1.5, 40},
		{1.5, -1.5, 40},
		{1.5, 1.5, 40},
		{-1.5, 1.5, 40},
	}

	positions := []glm.Vec3f{
		tip, base[0], base[1],
		tip, base[1], base[2],
		tip, base[2], base[3],
		tip, base[3], base[0],
	}

	geom, err := compositor.NewGeometry(ctx, compositor.NewGeometryOptions{
		Kind:      compositor.GeometrySurfaceMesh,
		Positions: positions,
		Label:     "Marker",
	})

	if err != nil {
		return nil, fmt.Errorf("create marker: %w", err)
	}

	return &compositor.Primitive{
		Geom: geom,
		Params: compositor.GraphicParams{
			FillColor: lumen.ColorSRGBA(0.95, 0.4, 0.2, 1),
		},
	}, nil
}

func sign(positive bool) float32 {
	if positive {
		return 1
	}

	return -1
}
