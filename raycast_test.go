package sightline

import (
	"testing"

	"github.com/gekko3d/sightline/occlusion"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaycastAll_SortedByDistance(t *testing.T) {
	app, cmd := newTestApp(HierarchyModule{}, SpatialGridModule{})

	far := spawnBox(cmd, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0.5, 0.5, 0.5})
	near := spawnBox(cmd, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0.5, 0.5, 0.5})
	spawnBox(cmd, mgl32.Vec3{3, 0, 5}, mgl32.Vec3{0.5, 0.5, 0.5})
	app.FlushCommands()
	app.Step()
	grid, _ := Resource[SpatialHashGrid](app)

	hits := RaycastAll(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 2}, 100, occlusion.AllLayers)
	require.Len(t, hits, 2)
	assert.Equal(t, near, hits[0].Entity)
	assert.Equal(t, far, hits[1].Entity)
	assert.InDelta(t, 4.5, hits[0].Distance, 1e-4)
	assert.InDelta(t, 9.5, hits[1].Distance, 1e-4)
	assert.True(t, vecInDelta(mgl32.Vec3{0, 0, 4.5}, hits[0].Point, 1e-4))
	assert.Equal(t, near, hits[0].Root)

	hits = RaycastAll(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 7, occlusion.AllLayers)
	require.Len(t, hits, 1, "max distance cuts the segment")

	assert.Empty(t, RaycastAll(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{}, 7, occlusion.AllLayers))
	assert.Empty(t, RaycastAll(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 0, occlusion.AllLayers))
	assert.Empty(t, RaycastAll(cmd, nil, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 7, occlusion.AllLayers))
}

func TestRaycastAll_LayerMask(t *testing.T) {
	app, cmd := newTestApp(HierarchyModule{}, SpatialGridModule{})

	glass := spawnBox(cmd, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0.5, 0.5, 0.5})
	wall := spawnBox(cmd, mgl32.Vec3{0, 0, 8}, mgl32.Vec3{0.5, 0.5, 0.5})
	app.FlushCommands()
	col, _ := GetComponent[ColliderComponent](cmd, glass)
	col.Layer = 3
	app.Step()
	grid, _ := Resource[SpatialHashGrid](app)

	mask := occlusion.AllLayers &^ (1 << 3)
	hits := RaycastAll(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 20, mask)
	require.Len(t, hits, 1)
	assert.Equal(t, wall, hits[0].Entity)
}

func TestRaycast_Exclude(t *testing.T) {
	app, cmd := newTestApp(HierarchyModule{}, SpatialGridModule{})

	owner := spawnBox(cmd, mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0.5, 0.5, 0.5})
	child := spawnBox(cmd, mgl32.Vec3{0, 0, 4}, mgl32.Vec3{0.5, 0.5, 0.5}, &Parent{Entity: owner})
	other := spawnBox(cmd, mgl32.Vec3{0, 0, 6}, mgl32.Vec3{0.5, 0.5, 0.5})
	app.FlushCommands()
	app.Step()
	grid, _ := Resource[SpatialHashGrid](app)

	hit, ok := Raycast(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 20, occlusion.AllLayers)
	require.True(t, ok)
	assert.Equal(t, owner, hit.Entity)

	hits := RaycastAll(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 20, occlusion.AllLayers)
	require.Len(t, hits, 3)
	assert.Equal(t, owner, hits[1].Root, "child colliders report their root")
	assert.Equal(t, child, hits[1].Entity)

	hit, ok = Raycast(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 20, occlusion.AllLayers, owner)
	require.True(t, ok)
	assert.Equal(t, other, hit.Entity, "excluding an entity skips its children too")

	_, ok = Raycast(cmd, grid, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 20, occlusion.AllLayers, owner, other)
	assert.False(t, ok)
}
