package sightline

import (
	"testing"

	"github.com/gekko3d/sightline/occlusion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetServer_CreateMaterial(t *testing.T) {
	server := NewAssetServer()

	wall := server.CreateMaterial("Wall", map[string]float32{"_Transparency": 1})
	id, ok := server.MaterialByName("Wall")
	require.True(t, ok)
	assert.Equal(t, wall, id)
	assert.Equal(t, "Wall", server.MaterialName(wall))
	assert.True(t, server.HasMaterial(wall))

	again := server.CreateMaterial("Wall", map[string]float32{"_Transparency": 0.7})
	assert.Equal(t, wall, again, "recreating a name keeps the id")
	v, err := server.Scalar(wall, "_Transparency")
	require.NoError(t, err)
	assert.Equal(t, float32(0.7), v)
	assert.Equal(t, uint(1), server.Version(wall))

	server.CreateMaterial("Floor", nil)
	assert.Equal(t, []string{"Floor", "Wall"}, server.MaterialNames())
}

func TestAssetServer_InstantiateAndRelease(t *testing.T) {
	server := NewAssetServer()
	scalars := map[string]float32{"_Transparency": 0.5}
	hider := server.CreateMaterial("Hider", scalars)
	scalars["_Transparency"] = 0.9 // the server keeps its own copy

	inst, err := server.Instantiate(hider)
	require.NoError(t, err)
	assert.NotEqual(t, hider, inst)
	assert.Equal(t, "Hider (Instance)", server.MaterialName(inst))
	src, ok := server.InstanceOf(inst)
	assert.True(t, ok)
	assert.Equal(t, hider, src)
	_, ok = server.InstanceOf(hider)
	assert.False(t, ok)

	require.NoError(t, server.SetScalar(inst, "_Transparency", 0.1))
	v, _ := server.Scalar(inst, "_Transparency")
	assert.Equal(t, float32(0.1), v)
	v, _ = server.Scalar(hider, "_Transparency")
	assert.Equal(t, float32(0.5), v, "instances do not write through to their source")
	assert.Equal(t, 1, server.InstanceCount())

	server.Release(hider)
	assert.True(t, server.HasMaterial(hider), "named materials are never released")
	server.Release(inst)
	assert.False(t, server.HasMaterial(inst))
	assert.Zero(t, server.InstanceCount())
}

func TestAssetServer_Errors(t *testing.T) {
	server := NewAssetServer()
	wall := server.CreateMaterial("Wall", map[string]float32{"_Color": 1})

	_, err := server.Instantiate("missing")
	assert.ErrorIs(t, err, occlusion.ErrNoMaterial)

	_, err = server.Scalar("missing", "_Color")
	assert.ErrorIs(t, err, occlusion.ErrNoMaterial)
	_, err = server.Scalar(wall, "_Transparency")
	assert.ErrorIs(t, err, occlusion.ErrNoProperty)

	assert.ErrorIs(t, server.SetScalar(wall, "_Transparency", 0.5), occlusion.ErrNoProperty)
	assert.ErrorIs(t, server.SetScalar("missing", "_Color", 0.5), occlusion.ErrNoMaterial)

	_, ok := server.MaterialByName("missing")
	assert.False(t, ok)
	assert.Empty(t, server.MaterialName("missing"))
}

func TestAssetServerModule(t *testing.T) {
	app, _ := newTestApp(AssetServerModule{Materials: DemoMaterials()})

	server, ok := Resource[AssetServer](app)
	require.True(t, ok)
	assert.Equal(t, []string{"Floor", "Hider", "Wall"}, server.MaterialNames())
}
