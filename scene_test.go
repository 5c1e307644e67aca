package sightline

import (
	"testing"

	"github.com/gekko3d/sightline/occlusion"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSceneTestApp(script []InputFrame, materials []MaterialDef) (*App, *Commands) {
	return newTestApp(
		TimeModule{FixedStep: testStep},
		InputModule{},
		ScriptedInputModule{Script: script, Width: 800, Height: 600},
		HierarchyModule{},
		SpatialGridModule{},
		AssetServerModule{Materials: materials},
		DebugDrawModule{Enabled: true},
		PlayerModule{},
		LifecycleModule{},
		OcclusionModule{},
	)
}

func TestLoadScene(t *testing.T) {
	app, cmd := newSceneTestApp(nil, DemoMaterials())
	assets, _ := Resource[AssetServer](app)

	handles, err := LoadScene(cmd, assets, DemoScene(), DefaultConfig())
	require.NoError(t, err)
	app.FlushCommands()

	assert.Len(t, handles.Blocks, len(DemoScene().Blocks))
	require.NotNil(t, handles.Occlusion)
	assert.Equal(t, occlusion.ObjectID(handles.Player), handles.Occlusion.WatchTarget())

	wall, _ := assets.MaterialByName("Wall")
	r, ok := GetComponent[RendererComponent](cmd, handles.Blocks[1])
	require.True(t, ok)
	assert.Equal(t, wall, r.Material)

	tr, ok := GetComponent[TransformComponent](cmd, handles.Player)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{}, tr.Position)
	_, ok = GetComponent[OcclusionComponent](cmd, handles.Player)
	assert.True(t, ok)

	camId, cam, ok := MainCamera(cmd)
	require.True(t, ok)
	assert.Equal(t, handles.Camera, camId)
	assert.InDelta(t, DefaultCameraSettings().Distance, cam.Position.Len(), 1e-3)
	assert.True(t, vecInDelta(mgl32.Vec3{1, -1.2, 1}.Normalize(), cam.Forward(), 1e-4))
}

func TestLoadScene_MissingMaterial(t *testing.T) {
	app, cmd := newSceneTestApp(nil, nil)
	assets, _ := Resource[AssetServer](app)

	_, err := LoadScene(cmd, assets, DemoScene(), DefaultConfig())
	assert.ErrorIs(t, err, occlusion.ErrNoMaterial)
}

func TestLoadScene_WithoutOcclusion(t *testing.T) {
	app, cmd := newSceneTestApp(nil, DemoMaterials())
	assets, _ := Resource[AssetServer](app)

	scene := DemoScene()
	scene.Player.Occlusion = false
	handles, err := LoadScene(cmd, assets, scene, DefaultConfig())
	require.NoError(t, err)
	app.FlushCommands()

	assert.Nil(t, handles.Occlusion)
	_, ok := OcclusionManagerOf(cmd, handles.Player)
	assert.False(t, ok)
}
