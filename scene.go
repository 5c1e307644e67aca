package sightline

import (
	"fmt"

	"github.com/gekko3d/sightline/occlusion"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Blocks []BlockDef
	Player PlayerDef
	Camera CameraDef
}

// BlockDef is a static box: floor, wall, pillar. Material is a material name.
type BlockDef struct {
	Position    mgl32.Vec3
	HalfExtents mgl32.Vec3
	Material    string
	Layer       uint8
	Trigger     bool
}

type PlayerDef struct {
	Position mgl32.Vec3
	Yaw      float32 // degrees
	// Occlusion attaches an occlusion manager to the player.
	Occlusion bool
}

// CameraDef places the camera on the follow line: Distance units back from
// the player along -Direction.
type CameraDef struct {
	Direction mgl32.Vec3
}

// SceneHandles are the entities LoadScene spawned.
type SceneHandles struct {
	Player    EntityId
	Camera    EntityId
	Blocks    []EntityId
	Occlusion *occlusion.Manager
}

var (
	playerHalfExtents = mgl32.Vec3{0.3, 0.9, 0.3}
	playerOffset      = mgl32.Vec3{0, 0.9, 0}
)

// DemoScene is a floor with a wall and a pillar standing between the
// isometric camera and the player, plus one wall off to the side.
func DemoScene() SceneDef {
	return SceneDef{
		Blocks: []BlockDef{
			{Position: mgl32.Vec3{0, -0.5, 0}, HalfExtents: mgl32.Vec3{20, 0.5, 20}, Material: "Floor"},
			{Position: mgl32.Vec3{-3, 2.5, -3}, HalfExtents: mgl32.Vec3{2, 2.5, 0.3}, Material: "Wall"},
			{Position: mgl32.Vec3{-1.5, 2, -1.5}, HalfExtents: mgl32.Vec3{0.4, 2, 0.4}, Material: "Wall"},
			{Position: mgl32.Vec3{6, 1.5, 4}, HalfExtents: mgl32.Vec3{0.3, 1.5, 3}, Material: "Wall"},
		},
		Player: PlayerDef{Occlusion: true},
		Camera: CameraDef{Direction: mgl32.Vec3{1, -1.2, 1}},
	}
}

// DemoMaterials are the materials DemoScene refers to. Hider is the default
// occlusion override.
func DemoMaterials() []MaterialDef {
	return []MaterialDef{
		{Name: "Floor", Scalars: map[string]float32{occlusion.DefaultProperty: 1}},
		{Name: "Wall", Scalars: map[string]float32{occlusion.DefaultProperty: 1}},
		{Name: "Hider", Scalars: map[string]float32{occlusion.DefaultProperty: 0.5}},
	}
}

// LoadScene spawns scene through cmd. Entities appear at the next flush.
func LoadScene(cmd *Commands, assets *AssetServer, scene SceneDef, cfg Config) (SceneHandles, error) {
	var handles SceneHandles

	for i, block := range scene.Blocks {
		eid, err := spawnBlock(cmd, assets, block)
		if err != nil {
			return handles, fmt.Errorf("load scene: block %d: %w", i, err)
		}
		handles.Blocks = append(handles.Blocks, eid)
	}

	handles.Player = spawnPlayer(cmd, scene.Player, cfg)
	handles.Camera = spawnCamera(cmd, scene.Camera, scene.Player.Position, handles.Player, cfg.Camera)

	if scene.Player.Occlusion {
		manager, err := AttachOcclusion(cmd, handles.Player, cfg.Occlusion)
		if err != nil {
			return handles, fmt.Errorf("load scene: %w", err)
		}
		handles.Occlusion = manager
	}

	cmd.Logger().Infof("scene: %d blocks, player %v, camera %v", len(handles.Blocks), handles.Player, handles.Camera)
	return handles, nil
}

func spawnBlock(cmd *Commands, assets *AssetServer, def BlockDef) (EntityId, error) {
	comps := []any{
		&TransformComponent{
			Position: def.Position,
			Rotation: mgl32.QuatIdent(),
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&ColliderComponent{
			HalfExtents: def.HalfExtents,
			Layer:       def.Layer,
			Trigger:     def.Trigger,
		},
	}

	if def.Material != "" {
		mat, ok := assets.MaterialByName(def.Material)
		if !ok {
			return 0, fmt.Errorf("material %q: %w", def.Material, occlusion.ErrNoMaterial)
		}
		comps = append(comps, &RendererComponent{Material: mat})
	}

	return cmd.AddEntity(comps...), nil
}

func spawnPlayer(cmd *Commands, def PlayerDef, cfg Config) EntityId {
	controller := NewPlayerController(cfg.Movement, cfg.Aim)
	animator := NewAnimator()

	return cmd.AddEntity(
		&TransformComponent{
			Position: def.Position,
			Rotation: YawRotation(def.Yaw),
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&controller,
		&ColliderComponent{HalfExtents: playerHalfExtents, Offset: playerOffset},
		&CharacterBodyComponent{},
		&animator,
		&WeaponComponent{},
	)
}

func spawnCamera(cmd *Commands, def CameraDef, playerPos mgl32.Vec3, player EntityId, settings CameraSettings) EntityId {
	dir := def.Direction
	if dir.LenSqr() == 0 {
		dir = mgl32.Vec3{0, 0, 1}
	}
	dir = dir.Normalize()

	camera := NewCamera(playerPos.Sub(dir.Mul(settings.Distance)), playerPos)
	camera.Fov = settings.Fov

	return cmd.AddEntity(
		&camera,
		&FollowCameraComponent{
			Target:      player,
			Distance:    settings.Distance,
			FollowSpeed: settings.FollowSpeed,
		},
	)
}
