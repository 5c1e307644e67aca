package sightline

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is an entity's world transform. For roots it is the
// source of truth; for children it is derived from LocalTransformComponent.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3) TransformComponent {
	return TransformComponent{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Forward is the transform's local +Z axis in world space.
func (tr TransformComponent) Forward() mgl32.Vec3 {
	return tr.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
}

func (tr TransformComponent) Right() mgl32.Vec3 {
	return tr.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
}

// InverseTransformDirection maps a world direction into local space.
func (tr TransformComponent) InverseTransformDirection(dir mgl32.Vec3) mgl32.Vec3 {
	return tr.Rotation.Conjugate().Rotate(dir)
}

type LocalTransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

type Parent struct {
	Entity EntityId
}

type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(TransformHierarchySystem).
			InStage(PostUpdate),
	)
}

const maxHierarchyDepth = 8

func TransformHierarchySystem(cmd *Commands) {
	// Roots keep their local copy in sync with the world transform gameplay writes.
	MakeQuery2[LocalTransformComponent, TransformComponent](cmd).Without(Parent{}).Map(func(eid EntityId, local *LocalTransformComponent, tr *TransformComponent) bool {
		local.Position = tr.Position
		local.Rotation = tr.Rotation
		local.Scale = tr.Scale
		return true
	})

	// One pass per level; stops early once nothing moves.
PassLoop:
	for pass := 0; pass < maxHierarchyDepth; pass++ {
		changed := false
		MakeQuery3[LocalTransformComponent, Parent, TransformComponent](cmd).Map(func(eid EntityId, local *LocalTransformComponent, parent *Parent, world *TransformComponent) bool {
			parentWorld, ok := GetComponent[TransformComponent](cmd, parent.Entity)
			if !ok {
				return true
			}

			// WorldPos = ParentPos + ParentRot * (ParentScale * LocalPos)
			scaledLocalPos := mgl32.Vec3{
				local.Position.X() * parentWorld.Scale.X(),
				local.Position.Y() * parentWorld.Scale.Y(),
				local.Position.Z() * parentWorld.Scale.Z(),
			}
			newPos := parentWorld.Position.Add(parentWorld.Rotation.Rotate(scaledLocalPos))
			newRot := parentWorld.Rotation.Mul(local.Rotation).Normalize()
			newScale := mgl32.Vec3{
				parentWorld.Scale.X() * local.Scale.X(),
				parentWorld.Scale.Y() * local.Scale.Y(),
				parentWorld.Scale.Z() * local.Scale.Z(),
			}

			if newPos != world.Position || newRot != world.Rotation || newScale != world.Scale {
				world.Position = newPos
				world.Rotation = newRot
				world.Scale = newScale
				changed = true
			}
			return true
		})
		if !changed {
			break PassLoop
		}
	}
}

// ParentOf returns the entity's parent, if it has one.
func ParentOf(cmd *Commands, eid EntityId) (EntityId, bool) {
	p, ok := GetComponent[Parent](cmd, eid)
	if !ok || p.Entity == 0 {
		return 0, false
	}
	return p.Entity, true
}

// RootOf walks Parent links up to the topmost ancestor. Cycles and chains
// deeper than the propagation limit stop at the last entity reached.
func RootOf(cmd *Commands, eid EntityId) EntityId {
	root := eid
	for i := 0; i < maxHierarchyDepth; i++ {
		p, ok := ParentOf(cmd, root)
		if !ok || p == eid {
			break
		}
		root = p
	}
	return root
}
