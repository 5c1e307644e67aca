package sightline

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// ColliderComponent gives an entity a box for raycasts and character
// collision. HalfExtents are scaled by the entity's world scale.
type ColliderComponent struct {
	HalfExtents mgl32.Vec3
	Offset      mgl32.Vec3
	Layer       uint8
	// Trigger colliders are raycast targets only; characters pass through them.
	Trigger bool
}

// WorldBox is the collider's axis aligned box under tr. Rotation is ignored.
func (col ColliderComponent) WorldBox(tr TransformComponent) cube.BBox {
	half := mgl32.Vec3{
		col.HalfExtents.X() * math32.Abs(tr.Scale.X()),
		col.HalfExtents.Y() * math32.Abs(tr.Scale.Y()),
		col.HalfExtents.Z() * math32.Abs(tr.Scale.Z()),
	}
	center := tr.Position.Add(col.Offset)
	lo, hi := center.Sub(half), center.Add(half)
	return cube.Box(lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y(), hi.Z())
}

// CharacterBodyComponent marks an entity moved kinematically by MoveAndSlide.
type CharacterBodyComponent struct {
	Velocity mgl32.Vec3 // realized velocity of the last move
	Blocked  bool       // last move was clipped on some axis
}

// clipAxis shortens delta along axis so that moving does not push it into
// stationary. Boxes that do not overlap on the two other axes never clip.
func clipAxis(stationary, moving cube.BBox, axis int, delta float32) float32 {
	const eps = 1e-5
	for a := 0; a < 3; a++ {
		if a == axis {
			continue
		}
		if moving.Max()[a] <= stationary.Min()[a]+eps || moving.Min()[a] >= stationary.Max()[a]-eps {
			return delta
		}
	}

	if delta > 0 && moving.Max()[axis] <= stationary.Min()[axis]+eps {
		gap := stationary.Min()[axis] - moving.Max()[axis]
		if gap < delta {
			return math32.Max(0, gap)
		}
	} else if delta < 0 && moving.Min()[axis] >= stationary.Max()[axis]-eps {
		gap := stationary.Max()[axis] - moving.Min()[axis]
		if gap > delta {
			return math32.Min(0, gap)
		}
	}
	return delta
}

// MoveAndSlide moves box by displacement against the solid boxes, resolving
// Y first and then X and Z so that blocked axes slide along the obstacle.
// It returns the displacement actually applied.
func MoveAndSlide(box cube.BBox, displacement mgl32.Vec3, solids []cube.BBox) (mgl32.Vec3, bool) {
	var applied mgl32.Vec3
	blocked := false

	for _, axis := range [3]int{1, 0, 2} {
		delta := displacement[axis]
		if math32.Abs(delta) < 1e-6 {
			continue
		}
		for i := len(solids) - 1; i >= 0; i-- {
			delta = clipAxis(solids[i], box, axis, delta)
		}
		if delta != displacement[axis] {
			blocked = true
		}
		var step mgl32.Vec3
		step[axis] = delta
		box = box.Translate(step)
		applied[axis] = delta
	}
	return applied, blocked
}

// nearbySolids collects the non-trigger collider boxes the grid reports near
// area, skipping self.
func nearbySolids(cmd *Commands, grid *SpatialHashGrid, self EntityId, area cube.BBox) []cube.BBox {
	var solids []cube.BBox
	for _, id := range grid.QueryBox(area) {
		if id == self {
			continue
		}
		col, ok := GetComponent[ColliderComponent](cmd, id)
		if !ok || col.Trigger {
			continue
		}
		aabb, ok := GetComponent[AABBComponent](cmd, id)
		if !ok {
			continue
		}
		solids = append(solids, aabb.Box())
	}
	return solids
}

// MoveCharacter applies displacement to a character entity's transform,
// sliding along static colliders, and records the realized velocity.
func MoveCharacter(cmd *Commands, grid *SpatialHashGrid, eid EntityId, tr *TransformComponent, col *ColliderComponent, body *CharacterBodyComponent, displacement mgl32.Vec3, dt float32) {
	applied := displacement
	blocked := false
	if col != nil && grid != nil {
		box := col.WorldBox(*tr)
		applied, blocked = MoveAndSlide(box, displacement, nearbySolids(cmd, grid, eid, box.Extend(displacement)))
	}

	tr.Position = tr.Position.Add(applied)
	if body != nil {
		body.Blocked = blocked
		if dt > 0 {
			body.Velocity = applied.Mul(1 / dt)
		} else {
			body.Velocity = mgl32.Vec3{}
		}
	}
}
