package sightline

import (
	"cmp"
	"slices"

	"github.com/ethaniccc/float32-cube/cube/trace"
	"github.com/gekko3d/sightline/occlusion"
	"github.com/go-gl/mathgl/mgl32"
)

type RaycastHit struct {
	Entity   EntityId
	Root     EntityId
	Distance float32
	Point    mgl32.Vec3
}

// RaycastAll intersects the segment origin + dir·[0, maxDistance] with every
// collider on a layer in mask and returns the hits sorted by distance.
// dir need not be normalized. A ray starting inside a box reports the exit
// point.
func RaycastAll(cmd *Commands, grid *SpatialHashGrid, origin, dir mgl32.Vec3, maxDistance float32, mask occlusion.LayerMask) []RaycastHit {
	if grid == nil || maxDistance <= 0 || dir.LenSqr() == 0 {
		return nil
	}
	end := origin.Add(dir.Normalize().Mul(maxDistance))

	var hits []RaycastHit
	for _, id := range grid.QuerySegment(origin, end) {
		col, ok := GetComponent[ColliderComponent](cmd, id)
		if !ok || !mask.Has(col.Layer) {
			continue
		}
		aabb, ok := GetComponent[AABBComponent](cmd, id)
		if !ok {
			continue
		}

		res, ok := trace.BBoxIntercept(aabb.Box(), origin, end)
		if !ok {
			continue
		}
		point := res.Position()
		hits = append(hits, RaycastHit{
			Entity:   id,
			Root:     RootOf(cmd, id),
			Distance: point.Sub(origin).Len(),
			Point:    point,
		})
	}

	slices.SortFunc(hits, func(a, b RaycastHit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity, b.Entity)
	})
	return hits
}

// Raycast returns the nearest hit, skipping colliders that are, or belong
// to, any of the excluded entities.
func Raycast(cmd *Commands, grid *SpatialHashGrid, origin, dir mgl32.Vec3, maxDistance float32, mask occlusion.LayerMask, exclude ...EntityId) (RaycastHit, bool) {
	for _, hit := range RaycastAll(cmd, grid, origin, dir, maxDistance, mask) {
		if slices.Contains(exclude, hit.Entity) || slices.Contains(exclude, hit.Root) {
			continue
		}
		return hit, true
	}
	return RaycastHit{}, false
}
