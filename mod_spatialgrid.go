package sightline

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

type AABBComponent struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (aabb AABBComponent) Box() cube.BBox {
	return cube.Box(aabb.Min.X(), aabb.Min.Y(), aabb.Min.Z(), aabb.Max.X(), aabb.Max.Y(), aabb.Max.Z())
}

func aabbFromBox(bb cube.BBox) AABBComponent {
	return AABBComponent{Min: bb.Min(), Max: bb.Max()}
}

type SpatialHashGrid struct {
	cellSize float32
	// Map from cell hash to list of entities
	cells map[uint64][]EntityId
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]EntityId),
	}
}

func (grid *SpatialHashGrid) Clear() {
	clear(grid.cells)
}

func (grid *SpatialHashGrid) Insert(id EntityId, aabb AABBComponent) {
	minX, maxX := grid.getCellIndex(aabb.Min.X()), grid.getCellIndex(aabb.Max.X())
	minY, maxY := grid.getCellIndex(aabb.Min.Y()), grid.getCellIndex(aabb.Max.Y())
	minZ, maxZ := grid.getCellIndex(aabb.Min.Z()), grid.getCellIndex(aabb.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				key := grid.hashKey(x, y, z)
				grid.cells[key] = append(grid.cells[key], id)
			}
		}
	}
}

func (grid *SpatialHashGrid) QueryAABB(aabb AABBComponent) []EntityId {
	minX, maxX := grid.getCellIndex(aabb.Min.X()), grid.getCellIndex(aabb.Max.X())
	minY, maxY := grid.getCellIndex(aabb.Min.Y()), grid.getCellIndex(aabb.Max.Y())
	minZ, maxZ := grid.getCellIndex(aabb.Min.Z()), grid.getCellIndex(aabb.Max.Z())

	unique := make(map[EntityId]struct{})
	var results []EntityId

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				results = grid.collect(grid.hashKey(x, y, z), unique, results)
			}
		}
	}
	return results
}

func (grid *SpatialHashGrid) QueryBox(bb cube.BBox) []EntityId {
	return grid.QueryAABB(aabbFromBox(bb))
}

// QuerySegment returns the entities in every cell the segment start→end
// passes through, in the order the cells are visited. Cells are walked with
// a 3D DDA, so long segments cost one lookup per crossed cell.
func (grid *SpatialHashGrid) QuerySegment(start, end mgl32.Vec3) []EntityId {
	unique := make(map[EntityId]struct{})
	var results []EntityId

	cell := [3]int{grid.getCellIndex(start.X()), grid.getCellIndex(start.Y()), grid.getCellIndex(start.Z())}
	delta := end.Sub(start)
	length := delta.Len()
	if length < 1e-6 {
		return grid.collect(grid.hashKey(cell[0], cell[1], cell[2]), unique, results)
	}
	dir := delta.Mul(1 / length)

	var step [3]int
	var tMax, tDelta [3]float32
	for a := 0; a < 3; a++ {
		switch {
		case dir[a] > 0:
			step[a] = 1
			tMax[a] = (float32(cell[a]+1)*grid.cellSize - start[a]) / dir[a]
			tDelta[a] = grid.cellSize / dir[a]
		case dir[a] < 0:
			step[a] = -1
			tMax[a] = (float32(cell[a])*grid.cellSize - start[a]) / dir[a]
			tDelta[a] = -grid.cellSize / dir[a]
		default:
			tMax[a] = math32.MaxFloat32
			tDelta[a] = math32.MaxFloat32
		}
	}

	// Bounded by the number of cell boundaries the segment can cross.
	maxSteps := 3 + int(length/grid.cellSize)*3
	for i := 0; i <= maxSteps; i++ {
		results = grid.collect(grid.hashKey(cell[0], cell[1], cell[2]), unique, results)

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > length {
			break
		}
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
	}
	return results
}

func (grid *SpatialHashGrid) QueryRadius(center mgl32.Vec3, radius float32) []EntityId {
	aabb := AABBComponent{
		Min: center.Sub(mgl32.Vec3{radius, radius, radius}),
		Max: center.Add(mgl32.Vec3{radius, radius, radius}),
	}
	// Broadphase only: the grid stores ids, not shapes.
	return grid.QueryAABB(aabb)
}

func (grid *SpatialHashGrid) collect(key uint64, unique map[EntityId]struct{}, results []EntityId) []EntityId {
	for _, id := range grid.cells[key] {
		if _, ok := unique[id]; !ok {
			unique[id] = struct{}{}
			results = append(results, id)
		}
	}
	return results
}

func (grid *SpatialHashGrid) getCellIndex(pos float32) int {
	return int(math32.Floor(pos / grid.cellSize))
}

// Simple hash function for 3D coordinates
func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}

type SpatialGridModule struct {
	CellSize float32
}

func (m SpatialGridModule) Install(app *App, cmd *Commands) {
	cellSize := m.CellSize
	if cellSize <= 0 {
		// reasonable for objects ~1-2 units size
		cellSize = 2.0
	}
	cmd.AddResources(NewSpatialHashGrid(cellSize))

	app.UseSystem(
		System(UpdateAABBsSystem).InStage(PreUpdate),
	).UseSystem(
		System(UpdateSpatialGridSystem).InStage(PreUpdate),
	).UseSystem(
		// Late refresh so raycasts after movement and hierarchy see current boxes.
		System(UpdateAABBsSystem).InStage(PostUpdate),
	).UseSystem(
		System(UpdateSpatialGridSystem).InStage(PostUpdate),
	)
}

func UpdateAABBsSystem(cmd *Commands) {
	MakeQuery3[TransformComponent, ColliderComponent, AABBComponent](cmd).Map(func(id EntityId, tr *TransformComponent, col *ColliderComponent, aabb *AABBComponent) bool {
		*aabb = aabbFromBox(col.WorldBox(*tr))
		return true
	})

	// Colliders spawned without a box get one at the next flush.
	MakeQuery2[TransformComponent, ColliderComponent](cmd).Without(AABBComponent{}).Map(func(id EntityId, tr *TransformComponent, col *ColliderComponent) bool {
		cmd.AddComponents(id, aabbFromBox(col.WorldBox(*tr)))
		return true
	})
}

func UpdateSpatialGridSystem(cmd *Commands, grid *SpatialHashGrid) {
	grid.Clear()

	MakeQuery1[AABBComponent](cmd).Map(func(id EntityId, aabb *AABBComponent) bool {
		grid.Insert(id, *aabb)
		return true
	})
}
