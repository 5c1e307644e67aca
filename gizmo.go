package sightline

import "github.com/go-gl/mathgl/mgl32"

type GizmoType int

const (
	GizmoLine GizmoType = iota
	GizmoCube
)

// GizmoComponent is a wireframe shape drawn for debugging.
// For Line, Position is the start and LineEnd the end, both in world space.
// For Cube, Position is the center and Scale the full size.
type GizmoComponent struct {
	Type  GizmoType
	Color [4]float32

	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	LineEnd mgl32.Vec3
}

func NewGizmoLine(start, end mgl32.Vec3, color [4]float32) GizmoComponent {
	return GizmoComponent{
		Type:     GizmoLine,
		Position: start,
		LineEnd:  end,
		Color:    color,
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
	}
}

func NewGizmoCube(center mgl32.Vec3, size mgl32.Vec3, color [4]float32) GizmoComponent {
	return GizmoComponent{
		Type:     GizmoCube,
		Position: center,
		Scale:    size,
		Color:    color,
		Rotation: mgl32.QuatIdent(),
	}
}

var (
	ColorSightLine = [4]float32{1, 1, 1, 1}
	ColorAimRay    = [4]float32{1, 0.2, 0.2, 1}
	ColorOccluder  = [4]float32{0.2, 0.6, 1, 1}
)

type timedGizmo struct {
	gizmo    GizmoComponent
	timeLeft float32
}

// DebugDraw collects immediate-mode gizmos. A gizmo drawn with duration 0
// lives for the current frame only.
type DebugDraw struct {
	Enabled bool
	gizmos  []timedGizmo
}

func (dd *DebugDraw) DrawLine(start, end mgl32.Vec3, color [4]float32, duration float32) {
	dd.Draw(NewGizmoLine(start, end, color), duration)
}

func (dd *DebugDraw) DrawBox(lo, hi mgl32.Vec3, color [4]float32, duration float32) {
	dd.Draw(NewGizmoCube(lo.Add(hi).Mul(0.5), hi.Sub(lo), color), duration)
}

func (dd *DebugDraw) Draw(g GizmoComponent, duration float32) {
	if dd == nil || !dd.Enabled {
		return
	}
	dd.gizmos = append(dd.gizmos, timedGizmo{gizmo: g, timeLeft: duration})
}

// Gizmos is what a renderer would draw this frame.
func (dd *DebugDraw) Gizmos() []GizmoComponent {
	res := make([]GizmoComponent, len(dd.gizmos))
	for i, g := range dd.gizmos {
		res[i] = g.gizmo
	}
	return res
}

type DebugDrawModule struct {
	Enabled bool
}

func (m DebugDrawModule) Install(app *App, cmd *Commands) {
	if dd, ok := Resource[DebugDraw](app); ok {
		dd.Enabled = m.Enabled
	} else {
		cmd.AddResources(&DebugDraw{Enabled: m.Enabled})
	}
	app.UseSystem(
		System(debugDrawAgeSystem).
			InStage(Finale),
	)
}

func debugDrawAgeSystem(dd *DebugDraw, time *Time) {
	dt := time.DeltaSeconds()
	kept := dd.gizmos[:0]
	for _, g := range dd.gizmos {
		g.timeLeft -= dt
		if g.timeLeft > 0 {
			kept = append(kept, g)
		}
	}
	clear(dd.gizmos[len(kept):])
	dd.gizmos = kept
}
