package sightline

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const testStep = time.Second / 60

func newTestApp(modules ...Module) (*App, *Commands) {
	app := NewAppBuilder().UseModule(modules...).Build()
	return app, app.Commands()
}

// spawnBox adds a static collider box centered at center. It exists after the
// next flush.
func spawnBox(cmd *Commands, center, half mgl32.Vec3, extra ...any) EntityId {
	tr := NewTransform(center)
	comps := append([]any{&tr, &ColliderComponent{HalfExtents: half}}, extra...)
	return cmd.AddEntity(comps...)
}

func stepFrames(app *App, n int) {
	for range n {
		app.Step()
	}
}

func vecInDelta(a, b mgl32.Vec3, delta float32) bool {
	return a.ApproxEqualThreshold(b, delta)
}
