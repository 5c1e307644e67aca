package sightline

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32 // vertical, degrees
	Aspect   float32
	Near     float32
	Far      float32
}

func NewCamera(position, lookAt mgl32.Vec3) CameraComponent {
	return CameraComponent{
		Position: position,
		LookAt:   lookAt,
		Up:       worldUp,
		Fov:      45,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      1000,
	}
}

func (c *CameraComponent) Forward() mgl32.Vec3 {
	f := c.LookAt.Sub(c.Position)
	if f.LenSqr() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

func (c *CameraComponent) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.LookAt, c.Up)
}

func (c *CameraComponent) ProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

// ScreenPointToRay turns a cursor position in pixels, origin top-left, into
// a world ray starting on the near plane.
func (c *CameraComponent) ScreenPointToRay(x, y float64, width, height int) (origin, dir mgl32.Vec3, err error) {
	if width <= 0 || height <= 0 {
		return origin, dir, fmt.Errorf("screen point to ray: invalid viewport %dx%d", width, height)
	}
	view, proj := c.ViewMatrix(), c.ProjectionMatrix()
	winX, winY := float32(x), float32(height)-float32(y)

	near, err := mgl32.UnProject(mgl32.Vec3{winX, winY, 0}, view, proj, 0, 0, width, height)
	if err != nil {
		return origin, dir, fmt.Errorf("screen point to ray: %w", err)
	}
	far, err := mgl32.UnProject(mgl32.Vec3{winX, winY, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return origin, dir, fmt.Errorf("screen point to ray: %w", err)
	}
	return near, far.Sub(near).Normalize(), nil
}

// FollowCameraComponent keeps a camera Distance units behind Target along
// the camera's own forward axis, closing a FollowSpeed fraction of the gap
// per second. The camera's orientation never changes.
type FollowCameraComponent struct {
	Target      EntityId
	Distance    float32
	FollowSpeed float32
}

type CameraSettings struct {
	Distance    float32 `yaml:"distance" toml:"distance"`
	FollowSpeed float32 `yaml:"follow_speed" toml:"follow_speed"`
	Fov         float32 `yaml:"fov" toml:"fov"`
}

func DefaultCameraSettings() CameraSettings {
	return CameraSettings{
		Distance:    25,
		FollowSpeed: 0.1,
		Fov:         45,
	}
}

func cameraFollowSystem(cmd *Commands, time *Time) {
	dt := time.DeltaSeconds()
	if dt <= 0 {
		return
	}

	MakeQuery2[CameraComponent, FollowCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, follow *FollowCameraComponent) bool {
		target, ok := GetComponent[TransformComponent](cmd, follow.Target)
		if !ok {
			return true
		}

		forward := cam.Forward()
		targetPos := target.Position.Sub(forward.Mul(follow.Distance))
		cam.Position = cam.Position.Add(targetPos.Sub(cam.Position).Mul(follow.FollowSpeed * dt))
		cam.LookAt = cam.Position.Add(forward)
		return true
	})
}

// MainCamera returns the first camera entity.
func MainCamera(cmd *Commands) (EntityId, *CameraComponent, bool) {
	var (
		camId EntityId
		cam   *CameraComponent
	)
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, c *CameraComponent) bool {
		camId, cam = eid, c
		return false
	})
	return camId, cam, cam != nil
}
