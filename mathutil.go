package sightline

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// SmoothDamp moves current toward target like a critically damped spring
// that settles in roughly smoothTime seconds. velocity carries the spring
// state between calls. It never overshoots target.
func SmoothDamp(current, target float32, velocity *float32, smoothTime, dt float32) float32 {
	if dt <= 0 {
		return current
	}
	smoothTime = math32.Max(0.0001, smoothTime)
	omega := 2 / smoothTime

	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)
	change := current - target
	originalTo := target

	temp := (*velocity + omega*change) * dt
	*velocity = (*velocity - omega*temp) * exp
	output := target + (change+temp)*exp

	if (originalTo-current > 0) == (output > originalTo) {
		output = originalTo
		*velocity = (output - originalTo) / dt
	}
	return output
}

// SmoothDampAngle is SmoothDamp for angles in degrees, taking the short way
// around the circle.
func SmoothDampAngle(current, target float32, velocity *float32, smoothTime, dt float32) float32 {
	target = current + DeltaAngle(current, target)
	return SmoothDamp(current, target, velocity, smoothTime, dt)
}

// DeltaAngle is the shortest signed difference target - current in degrees,
// in (-180, 180].
func DeltaAngle(current, target float32) float32 {
	delta := Repeat(target-current, 360)
	if delta > 180 {
		delta -= 360
	}
	return delta
}

// Repeat wraps t into [0, length).
func Repeat(t, length float32) float32 {
	return mgl32.Clamp(t-math32.Floor(t/length)*length, 0, length)
}

// Remap maps value linearly from [from1, to1] onto [from2, to2] without clamping.
func Remap(value, from1, to1, from2, to2 float32) float32 {
	return (value-from1)/(to1-from1)*(to2-from2) + from2
}

// AngleBetween is the unsigned angle between a and b in degrees. Zero
// vectors give 0.
func AngleBetween(a, b mgl32.Vec3) float32 {
	denom := math32.Sqrt(a.LenSqr() * b.LenSqr())
	if denom < 1e-15 {
		return 0
	}
	cos := mgl32.Clamp(a.Dot(b)/denom, -1, 1)
	return mgl32.RadToDeg(math32.Acos(cos))
}

// YawRotation rotates by deg degrees around +Y; yaw 0 faces +Z.
func YawRotation(deg float32) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(deg), worldUp)
}

// YawOf is the heading of q's forward axis in degrees, in [0, 360).
func YawOf(q mgl32.Quat) float32 {
	f := q.Rotate(mgl32.Vec3{0, 0, 1})
	return Repeat(mgl32.RadToDeg(math32.Atan2(f.X(), f.Z())), 360)
}

// LookRotation turns +Z toward dir with up as the reference up. A dir
// parallel to up keeps the identity.
func LookRotation(dir, up mgl32.Vec3) mgl32.Quat {
	if dir.LenSqr() < 1e-12 {
		return mgl32.QuatIdent()
	}
	f := dir.Normalize()
	r := up.Cross(f)
	if r.LenSqr() < 1e-12 {
		return mgl32.QuatIdent()
	}
	r = r.Normalize()
	u := f.Cross(r)
	return mgl32.Mat4ToQuat(mgl32.Mat4{
		r.X(), r.Y(), r.Z(), 0,
		u.X(), u.Y(), u.Z(), 0,
		f.X(), f.Y(), f.Z(), 0,
		0, 0, 0, 1,
	}).Normalize()
}
