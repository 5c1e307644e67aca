package sightline

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/sightline/occlusion"
	"github.com/go-gl/mathgl/mgl32"
)

type MovementSettings struct {
	WalkSpeed       float32 `yaml:"walk_speed" toml:"walk_speed"`
	RunSpeed        float32 `yaml:"run_speed" toml:"run_speed"`
	SpeedSmoothTime float32 `yaml:"speed_smooth_time" toml:"speed_smooth_time"`
	TurnSmoothTime  float32 `yaml:"turn_smooth_time" toml:"turn_smooth_time"`
	// YawOffset aligns input axes with an isometric camera, in degrees.
	YawOffset float32 `yaml:"yaw_offset" toml:"yaw_offset"`
	// While aiming, speed is scaled by AimSpeedFactor and by a modifier that
	// falls linearly from 1 to AimModifierMin as the angle between facing and
	// moving grows from 0 to AimAngleMax degrees.
	AimSpeedFactor float32 `yaml:"aim_speed_factor" toml:"aim_speed_factor"`
	AimAngleMax    float32 `yaml:"aim_angle_max" toml:"aim_angle_max"`
	AimModifierMin float32 `yaml:"aim_modifier_min" toml:"aim_modifier_min"`
}

func DefaultMovementSettings() MovementSettings {
	return MovementSettings{
		WalkSpeed:       2,
		RunSpeed:        5,
		SpeedSmoothTime: 0.5,
		TurnSmoothTime:  0.1,
		YawOffset:       45,
		AimSpeedFactor:  0.8,
		AimAngleMax:     140,
		AimModifierMin:  0.43,
	}
}

type AimSettings struct {
	MaxDistance         float32             `yaml:"max_distance" toml:"max_distance"`
	Mask                occlusion.LayerMask `yaml:"mask" toml:"mask"`
	MuzzleFlashLifetime float32             `yaml:"muzzle_flash_lifetime" toml:"muzzle_flash_lifetime"`
	MuzzleOffset        [3]float32          `yaml:"muzzle_offset" toml:"muzzle_offset"`
}

func DefaultAimSettings() AimSettings {
	return AimSettings{
		MaxDistance:         100,
		Mask:                occlusion.AllLayers,
		MuzzleFlashLifetime: 0.1,
		MuzzleOffset:        [3]float32{0.2, 1.4, 0.6},
	}
}

// PlayerControllerComponent drives an avatar from Input: isometric
// locomotion, turning, aim mode and firing.
type PlayerControllerComponent struct {
	Movement MovementSettings
	Aim      AimSettings

	Running bool
	Aiming  bool

	currentSpeed  float32
	speedVelocity float32
	turnVelocity  float32
}

func NewPlayerController(movement MovementSettings, aim AimSettings) PlayerControllerComponent {
	return PlayerControllerComponent{Movement: movement, Aim: aim}
}

func (pc *PlayerControllerComponent) CurrentSpeed() float32 {
	return pc.currentSpeed
}

type WeaponComponent struct {
	ShotsFired int
}

// MuzzleFlashComponent marks the short lived entity spawned by a shot.
type MuzzleFlashComponent struct {
	Shooter EntityId
}

type ShotEvent struct {
	Shooter   EntityId
	Frame     uint64
	Muzzle    mgl32.Vec3
	Direction mgl32.Vec3
	// Target is the aimed-at point when HasTarget is set.
	Target    mgl32.Vec3
	HasTarget bool
}

// ShotEvents queues shots for audio and particle consumers.
type ShotEvents struct {
	Events []ShotEvent
}

func (s *ShotEvents) Drain() []ShotEvent {
	events := s.Events
	s.Events = nil
	return events
}

const (
	AnimSpeedPercent = "speedPercent"
	AnimRightDir     = "rightDir"
	AnimForwardDir   = "forwardDir"
	AnimAiming       = "aiming"
)

// PlayerModule needs InputModule, TimeModule and SpatialGridModule. It
// registers locomotion, camera follow and aim in that order so the aim ray
// uses this frame's camera.
type PlayerModule struct{}

func (PlayerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&ShotEvents{})
	if _, ok := Resource[DebugDraw](app); !ok {
		cmd.AddResources(&DebugDraw{})
	}

	app.UseSystem(
		System(locomotionSystem).InStage(Update),
	).UseSystem(
		System(cameraFollowSystem).InStage(Update),
	).UseSystem(
		System(aimSystem).InStage(Update),
	)
}

func locomotionSystem(cmd *Commands, input *Input, time *Time, grid *SpatialHashGrid) {
	dt := time.DeltaSeconds()

	MakeQuery2[TransformComponent, PlayerControllerComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, pc *PlayerControllerComponent) bool {
		mv := pc.Movement

		inputDir := mgl32.Vec2{input.Horizontal, input.Vertical}
		inputLen := float32(0)
		if inputDir.LenSqr() > 0 {
			inputDir = inputDir.Normalize()
			inputLen = 1

			targetYaw := mgl32.RadToDeg(math32.Atan2(inputDir.X(), inputDir.Y())) + mv.YawOffset
			yaw := SmoothDampAngle(YawOf(tr.Rotation), targetYaw, &pc.turnVelocity, mv.TurnSmoothTime, dt)
			tr.Rotation = YawRotation(yaw)
		}

		pc.Running = input.Pressed[KeyShift]
		pc.Aiming = input.Pressed[MouseButtonRight]

		moveDir := YawRotation(mv.YawOffset).Rotate(mgl32.Vec3{inputDir.X(), 0, inputDir.Y()})
		anim, _ := GetComponent[AnimatorComponent](cmd, eid)

		var vel mgl32.Vec3
		if !pc.Aiming {
			vel = moveDir.Mul(pc.currentSpeed)

			targetSpeed := mv.WalkSpeed
			if pc.Running {
				targetSpeed = mv.RunSpeed
			}
			pc.currentSpeed = SmoothDamp(pc.currentSpeed, targetSpeed, &pc.speedVelocity, mv.SpeedSmoothTime, dt)
		} else {
			targetSpeed := mv.WalkSpeed * inputLen * mv.AimSpeedFactor
			pc.currentSpeed = SmoothDamp(pc.currentSpeed, targetSpeed, &pc.speedVelocity, mv.SpeedSmoothTime, dt)

			localMove := tr.InverseTransformDirection(moveDir)
			angle := AngleBetween(tr.Forward(), moveDir)
			directionModifier := Remap(angle, 0, mv.AimAngleMax, 1, mv.AimModifierMin)
			vel = moveDir.Mul(pc.currentSpeed * directionModifier)

			if anim != nil {
				anim.SetFloat(AnimRightDir, localMove.X())
				anim.SetFloat(AnimForwardDir, localMove.Z())
			}
		}

		col, _ := GetComponent[ColliderComponent](cmd, eid)
		body, _ := GetComponent[CharacterBodyComponent](cmd, eid)
		MoveCharacter(cmd, grid, eid, tr, col, body, vel.Mul(dt), dt)

		if anim != nil {
			realVel := vel
			if body != nil {
				realVel = body.Velocity
			}
			planar := mgl32.Vec2{realVel.X(), realVel.Z()}.Len()

			var speedPercent float32
			if pc.Running {
				speedPercent = planar / mv.RunSpeed
			} else {
				speedPercent = planar / mv.WalkSpeed * 0.5
			}
			anim.SetFloatDamped(AnimSpeedPercent, speedPercent, mv.SpeedSmoothTime, dt)
		}
		return true
	})
}

func aimSystem(cmd *Commands, input *Input, time *Time, grid *SpatialHashGrid, shots *ShotEvents, dd *DebugDraw) {
	_, cam, hasCamera := MainCamera(cmd)

	MakeQuery2[TransformComponent, PlayerControllerComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, pc *PlayerControllerComponent) bool {
		anim, _ := GetComponent[AnimatorComponent](cmd, eid)
		if anim != nil {
			anim.SetBool(AnimAiming, pc.Aiming)
		}
		if !pc.Aiming {
			return true
		}

		var (
			target    mgl32.Vec3
			hasTarget bool
		)
		if hasCamera {
			origin, dir, err := cam.ScreenPointToRay(input.MouseX, input.MouseY, input.WindowWidth, input.WindowHeight)
			if err != nil {
				cmd.Logger().Debugf("aim: %v", err)
			} else if hit, ok := Raycast(cmd, grid, origin, dir, pc.Aim.MaxDistance, pc.Aim.Mask, eid); ok {
				target, hasTarget = hit.Point, true
				dd.DrawLine(origin, hit.Point, ColorAimRay, 0)

				lookDir := hit.Point.Sub(tr.Position)
				lookDir[1] = 0
				if lookDir.LenSqr() > 1e-8 {
					tr.Rotation = LookRotation(lookDir, worldUp)
				}
			}
		}

		if input.JustPressed[MouseButtonLeft] {
			fire(cmd, eid, tr, pc, time, shots, target, hasTarget)
		}
		return true
	})
}

func fire(cmd *Commands, shooter EntityId, tr *TransformComponent, pc *PlayerControllerComponent, time *Time, shots *ShotEvents, target mgl32.Vec3, hasTarget bool) {
	if weapon, ok := GetComponent[WeaponComponent](cmd, shooter); ok {
		weapon.ShotsFired++
	}

	offset := mgl32.Vec3(pc.Aim.MuzzleOffset)
	muzzle := tr.Position.Add(tr.Rotation.Rotate(offset))
	shots.Events = append(shots.Events, ShotEvent{
		Shooter:   shooter,
		Frame:     time.Frame,
		Muzzle:    muzzle,
		Direction: tr.Forward(),
		Target:    target,
		HasTarget: hasTarget,
	})

	cmd.AddEntity(
		&Parent{Entity: shooter},
		&LocalTransformComponent{Position: offset, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		&TransformComponent{Position: muzzle, Rotation: tr.Rotation, Scale: mgl32.Vec3{1, 1, 1}},
		&LifetimeComponent{TimeLeft: pc.Aim.MuzzleFlashLifetime},
		&MuzzleFlashComponent{Shooter: shooter},
	)
	cmd.Logger().Debugf("player %v fired (shot %d)", shooter, len(shots.Events))
}
