package sightline

// AnimatorComponent holds the named parameters an animation graph reads.
// Nothing here plays clips; the parameters are the contract.
type AnimatorComponent struct {
	Floats map[string]float32
	Bools  map[string]bool

	dampVelocity map[string]float32
}

func NewAnimator() AnimatorComponent {
	return AnimatorComponent{
		Floats:       make(map[string]float32),
		Bools:        make(map[string]bool),
		dampVelocity: make(map[string]float32),
	}
}

func (a *AnimatorComponent) ensure() {
	if a.Floats == nil {
		a.Floats = make(map[string]float32)
	}
	if a.Bools == nil {
		a.Bools = make(map[string]bool)
	}
	if a.dampVelocity == nil {
		a.dampVelocity = make(map[string]float32)
	}
}

func (a *AnimatorComponent) SetFloat(name string, value float32) {
	a.ensure()
	a.Floats[name] = value
	a.dampVelocity[name] = 0
}

// SetFloatDamped eases the parameter toward value over dampTime seconds.
func (a *AnimatorComponent) SetFloatDamped(name string, value, dampTime, dt float32) {
	a.ensure()
	vel := a.dampVelocity[name]
	a.Floats[name] = SmoothDamp(a.Floats[name], value, &vel, dampTime, dt)
	a.dampVelocity[name] = vel
}

func (a *AnimatorComponent) Float(name string) float32 {
	return a.Floats[name]
}

func (a *AnimatorComponent) SetBool(name string, value bool) {
	a.ensure()
	a.Bools[name] = value
}

func (a *AnimatorComponent) Bool(name string) bool {
	return a.Bools[name]
}
