package sightline

const (
	KeyA int = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyInsert
	KeyDelete
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyMinus
	KeyEqual
	KeyKPPlus
	KeyKPMinus
	KeyShift
	KeyControl
	KeyLeftAlt
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

// Input is the per-frame snapshot every gameplay system reads. Sources write
// raw button state through SetButton; InputModule derives the axes.
type Input struct {
	Pressed [256]bool

	JustPressed  [256]bool
	JustReleased [256]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool

	WindowWidth, WindowHeight int

	// Horizontal and Vertical are the raw movement axes, each -1, 0 or 1.
	Horizontal, Vertical float32
}

// SetButton records the state of a key or mouse button for this frame,
// raising the edge flags on transitions.
func (input *Input) SetButton(key int, down bool) {
	input.JustPressed[key] = false
	input.JustReleased[key] = false

	if down {
		if !input.Pressed[key] {
			input.JustPressed[key] = true
		}
		input.Pressed[key] = true
	} else {
		if input.Pressed[key] {
			input.JustReleased[key] = true
		}
		input.Pressed[key] = false
	}
}

// MoveMouse sets the cursor position and the delta since the last call.
func (input *Input) MoveMouse(x, y float64) {
	if input.MouseCaptured {
		input.MouseDeltaX = x - input.MouseX
		input.MouseDeltaY = y - input.MouseY
	} else {
		input.MouseDeltaX = 0
		input.MouseDeltaY = 0
	}
	input.MouseX = x
	input.MouseY = y
}

func (input *Input) axis(negative, positive []int) float32 {
	var v float32
	for _, k := range negative {
		if input.Pressed[k] {
			v -= 1
			break
		}
	}
	for _, k := range positive {
		if input.Pressed[k] {
			v += 1
			break
		}
	}
	return v
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputAxesSystem).
			InStage(PreUpdate),
	)
}

func inputAxesSystem(input *Input) {
	input.Horizontal = input.axis([]int{KeyA, KeyLeft}, []int{KeyD, KeyRight})
	input.Vertical = input.axis([]int{KeyS, KeyDown}, []int{KeyW, KeyUp})
}

// InputFrame is one frame of scripted input: the buttons held and the cursor.
type InputFrame struct {
	Held           []int
	MouseX, MouseY float64
}

// ScriptedInputModule replays a fixed input sequence, one entry per frame,
// holding the last entry once the script runs out. It stands in for a
// window in tests and headless runs.
type ScriptedInputModule struct {
	Script []InputFrame
	Width  int
	Height int
}

type inputScript struct {
	frames []InputFrame
	next   int
}

func (mod ScriptedInputModule) Install(app *App, cmd *Commands) {
	script := &inputScript{frames: mod.Script}
	cmd.AddResources(script)
	app.UseSystem(
		System(func(input *Input, script *inputScript) {
			if input.WindowWidth == 0 {
				input.WindowWidth, input.WindowHeight = mod.Width, mod.Height
			}
			scriptedInputSystem(input, script)
		}).InStage(Prelude),
	)
}

func scriptedInputSystem(input *Input, script *inputScript) {
	if len(script.frames) == 0 {
		return
	}
	frame := script.frames[min(script.next, len(script.frames)-1)]
	script.next++

	held := make(map[int]bool, len(frame.Held))
	for _, k := range frame.Held {
		held[k] = true
	}
	for key := range input.Pressed {
		input.SetButton(key, held[key])
	}
	input.MoveMouse(frame.MouseX, frame.MouseY)
}
