package platform

import (
	"github.com/gekko3d/sightline"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var keyToGlfw = map[int]glfw.Key{
	sightline.KeyA:       glfw.KeyA,
	sightline.KeyD:       glfw.KeyD,
	sightline.KeyS:       glfw.KeyS,
	sightline.KeyW:       glfw.KeyW,
	sightline.KeyQ:       glfw.KeyQ,
	sightline.KeyE:       glfw.KeyE,
	sightline.KeyR:       glfw.KeyR,
	sightline.KeyF:       glfw.KeyF,
	sightline.KeyG:       glfw.KeyG,
	sightline.Key1:       glfw.Key1,
	sightline.Key2:       glfw.Key2,
	sightline.Key3:       glfw.Key3,
	sightline.KeySpace:   glfw.KeySpace,
	sightline.KeyEnter:   glfw.KeyEnter,
	sightline.KeyEscape:  glfw.KeyEscape,
	sightline.KeyTab:     glfw.KeyTab,
	sightline.KeyRight:   glfw.KeyRight,
	sightline.KeyLeft:    glfw.KeyLeft,
	sightline.KeyDown:    glfw.KeyDown,
	sightline.KeyUp:      glfw.KeyUp,
	sightline.KeyF1:      glfw.KeyF1,
	sightline.KeyF2:      glfw.KeyF2,
	sightline.KeyShift:   glfw.KeyLeftShift,
	sightline.KeyControl: glfw.KeyLeftControl,
	sightline.KeyLeftAlt: glfw.KeyLeftAlt,
}

var mouseToGlfw = map[int]glfw.MouseButton{
	sightline.MouseButtonLeft:   glfw.MouseButtonLeft,
	sightline.MouseButtonRight:  glfw.MouseButtonRight,
	sightline.MouseButtonMiddle: glfw.MouseButtonMiddle,
}

func pollInputSystem(w *Window, input *sightline.Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.SetButton(key, w.handle.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range mouseToGlfw {
		input.SetButton(btn, w.handle.GetMouseButton(glfwBtn) == glfw.Press)
	}

	input.MoveMouse(w.handle.GetCursorPos())

	w.Width, w.Height = w.handle.GetSize()
	input.WindowWidth, input.WindowHeight = w.Width, w.Height

	if input.MouseCaptured {
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}
