// Package platform connects a GLFW window to the engine: it owns the window
// and feeds keyboard, mouse and window size into sightline.Input.
package platform

import (
	"fmt"
	"runtime"

	"github.com/gekko3d/sightline"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW calls must come from the main thread.
	runtime.LockOSThread()
}

// Window is the shared GLFW window resource.
type Window struct {
	handle *glfw.Window
	Width  int
	Height int
	Title  string
}

// OpenWindow initializes GLFW and opens a window without a client API; the
// engine draws nothing itself.
func OpenWindow(width, height int, title string) (*Window, error) {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "sightline"
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	handle, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	return &Window{handle: handle, Width: width, Height: height, Title: title}, nil
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

// Close destroys the window and shuts GLFW down.
func (w *Window) Close() {
	w.handle.Destroy()
	glfw.Terminate()
}

// WindowModule opens the window, unless a Window resource exists already,
// and polls it into sightline.Input every frame. Install it after
// sightline.InputModule. Closing the window or pressing Escape exits the app.
type WindowModule struct {
	Width  int
	Height int
	Title  string
}

func (m WindowModule) Install(app *sightline.App, cmd *sightline.Commands) {
	if _, ok := sightline.Resource[Window](app); !ok {
		w, err := OpenWindow(m.Width, m.Height, m.Title)
		if err != nil {
			panic(err)
		}
		cmd.AddResources(w)
		cmd.Logger().Infof("opened window %dx%d %q", w.Width, w.Height, w.Title)
	}

	app.UseSystem(
		sightline.System(pollInputSystem).InStage(sightline.Prelude),
	).UseSystem(
		sightline.System(windowCloseSystem).InStage(sightline.Finale),
	)
}

func windowCloseSystem(cmd *sightline.Commands, w *Window, input *sightline.Input) {
	if w.ShouldClose() || input.JustPressed[sightline.KeyEscape] {
		cmd.Logger().Infof("window closed")
		cmd.Exit()
	}
}
