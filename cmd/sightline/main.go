package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gekko3d/sightline"
	"github.com/gekko3d/sightline/platform"
)

const (
	scriptWidth  = 1280
	scriptHeight = 720
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML config file")
	watch := flag.Bool("watch", false, "Reload the config file when it changes")
	frames := flag.Int("frames", 600, "Frames to run, 0 runs until exit")
	window := flag.Bool("window", false, "Open a window and read live input instead of the scripted demo")
	debug := flag.Bool("debug", false, "Enable debug logging and debug draw")
	flag.Parse()

	if err := run(*configPath, *watch, *frames, *window, *debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, watch bool, frames int, window bool, debug bool) error {
	cfg := sightline.DefaultConfig()
	if configPath != "" {
		loaded, err := sightline.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Demo materials first so that the config file can retune them.
	materials := append(sightline.DemoMaterials(), cfg.Materials...)

	builder := sightline.NewAppBuilder().
		UseModule(sightline.LoggingModule{Config: cfg.Logging, Debug: debug}).
		UseModule(sightline.TimeModule{FixedStep: fixedStep(window)}).
		UseModule(sightline.InputModule{})
	if window {
		builder.UseModule(platform.WindowModule{Width: scriptWidth, Height: scriptHeight, Title: "sightline"})
	} else {
		builder.UseModule(sightline.ScriptedInputModule{
			Script: demoScript(scriptWidth, scriptHeight),
			Width:  scriptWidth,
			Height: scriptHeight,
		})
	}
	app := builder.
		UseModule(sightline.HierarchyModule{}).
		UseModule(sightline.SpatialGridModule{}).
		UseModule(sightline.AssetServerModule{Materials: materials}).
		UseModule(sightline.DebugDrawModule{Enabled: debug}).
		UseModule(sightline.PlayerModule{}).
		UseModule(sightline.LifecycleModule{}).
		UseModule(sightline.OcclusionModule{}).
		Build()
	log := app.Logger()

	if w, ok := sightline.Resource[platform.Window](app); ok {
		defer w.Close()
	}

	cmd := app.Commands()
	assets, _ := sightline.Resource[sightline.AssetServer](app)
	handles, err := sightline.LoadScene(cmd, assets, sightline.DemoScene(), cfg)
	if err != nil {
		return err
	}
	app.FlushCommands()

	reload := sightline.ConfigReloadModule{Initial: cfg}
	if watch && configPath != "" {
		watcher, err := sightline.NewConfigWatcher(configPath, log)
		if err != nil {
			return err
		}
		defer watcher.Close()
		reload.Watcher = watcher
		log.Infof("watching %s for changes", configPath)
	}
	app.UseModules(reload, reportModule{handles: handles, frames: frames})

	app.Run()

	if z, ok := log.(*sightline.ZapLogger); ok {
		_ = z.Sync()
	}
	return nil
}

// fixedStep makes scripted runs reproducible; a window runs on the wall
// clock.
func fixedStep(window bool) time.Duration {
	if window {
		return 0
	}
	return time.Second / 60
}

// demoScript idles behind the wall, walks away from it, aims and fires a
// few shots, then runs back.
func demoScript(width, height int) []sightline.InputFrame {
	cx, cy := float64(width)/2, float64(height)/2
	var script []sightline.InputFrame
	hold := func(n int, keys ...int) {
		for range n {
			script = append(script, sightline.InputFrame{Held: keys, MouseX: cx, MouseY: cy})
		}
	}

	hold(60)
	hold(120, sightline.KeyW)
	for range 3 {
		hold(20, sightline.MouseButtonRight)
		hold(1, sightline.MouseButtonRight, sightline.MouseButtonLeft)
	}
	hold(90, sightline.KeyS, sightline.KeyShift)
	hold(60)
	return script
}

type reportModule struct {
	handles sightline.SceneHandles
	frames  int
}

func (m reportModule) Install(app *sightline.App, cmd *sightline.Commands) {
	app.UseSystem(
		sightline.System(func(cmd *sightline.Commands, t *sightline.Time, shots *sightline.ShotEvents) {
			m.report(cmd, t, shots)
		}).InStage(sightline.Finale),
	)
}

func (m reportModule) report(cmd *sightline.Commands, t *sightline.Time, shots *sightline.ShotEvents) {
	log := cmd.Logger()

	for _, shot := range shots.Drain() {
		if shot.HasTarget {
			log.Infof("frame %d: shot from %v at %v", shot.Frame, shot.Muzzle, shot.Target)
		} else {
			log.Infof("frame %d: shot from %v, no target", shot.Frame, shot.Muzzle)
		}
	}

	done := m.frames > 0 && t.Frame >= uint64(m.frames)
	if t.Frame%60 == 0 || done {
		if manager, ok := sightline.OcclusionManagerOf(cmd, m.handles.Player); ok {
			stats := manager.Stats()
			log.Infof("frame %d: %d occluders faded, %d captures, %d restores, %d skipped",
				t.Frame, manager.Len(), stats.Captures, stats.Restores, stats.Skipped)
		}
		if tr, ok := sightline.GetComponent[sightline.TransformComponent](cmd, m.handles.Player); ok {
			log.Debugf("frame %d: player at %v", t.Frame, tr.Position)
		}
	}
	if done {
		cmd.Exit()
	}
}
