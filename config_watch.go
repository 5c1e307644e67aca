package sightline

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a config file when it changes on disk. Parsed and
// validated configs are posted to Updates; the frame loop picks them up, so
// the watcher goroutine never touches ECS state.
type ConfigWatcher struct {
	path    string
	log     Logger
	watcher *fsnotify.Watcher
	updates chan Config
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewConfigWatcher(path string, log Logger) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if log == nil {
		log = NewNopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	// Editors often replace the file instead of writing it, which drops a
	// watch on the file itself; watching the directory survives that.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config %s: %w", abs, err)
	}

	cw := &ConfigWatcher{
		path:    abs,
		log:     log,
		watcher: watcher,
		updates: make(chan Config, 1),
		done:    make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) Updates() <-chan Config {
	return cw.updates
}

func (cw *ConfigWatcher) Close() error {
	close(cw.done)
	err := cw.watcher.Close()
	cw.wg.Wait()
	return err
}

func (cw *ConfigWatcher) loop() {
	defer cw.wg.Done()
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				cw.reload()
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warnf("config watcher: %v", err)
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := LoadConfig(cw.path)
	if err != nil {
		cw.log.Warnf("config reload ignored: %v", err)
		return
	}

	// Latest wins: drop a config the frame loop has not picked up yet.
	select {
	case <-cw.updates:
	default:
	}
	select {
	case cw.updates <- cfg:
		cw.log.Infof("config reloaded from %s", cw.path)
	case <-cw.done:
	}
}

// ConfigState is the config currently applied to the running app.
type ConfigState struct {
	Current Config
	Reloads int
}

// ConfigReloadModule applies configs posted by Watcher at the start of a
// frame. Without a watcher it only installs ConfigState.
type ConfigReloadModule struct {
	Initial Config
	Watcher *ConfigWatcher
}

func (m ConfigReloadModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&ConfigState{Current: m.Initial})
	if m.Watcher == nil {
		return
	}
	updates := m.Watcher.Updates()
	app.UseSystem(
		System(func(cmd *Commands, state *ConfigState) {
			select {
			case cfg := <-updates:
				if err := ApplyConfig(cmd, state, cfg); err != nil {
					cmd.Logger().Warnf("config reload rejected: %v", err)
				}
			default:
			}
		}).InStage(PreUpdate),
	)
}

// ApplyConfig pushes the live tunables of cfg to the running app: logging
// level, materials, occlusion managers, player controllers and follow
// cameras. On error nothing after the failing section is applied.
func ApplyConfig(cmd *Commands, state *ConfigState, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd.Logger().SetDebug(cfg.Logging.Level == "debug")

	if assets, ok := Resource[AssetServer](cmd.app); ok {
		for _, def := range cfg.Materials {
			assets.CreateMaterial(def.Name, def.Scalars)
		}
	}
	if err := ApplyOcclusionSettings(cmd, cfg.Occlusion); err != nil {
		return fmt.Errorf("apply config: %w", err)
	}

	MakeQuery1[PlayerControllerComponent](cmd).Map(func(eid EntityId, pc *PlayerControllerComponent) bool {
		pc.Movement = cfg.Movement
		pc.Aim = cfg.Aim
		return true
	})
	MakeQuery2[CameraComponent, FollowCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, follow *FollowCameraComponent) bool {
		follow.Distance = cfg.Camera.Distance
		follow.FollowSpeed = cfg.Camera.FollowSpeed
		cam.Fov = cfg.Camera.Fov
		return true
	})

	state.Current = cfg
	state.Reloads++
	return nil
}
