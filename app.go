package sightline

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module bundles the resources and systems of one feature.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	modules   []Module
	built     bool
	exiting   bool
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	ecs       *Ecs

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingComponents
	pendingCompRemovals []pendingComponents
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingComponents struct {
	eid        EntityId
	components []any
}

func NewApp() *App {
	ecs := MakeEcs()
	app := &App{
		stages:    defaultStages(),
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
		ecs:       &ecs,
	}
	for _, stage := range app.stages {
		app.systems[stage.Name] = make([]systemFn, 0)
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) UseModules(modules ...Module) *App {
	app.modules = append(app.modules, modules...)
	return app
}

// build installs the modules registered so far. Modules added afterwards are
// installed by the next build.
func (app *App) build() {
	cmd := app.Commands()
	for len(app.modules) > 0 {
		module := app.modules[0]
		app.modules = app.modules[1:]
		module.Install(app, cmd)
	}
	app.built = true
	app.FlushCommands()
}

// Step runs every stage once: one frame.
func (app *App) Step() {
	if !app.built || len(app.modules) > 0 {
		app.build()
	}
	app.callSystems()
}

// Run steps frames until a system calls Commands.Exit.
func (app *App) Run() {
	app.build()
	app.Logger().Infof("app running with %d stages", len(app.stages))

	for !app.exiting {
		app.callSystems()
	}
}

func (app *App) callSystems() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		app.FlushCommands()
	}
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T, if installed.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)

		if arg, ok := app.resolveArgument(argType); ok {
			args[i] = arg
			continue
		}

		msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
			runtime.FuncForPC(systemValue.Pointer()).Name(),
			fmt.Sprint(systemType),
			fmt.Sprint(argType),
		)
		panic(msg)
	}
	systemValue.Call(args)
}

func (app *App) resolveArgument(argType reflect.Type) (reflect.Value, bool) {
	switch argType.Kind() {
	case reflect.Pointer:
		if argType.Elem() == typeOfCommands {
			return reflect.ValueOf(app.Commands()), true
		}
		if resource, ok := app.resources[argType.Elem()]; ok {
			return reflect.ValueOf(resource), true
		}
	case reflect.Interface:
		for _, resource := range app.resources {
			if reflect.TypeOf(resource).Implements(argType) {
				return reflect.ValueOf(resource), true
			}
		}
		if argType == reflect.TypeOf((*Logger)(nil)).Elem() {
			return reflect.ValueOf(NewNopLogger()), true
		}
	}
	return reflect.Value{}, false
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// Additions go first so that an entity spawned and despawned within the
	// same stage does not survive.
	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	for _, rm := range app.pendingCompRemovals {
		app.ecs.removeComponents(rm.eid, rm.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]

	for _, eid := range app.pendingRemovals {
		app.Logger().Debugf("flush: removing entity %v", eid)
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]
}
