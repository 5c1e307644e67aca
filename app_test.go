package sightline

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

type counterComponent struct{ n int }

func TestApp_addResources(t *testing.T) {
	app := NewApp()

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})
	assert.Panics(t, func() { app.addResources(MockResource2{}) }, "resources must be pointers")

	app.addResources(&MockResource2{name: "Resource2"})
	r2, ok := Resource[MockResource2](app)
	require.True(t, ok)
	assert.Equal(t, "Resource2", r2.name)
}

func TestApp_SystemArguments(t *testing.T) {
	app := NewApp()
	app.addResources(&MockResource1{name: "r1"})

	var gotName string
	var gotLogger Logger
	app.UseSystem(System(func(cmd *Commands, r1 *MockResource1, log Logger) {
		require.NotNil(t, cmd)
		gotName = r1.name
		gotLogger = log
	}))
	app.Step()

	assert.Equal(t, "r1", gotName)
	assert.NotNil(t, gotLogger, "a missing logger resolves to a no-op logger")
}

func TestApp_UnresolvableArgumentPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(*MockResource2) {}))
	assert.Panics(t, func() { app.Step() })
}

func TestApp_StageOrder(t *testing.T) {
	app := NewApp()
	custom := Stage{Name: "Custom"}
	app.UseStage(custom, AfterStage(PostUpdate))

	var order []string
	record := func(name string) func() {
		return func() { order = append(order, name) }
	}
	app.UseSystem(System(record("finale")).InStage(Finale))
	app.UseSystem(System(record("custom")).InStage(custom))
	app.UseSystem(System(record("update")))
	app.UseSystem(System(record("prelude")).InStage(Prelude))
	app.Step()

	assert.Equal(t, []string{"prelude", "update", "custom", "finale"}, order)

	assert.Panics(t, func() { app.UseStage(custom, BeforeStage(Update)) }, "duplicate stage")
	assert.Panics(t, func() { app.UseStage(Stage{Name: "X"}, AfterStage(Stage{Name: "missing"})) })
	assert.Panics(t, func() { app.UseSystem(System(func() {}).InStage(Stage{Name: "missing"})) })
}

func TestApp_CommandsFlushPerStage(t *testing.T) {
	app := NewApp()

	var spawned EntityId
	seenInUpdate := false
	app.UseSystem(System(func(cmd *Commands) {
		if spawned == 0 {
			spawned = cmd.AddEntity(&counterComponent{n: 1})
			assert.False(t, cmd.HasEntity(spawned), "spawns are deferred to the flush")
		}
	}).InStage(PreUpdate))
	app.UseSystem(System(func(cmd *Commands) {
		seenInUpdate = cmd.HasEntity(spawned)
	}))
	app.Step()

	assert.True(t, seenInUpdate)
}

func TestApp_FlushOrder(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()

	eid := cmd.AddEntity(&counterComponent{n: 1})
	cmd.AddComponents(eid, &MockResource1{name: "comp"})
	cmd.RemoveComponents(eid, counterComponent{})
	app.FlushCommands()

	require.True(t, cmd.HasEntity(eid))
	_, ok := GetComponent[counterComponent](cmd, eid)
	assert.False(t, ok)
	comps := cmd.GetAllComponents(eid)
	assert.Equal(t, []any{MockResource1{name: "comp"}}, comps)

	// Spawned and despawned in the same batch: gone.
	other := cmd.AddEntity(&counterComponent{})
	cmd.RemoveEntity(other)
	app.FlushCommands()
	assert.False(t, cmd.HasEntity(other))
	assert.Nil(t, cmd.GetAllComponents(other))
}

func TestApp_RunUntilExit(t *testing.T) {
	app := NewApp()
	frames := 0
	app.UseSystem(System(func(cmd *Commands) {
		frames++
		if frames == 3 {
			cmd.Exit()
		}
	}))
	app.Run()

	assert.Equal(t, 3, frames)
}

type lateModule struct{ installed *bool }

func (m lateModule) Install(app *App, cmd *Commands) { *m.installed = true }

func TestApp_StepInstallsLateModules(t *testing.T) {
	app := NewApp()
	app.Step()

	installed := false
	app.UseModules(lateModule{installed: &installed})
	app.Step()
	assert.True(t, installed)
}
