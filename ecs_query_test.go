package sightline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryComp1 struct{ a int }
type queryComp2 struct{ b float32 }
type queryComp3 struct{}

func newQueryTestApp() (*App, *Commands) {
	app := NewApp()
	return app, app.Commands()
}

func TestQuery_Map(t *testing.T) {
	app, cmd := newQueryTestApp()
	// Only entities carrying both comp1 and comp2 match, extras allowed.
	app.ecs.addEntity(queryComp1{a: 1})
	id2 := app.ecs.addEntity(queryComp1{a: 2}, queryComp2{b: 1.37})
	id3 := app.ecs.addEntity(queryComp1{a: 3}, queryComp2{b: 4.20}, queryComp3{})
	app.ecs.addEntity(queryComp1{a: 4}, queryComp3{})
	app.ecs.addEntity(queryComp2{b: 3.14})

	got := map[EntityId]int{}
	MakeQuery2[queryComp1, queryComp2](cmd).Map(func(eid EntityId, c1 *queryComp1, c2 *queryComp2) bool {
		got[eid] = c1.a
		return true
	})

	assert.Equal(t, map[EntityId]int{id2: 2, id3: 3}, got)
}

func TestQuery_MapWritesThrough(t *testing.T) {
	app, cmd := newQueryTestApp()
	eid := app.ecs.addEntity(queryComp1{a: 1})

	MakeQuery1[queryComp1](cmd).Map(func(_ EntityId, c *queryComp1) bool {
		c.a = 10
		return true
	})

	c, ok := GetComponent[queryComp1](cmd, eid)
	require.True(t, ok)
	assert.Equal(t, 10, c.a)
}

func TestQuery_Without(t *testing.T) {
	app, cmd := newQueryTestApp()
	plain := app.ecs.addEntity(queryComp1{a: 1})
	app.ecs.addEntity(queryComp1{a: 2}, queryComp3{})

	var got []EntityId
	MakeQuery1[queryComp1](cmd).Without(queryComp3{}).Map(func(eid EntityId, _ *queryComp1) bool {
		got = append(got, eid)
		return true
	})

	assert.Equal(t, []EntityId{plain}, got)
}

func TestQuery_Optionals(t *testing.T) {
	app, cmd := newQueryTestApp()
	with := app.ecs.addEntity(queryComp1{a: 1}, queryComp2{b: 2})
	without := app.ecs.addEntity(queryComp1{a: 2})

	seen := map[EntityId]bool{}
	MakeQuery2[queryComp1, queryComp2](cmd).Map(func(eid EntityId, _ *queryComp1, c2 *queryComp2) bool {
		seen[eid] = c2 != nil
		return true
	}, queryComp2{})

	assert.Equal(t, map[EntityId]bool{with: true, without: false}, seen)
}

func TestQuery_StopEarly(t *testing.T) {
	app, cmd := newQueryTestApp()
	for i := 0; i < 5; i++ {
		app.ecs.addEntity(queryComp1{a: i})
	}

	calls := 0
	MakeQuery1[queryComp1](cmd).Map(func(EntityId, *queryComp1) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestGetComponent_Missing(t *testing.T) {
	app, cmd := newQueryTestApp()
	eid := app.ecs.addEntity(queryComp1{})

	_, ok := GetComponent[queryComp2](cmd, eid)
	assert.False(t, ok)
	_, ok = GetComponent[queryComp1](cmd, eid+100)
	assert.False(t, ok)
}
