package sightline

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	assert.Empty(t, ecs.archetypes)
	assert.Empty(t, ecs.entityIndex)
	assert.Equal(t, EntityId(1), ecs.entityIdCounter, "0 is reserved for no entity")
	assert.Equal(t, componentId(0), ecs.componentIdCounter)
}

func TestEcs_AddEntity(t *testing.T) {
	type TestComponent struct{ x string }

	ecs := MakeEcs()
	bare := ecs.addEntity()
	withComp := ecs.addEntity(TestComponent{x: "test"})

	require.True(t, ecs.hasEntity(bare))
	require.True(t, ecs.hasEntity(withComp))
	assert.NotEqual(t, ecs.entityIndex[bare], ecs.entityIndex[withComp],
		"entities with different components must not share an archetype")

	v, ok := ecs.getComponent(withComp, reflect.TypeOf(TestComponent{}))
	require.True(t, ok)
	assert.Equal(t, "test", v.Interface().(*TestComponent).x)
}

func TestEcs_AddComponents(t *testing.T) {
	type TestComponent0 struct{ a int }
	type TestComponent1 struct{ x string }
	type TestComponent2 struct{ y string }
	type TestComponent3 struct{ z string }

	ecs := MakeEcs()
	other := ecs.addEntity(TestComponent0{a: 7})
	eid := ecs.addEntity(TestComponent0{a: 1337})

	ecs.addComponents(eid, TestComponent1{x: "test"}, TestComponent2{y: "hello"})
	ecs.addComponents(eid, &TestComponent3{z: "test-2"})

	arch, _, ok := ecs.locate(eid)
	require.True(t, ok)
	assert.Len(t, arch.componentData, 4)

	v, ok := ecs.getComponent(eid, reflect.TypeOf(TestComponent0{}))
	require.True(t, ok)
	assert.Equal(t, 1337, v.Interface().(*TestComponent0).a, "existing components move with the entity")

	v, ok = ecs.getComponent(other, reflect.TypeOf(TestComponent0{}))
	require.True(t, ok)
	assert.Equal(t, 7, v.Interface().(*TestComponent0).a)
}

func TestEcs_AddComponentsOverwritesExisting(t *testing.T) {
	type Health struct{ hp int }

	ecs := MakeEcs()
	eid := ecs.addEntity(Health{hp: 10})
	archBefore := ecs.entityIndex[eid]

	ecs.addComponents(eid, Health{hp: 3})

	assert.Equal(t, archBefore, ecs.entityIndex[eid])
	v, _ := ecs.getComponent(eid, reflect.TypeOf(Health{}))
	assert.Equal(t, 3, v.Interface().(*Health).hp)
}

func TestEcs_RemoveComponents(t *testing.T) {
	type A struct{ v int }
	type B struct{ v int }

	ecs := MakeEcs()
	eid := ecs.addEntity(A{v: 1}, B{v: 2})

	ecs.removeComponents(eid, B{})

	_, ok := ecs.getComponent(eid, reflect.TypeOf(B{}))
	assert.False(t, ok)
	v, ok := ecs.getComponent(eid, reflect.TypeOf(A{}))
	require.True(t, ok)
	assert.Equal(t, 1, v.Interface().(*A).v)

	ecs.removeComponents(eid, B{})
	assert.True(t, ecs.hasEntity(eid), "removing an absent component is a no-op")
}

func TestEcs_AddInvalidComponentShouldPanic(t *testing.T) {
	ecs := MakeEcs()
	assert.Panics(t, func() { ecs.addEntity(123) })
	assert.Panics(t, func() { ecs.addEntity(nil) })
}

func TestEcs_ComponentRegistration(t *testing.T) {
	type Position struct{ x, y float64 }

	ecs := MakeEcs()
	id1 := ecs.getComponentId(reflect.TypeOf(Position{}))
	id2 := ecs.getComponentId(reflect.TypeOf(Position{}))

	assert.Equal(t, id1, id2)
	assert.Equal(t, reflect.TypeOf(Position{}), ecs.getComponentType(id1))
	assert.Panics(t, func() { ecs.getComponentType(id1 + 100) })
}

func TestEcs_ArchetypeKeyExtension(t *testing.T) {
	key := dedupAndSortArchetypeKey([]componentId{3, 1, 2, 1, 3})
	assert.Equal(t, archetypeKey{1, 2, 3}, key)

	key = combineArchetypeKeys([]componentId{1, 2, 3}, []componentId{4, 3, 2, 1})
	assert.Equal(t, archetypeKey{1, 2, 3, 4}, key)

	assert.Equal(t, getArchetypeId(archetypeKey{1, 2}), getArchetypeId(dedupAndSortArchetypeKey([]componentId{2, 1})))
}

func TestEcs_RemoveEntityRecyclesRow(t *testing.T) {
	type Position struct{ X, Y float64 }

	ecs := MakeEcs()
	first := ecs.addEntity(Position{1, 2})
	second := ecs.addEntity(Position{3, 4})
	arch, firstRow, _ := ecs.locate(first)

	ecs.removeEntity(first)
	assert.False(t, ecs.hasEntity(first))
	assert.Equal(t, []row{firstRow}, arch.recycled)

	third := ecs.addEntity(Position{5, 6})
	_, thirdRow, _ := ecs.locate(third)
	assert.Equal(t, firstRow, thirdRow)
	assert.Empty(t, arch.recycled)

	v, _ := ecs.getComponent(second, reflect.TypeOf(Position{}))
	assert.Equal(t, Position{3, 4}, *v.Interface().(*Position))
	v, _ = ecs.getComponent(third, reflect.TypeOf(Position{}))
	assert.Equal(t, Position{5, 6}, *v.Interface().(*Position))

	ecs.removeEntity(first)
	assert.True(t, ecs.hasEntity(third), "removing twice is a no-op")
}
