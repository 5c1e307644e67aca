package sightline

import (
	"reflect"
)

// Queries visit every entity that has all of the query's component types.
// Types passed as optionals may be missing, in which case the callback gets
// nil for them. Without excludes archetypes carrying any of the given types.
// Returning false from the callback stops the iteration.
type Query1[A any] struct{ filter queryFilter }
type Query2[A, B any] struct{ filter queryFilter }
type Query3[A, B, C any] struct{ filter queryFilter }
type Query4[A, B, C, D any] struct{ filter queryFilter }

type queryFilter struct {
	ecs     *Ecs
	without []any
}

func MakeQuery1[A any](cmd *Commands) Query1[A] {
	return Query1[A]{queryFilter{ecs: cmd.app.ecs}}
}
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] {
	return Query2[A, B]{queryFilter{ecs: cmd.app.ecs}}
}
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] {
	return Query3[A, B, C]{queryFilter{ecs: cmd.app.ecs}}
}
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{queryFilter{ecs: cmd.app.ecs}}
}

func (q Query1[A]) Without(types ...any) Query1[A] {
	return Query1[A]{q.filter.exclude(types)}
}
func (q Query2[A, B]) Without(types ...any) Query2[A, B] {
	return Query2[A, B]{q.filter.exclude(types)}
}
func (q Query3[A, B, C]) Without(types ...any) Query3[A, B, C] {
	return Query3[A, B, C]{q.filter.exclude(types)}
}
func (q Query4[A, B, C, D]) Without(types ...any) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{q.filter.exclude(types)}
}

func (f queryFilter) exclude(types []any) queryFilter {
	without := make([]any, 0, len(f.without)+len(types))
	without = append(without, f.without...)
	return queryFilter{ecs: f.ecs, without: append(without, types...)}
}

// archetypes yields the archetypes not ruled out by Without.
func (f queryFilter) archetypes(yield func(*archetype) bool) {
	excluded := make(set[componentId], len(f.without))
	for _, w := range f.without {
		excluded[f.ecs.getComponentId(componentType(w))] = struct{}{}
	}

ArchLoop:
	for _, arch := range f.ecs.archetypes {
		if len(arch.entities) == 0 {
			continue
		}
		for _, id := range arch.key {
			if _, ok := excluded[id]; ok {
				continue ArchLoop
			}
		}
		if !yield(arch) {
			return
		}
	}
}

// column is one component slice of an archetype, or a marker that the
// component is optional and absent.
type column[T any] struct {
	data   []T
	absent bool
}

func (c column[T]) at(r row) *T {
	if c.absent {
		return nil
	}
	return &c.data[r]
}

func getColumn[T any](arch *archetype, id componentId, opt set[componentId]) (column[T], bool) {
	if data, ok := arch.componentData[id]; ok {
		return column[T]{data: data.([]T)}, true
	}
	if _, ok := opt[id]; ok {
		return column[T]{absent: true}, true
	}
	return column[T]{}, false
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	ecs := q.filter.ecs
	idA := componentIdOf[A](ecs)
	opt := identifyOptionals(ecs, optionals...)

	q.filter.archetypes(func(arch *archetype) bool {
		colA, ok := getColumn[A](arch, idA, opt)
		if !ok {
			return true
		}
		for eid, r := range arch.entities {
			if !m(eid, colA.at(r)) {
				return false
			}
		}
		return true
	})
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	ecs := q.filter.ecs
	idA, idB := componentIdOf[A](ecs), componentIdOf[B](ecs)
	opt := identifyOptionals(ecs, optionals...)

	q.filter.archetypes(func(arch *archetype) bool {
		colA, okA := getColumn[A](arch, idA, opt)
		colB, okB := getColumn[B](arch, idB, opt)
		if !okA || !okB {
			return true
		}
		for eid, r := range arch.entities {
			if !m(eid, colA.at(r), colB.at(r)) {
				return false
			}
		}
		return true
	})
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	ecs := q.filter.ecs
	idA, idB, idC := componentIdOf[A](ecs), componentIdOf[B](ecs), componentIdOf[C](ecs)
	opt := identifyOptionals(ecs, optionals...)

	q.filter.archetypes(func(arch *archetype) bool {
		colA, okA := getColumn[A](arch, idA, opt)
		colB, okB := getColumn[B](arch, idB, opt)
		colC, okC := getColumn[C](arch, idC, opt)
		if !okA || !okB || !okC {
			return true
		}
		for eid, r := range arch.entities {
			if !m(eid, colA.at(r), colB.at(r), colC.at(r)) {
				return false
			}
		}
		return true
	})
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	ecs := q.filter.ecs
	idA, idB, idC, idD := componentIdOf[A](ecs), componentIdOf[B](ecs), componentIdOf[C](ecs), componentIdOf[D](ecs)
	opt := identifyOptionals(ecs, optionals...)

	q.filter.archetypes(func(arch *archetype) bool {
		colA, okA := getColumn[A](arch, idA, opt)
		colB, okB := getColumn[B](arch, idB, opt)
		colC, okC := getColumn[C](arch, idC, opt)
		colD, okD := getColumn[D](arch, idD, opt)
		if !okA || !okB || !okC || !okD {
			return true
		}
		for eid, r := range arch.entities {
			if !m(eid, colA.at(r), colB.at(r), colC.at(r), colD.at(r)) {
				return false
			}
		}
		return true
	})
}

func componentIdOf[T any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeOf((*T)(nil)).Elem())
}

func identifyOptionals(ecs *Ecs, optionals ...any) set[componentId] {
	res := make(set[componentId], len(optionals))
	for _, o := range optionals {
		res[ecs.getComponentId(componentType(o))] = struct{}{}
	}
	return res
}

// GetComponent returns a pointer to entity's T component. The pointer stays
// valid until the entity's component set changes.
func GetComponent[T any](cmd *Commands, entityId EntityId) (*T, bool) {
	v, ok := cmd.app.ecs.getComponent(entityId, reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return nil, false
	}
	return v.Interface().(*T), true
}
