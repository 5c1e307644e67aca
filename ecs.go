package sightline

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// Ecs stores components by archetype: every distinct set of component types
// gets its own table of typed slices, and an entity is a row in one table.
type Ecs struct {
	archetypes  map[archetypeId]*archetype
	entityIndex map[EntityId]archetypeId

	idGeneratorLock sync.Mutex
	entityIdCounter EntityId

	componentIdCounterLock sync.Mutex
	componentIdCounter     componentId
	componentTypeIdMap     map[reflect.Type]componentId
	componentIdTypeMap     map[componentId]reflect.Type
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:         make(map[archetypeId]*archetype),
		entityIndex:        make(map[EntityId]archetypeId),
		entityIdCounter:    EntityId(1), // 0 is reserved for "no entity"
		componentTypeIdMap: make(map[reflect.Type]componentId),
		componentIdTypeMap: make(map[componentId]reflect.Type),
	}
}

type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      map[EntityId]row
	componentData map[componentId]any // []T per component type
	recycled      []row
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	archId, arch := ecs.getOrMakeArchetype(ecs.getArchetypeKey(components...))

	r := ecs.archetypeReserveRow(arch)
	arch.entities[entityId] = r
	for _, component := range components {
		ecs.writeComponent(arch, r, component)
	}
	ecs.entityIndex[entityId] = archId

	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entityIndex[entityId]
	return ok
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	if !ecs.hasEntity(entityId) {
		return
	}
	ecs.recycleEntity(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	srcArch, srcRow, ok := ecs.locate(entityId)
	if !ok {
		return
	}

	dstKey := combineArchetypeKeys(srcArch.key, ecs.getArchetypeKey(components...))
	dstArchId, dstArch := ecs.getOrMakeArchetype(dstKey)
	if dstArch == srcArch {
		for _, component := range components {
			ecs.writeComponent(srcArch, srcRow, component)
		}
		return
	}

	dstRow := ecs.archetypeReserveRow(dstArch)
	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	for _, component := range components {
		ecs.writeComponent(dstArch, dstRow, component)
	}

	ecs.recycleEntity(entityId)
	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	srcArch, srcRow, ok := ecs.locate(entityId)
	if !ok {
		return
	}

	drop := make(set[componentId])
	for _, c := range components {
		drop[ecs.getComponentId(componentType(c))] = struct{}{}
	}

	var dstKey archetypeKey
	for _, id := range srcArch.key {
		if _, gone := drop[id]; !gone {
			dstKey = append(dstKey, id)
		}
	}
	if len(dstKey) == len(srcArch.key) {
		return
	}

	dstArchId, dstArch := ecs.getOrMakeArchetype(dstKey)
	dstRow := ecs.archetypeReserveRow(dstArch)
	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)

	ecs.recycleEntity(entityId)
	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId
}

func (ecs *Ecs) locate(entityId EntityId) (*archetype, row, bool) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil, 0, false
	}
	arch := ecs.archetypes[archId]
	return arch, arch.entities[entityId], true
}

// getComponent returns a pointer into the archetype storage, valid until the
// entity changes archetype.
func (ecs *Ecs) getComponent(entityId EntityId, t reflect.Type) (reflect.Value, bool) {
	arch, r, ok := ecs.locate(entityId)
	if !ok {
		return reflect.Value{}, false
	}
	id, known := ecs.lookupComponentId(t)
	if !known {
		return reflect.Value{}, false
	}
	data, ok := arch.componentData[id]
	if !ok {
		return reflect.Value{}, false
	}
	return reflectSliceGet(data, int(r)).Addr(), true
}

// moveComponents copies the components both archetypes have in common.
func (ecs *Ecs) moveComponents(srcArch *archetype, srcRow row, dstArch *archetype, dstRow row) {
	for _, id := range srcArch.key {
		dstData, ok := dstArch.componentData[id]
		if !ok {
			continue
		}
		reflectSliceSet(dstData, int(dstRow), reflectSliceGet(srcArch.componentData[id], int(srcRow)))
	}
}

func (ecs *Ecs) writeComponent(dstArch *archetype, dstRow row, component any) {
	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	id := ecs.getComponentId(componentType(component))
	reflectSliceSet(dstArch.componentData[id], int(dstRow), value)
}

func (ecs *Ecs) recycleEntity(entityId EntityId) {
	arch, r, ok := ecs.locate(entityId)
	if !ok {
		return
	}

	// Zero the row so recycled slots do not keep references alive.
	for id, data := range arch.componentData {
		reflectSliceSet(data, int(r), reflect.Zero(ecs.componentIdTypeMap[id]))
	}
	arch.recycled = append(arch.recycled, r)

	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

func (ecs *Ecs) getOrMakeArchetype(key archetypeKey) (archetypeId, *archetype) {
	id := getArchetypeId(key)
	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		entities:      make(map[EntityId]row),
		componentData: make(map[componentId]any, len(key)),
	}
	for _, cid := range key {
		arch.componentData[cid] = reflectSliceMake(ecs.componentIdTypeMap[cid])
	}

	ecs.archetypes[id] = arch
	return id, arch
}

func (ecs *Ecs) archetypeReserveRow(arch *archetype) row {
	if n := len(arch.recycled); n > 0 {
		r := arch.recycled[n-1]
		arch.recycled = arch.recycled[:n-1]
		return r
	}

	r := row(len(arch.entities))
	for _, cid := range arch.key {
		arch.componentData[cid] = reflectSliceAppend(
			arch.componentData[cid],
			reflect.Zero(ecs.componentIdTypeMap[cid]),
		)
	}
	return r
}

// getArchetypeKey returns the canonical key for a component list: the sorted,
// deduplicated component ids. The archetype id is a hash of it.
func (ecs *Ecs) getArchetypeKey(components ...any) archetypeKey {
	res := make(archetypeKey, 0, len(components))
	for _, component := range components {
		res = append(res, ecs.getComponentId(componentType(component)))
	}
	return dedupAndSortArchetypeKey(res)
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t == nil {
		panic("component must not be nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected component to be a struct or a pointer to a struct, got %s", t.Kind()))
	}
	return t
}

func combineArchetypeKeys(a archetypeKey, b archetypeKey) archetypeKey {
	combined := make(archetypeKey, 0, len(a)+len(b))
	combined = append(combined, a...)
	return dedupAndSortArchetypeKey(append(combined, b...))
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	b := make([]byte, 4)
	for _, cid := range key {
		binary.LittleEndian.PutUint32(b, uint32(cid))
		hash.Write(b)
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter++
	return id
}

func (ecs *Ecs) lookupComponentId(t reflect.Type) (componentId, bool) {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	id, ok := ecs.componentTypeIdMap[t]
	return id, ok
}

func (ecs *Ecs) getComponentId(t reflect.Type) componentId {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if id, ok := ecs.componentTypeIdMap[t]; ok {
		return id
	}

	id := ecs.componentIdCounter
	ecs.componentIdCounter++
	ecs.componentTypeIdMap[t] = id
	ecs.componentIdTypeMap[id] = t
	return id
}

func (ecs *Ecs) getComponentType(id componentId) reflect.Type {
	if t, ok := ecs.componentIdTypeMap[id]; ok {
		return t
	}
	panic("ComponentID not registered")
}
