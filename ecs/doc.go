// Package ecs binds a feather2d world to a [Donburi] world.
//
// Each spawned rigid body becomes an entity carrying a [Body] and a [Transform]
// component. The physics world writes the interpolated transforms of moving bodies
// into the Transform components, and republishes its collision, trigger, sleep and
// wake events as [PhysicsEventType] events.
//
// Usage:
//
//	store := ecs.NewStore(world, physics)
//	entity, _ := store.Spawn(body)
//	ecs.PhysicsEventType.Subscribe(world, onPhysicsEvent)
//	store.Update(frameDelta)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
