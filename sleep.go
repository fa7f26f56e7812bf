package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
)

// wakeContacts wakes the sleeping bodies touched or pulled by an awake body moving faster
// than the speed threshold. It runs between the contact generation and the solver, so a
// woken body has its inverse mass back before the equations are prepared.
func (w *World) wakeContacts() {
	if !w.Options.AllowSleep {
		return
	}
	woke := false
	for _, c := range w.Factory.ContactEquations {
		woke = w.wakePartner(c.BodyA, c.BodyB) || woke
	}
	for _, c := range w.constraints {
		woke = w.wakePartner(c.Bodies()) || woke
	}
	// Friction bounds were estimated while the woken bodies had no mass
	if woke {
		w.Factory.UpdateSlipForces()
	}
}

func (w *World) wakePartner(a, b *actor.RigidBody) bool {
	if a.IsSleeping() == b.IsSleeping() {
		return false
	}
	sleeper, other := a, b
	if b.IsSleeping() {
		sleeper, other = b, a
	}
	if other.BodyType == actor.BodyTypeStatic {
		return false
	}

	limit := w.Options.SpeedThreshold
	if other.SpeedSquared() < limit*limit {
		return false
	}
	sleeper.WakeUp()
	return true
}

// updateSleep runs the sleep state machine of every dynamic body.
// AWAKE bodies slower than the threshold become SLEEPY and accumulate idle time, SLEEPY
// bodies fall ASLEEP after IdleTimeThreshold seconds or return AWAKE when they speed up.
func (w *World) updateSleep(h float64) {
	if !w.Options.AllowSleep {
		return
	}
	limit := w.Options.SpeedThreshold * w.Options.SpeedThreshold

	for _, body := range w.Bodies {
		if body.BodyType != actor.BodyTypeDynamic || !body.AllowSleep || body.IsSleeping() {
			continue
		}

		if body.SpeedSquared() >= limit {
			body.SleepState = actor.Awake
			body.IdleTime = 0
			continue
		}

		if body.SleepState == actor.Awake {
			body.SleepState = actor.Sleepy
			body.IdleTime = 0
		}
		body.IdleTime += h
		if body.IdleTime >= w.Options.IdleTimeThreshold {
			body.Sleep()
		}
	}
}
