package core

// Dispatcher commands. Actors and the arena send them, the worker handles
// them.
const (
	CmdNewSession = ":NEW:SESSION:"
	CmdNewActor   = ":NEW:ACTOR:"
	CmdShot       = ":SHOT:"
	CmdHit        = ":HIT:"
	CmdProjectile = ":PROJECTILE:"
	CmdReload     = ":RELOAD:"
	CmdSwitch     = ":SWITCH:"
	CmdGrenade    = ":GRENADE:"
	CmdExplosion  = ":EXPLOSION:"
	CmdPickup     = ":PICKUP:"
	CmdKill       = ":KILL:"
	CmdFX         = ":FX:"
	CmdEndSession = ":END:SESSION:"
)
