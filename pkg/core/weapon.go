// pkg/core/weapon.go
package core

import (
	"fmt"
	"strings"
)

// FiringType decides which trigger intent fires the weapon.
type FiringType string

const (
	FiringSemi FiringType = "semi"
	FiringAuto FiringType = "auto"
)

// OutputType decides how a round leaves the barrel.
type OutputType string

const (
	OutputRay        OutputType = "ray"
	OutputProjectile OutputType = "projectile"
)

// ReloadingType decides how rounds move from the ammo pool into the weapon.
type ReloadingType string

const (
	ReloadFull          ReloadingType = "full"
	ReloadPartial       ReloadingType = "partial"
	ReloadPartialRepeat ReloadingType = "partialRepeat"
)

// UnmarshalText accepts any casing ("Semi", "SEMI", "semi").
func (f *FiringType) UnmarshalText(b []byte) error {
	switch v := FiringType(strings.ToLower(string(b))); v {
	case FiringSemi, FiringAuto:
		*f = v
		return nil
	}
	return fmt.Errorf("unknown firing type %q", b)
}

// UnmarshalText accepts any casing ("Ray", "projectile").
func (o *OutputType) UnmarshalText(b []byte) error {
	switch v := OutputType(strings.ToLower(string(b))); v {
	case OutputRay, OutputProjectile:
		*o = v
		return nil
	}
	return fmt.Errorf("unknown output type %q", b)
}

// UnmarshalText accepts "full", "partial", "partialRepeat" in any casing.
func (r *ReloadingType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "full":
		*r = ReloadFull
	case "partial":
		*r = ReloadPartial
	case "partialrepeat", "partial_repeat", "partial-repeat":
		*r = ReloadPartialRepeat
	default:
		return fmt.Errorf("unknown reloading type %q", b)
	}
	return nil
}

// Ammo is an ammo type. Weapons sharing a Name draw from the same pool.
type Ammo struct {
	Name        string `json:"name" yaml:"name"`
	StartAmount int    `json:"startAmount" yaml:"startAmount"`
}

// RayMode configures hitscan output.
type RayMode struct {
	Range  float64 `json:"range" yaml:"range"`
	Damage float64 `json:"damage" yaml:"damage"`
	Impact string  `json:"impact,omitempty" yaml:"impact"`
	// Mask selects the collider layers a round can hit; zero means all.
	Mask uint32 `json:"mask,omitempty" yaml:"mask"`
}

// Explosion configures area damage.
type Explosion struct {
	Damage   float64 `json:"damage" yaml:"damage"`
	Radius   float64 `json:"radius" yaml:"radius"`
	Force    float64 `json:"force" yaml:"force"`
	Falloff  Curve   `json:"falloff,omitempty" yaml:"falloff"`
	Effect   string  `json:"effect,omitempty" yaml:"effect"`
	Lifetime float64 `json:"lifetime" yaml:"lifetime"`
}

// BodySpec configures a thrown or launched body: a grenade or a rocket.
type BodySpec struct {
	DetonationTime      float64   `json:"detonationTime" yaml:"detonationTime"`
	DetonateOnCollision bool      `json:"detonateOnCollision" yaml:"detonateOnCollision"`
	CollideAudio        string    `json:"collideAudio,omitempty" yaml:"collideAudio"`
	UseGravity          bool      `json:"useGravity" yaml:"useGravity"`
	Explosion           Explosion `json:"explosion" yaml:"explosion"`
}

// DefaultGrenadeBody mirrors the stock hand grenade.
var DefaultGrenadeBody = BodySpec{
	DetonationTime: 4,
	UseGravity:     true,
	Explosion: Explosion{
		Damage:   60,
		Radius:   5,
		Force:    200,
		Falloff:  LinearFalloff,
		Lifetime: 4,
	},
}

// ProjectileMode configures physical output.
type ProjectileMode struct {
	Prefab      string   `json:"prefab" yaml:"prefab"`
	LaunchForce float64  `json:"launchForce" yaml:"launchForce"`
	Body        BodySpec `json:"body" yaml:"body"`
}

// Cartridge configures the ejected shell.
type Cartridge struct {
	Prefab     string  `json:"prefab,omitempty" yaml:"prefab"`
	Trajectory Vec3    `json:"trajectory" yaml:"trajectory"`
	Force      float64 `json:"force" yaml:"force"`
}

// Sounds are the audio clip references a weapon plays.
type Sounds struct {
	Barrel    string `json:"barrel,omitempty" yaml:"barrel"`
	Reload    string `json:"reload,omitempty" yaml:"reload"`
	SwitchIn  string `json:"switchIn,omitempty" yaml:"switchIn"`
	SwitchOut string `json:"switchOut,omitempty" yaml:"switchOut"`
}

// AnimationVars are the animator parameter names a weapon drives.
type AnimationVars struct {
	Fire   string `json:"fire,omitempty" yaml:"fire"`
	Reload string `json:"reload,omitempty" yaml:"reload"`
	Switch string `json:"switch,omitempty" yaml:"switch"`
	Aim    string `json:"aim,omitempty" yaml:"aim"`
	Run    string `json:"run,omitempty" yaml:"run"`
	Walk   string `json:"walk,omitempty" yaml:"walk"`
	Jump   string `json:"jump,omitempty" yaml:"jump"`
}

// Anchors name the points of the weapon model that effects spawn from.
type Anchors struct {
	BarrelFlash string `json:"barrelFlash" yaml:"barrelFlash"`
	Projectile  string `json:"projectile" yaml:"projectile"`
	Cartridge   string `json:"cartridge" yaml:"cartridge"`
}

// Presentation groups everything the weapon needs from the rendering side.
type Presentation struct {
	Model       string        `json:"model,omitempty" yaml:"model"`
	BarrelFlash string        `json:"barrelFlash,omitempty" yaml:"barrelFlash"`
	Cartridge   Cartridge     `json:"cartridge" yaml:"cartridge"`
	Sounds      Sounds        `json:"sounds" yaml:"sounds"`
	Animations  AnimationVars `json:"animations" yaml:"animations"`
	Anchors     Anchors       `json:"anchors" yaml:"anchors"`
}

// WeaponDefinition is the immutable configuration of one weapon.
type WeaponDefinition struct {
	Name string `json:"name" yaml:"name"`
	Ammo Ammo   `json:"ammo" yaml:"ammo"`

	Capacity           int     `json:"capacity" yaml:"capacity"`
	AmmoLossPerRound   int     `json:"ammoLossPerRound" yaml:"ammoLossPerRound"`
	AmmoAddedPerReload int     `json:"ammoAddedPerReload" yaml:"ammoAddedPerReload"`
	FireRate           float64 `json:"fireRate" yaml:"fireRate"`
	RoundsPerBurst     int     `json:"roundsPerBurst" yaml:"roundsPerBurst"`
	OutputPerRound     int     `json:"outputPerRound" yaml:"outputPerRound"`

	FiringType    FiringType    `json:"firingType" yaml:"firingType"`
	OutputType    OutputType    `json:"outputType" yaml:"outputType"`
	ReloadingType ReloadingType `json:"reloadingType" yaml:"reloadingType"`

	ReloadingTime                 float64 `json:"reloadingTime" yaml:"reloadingTime"`
	PartialReloadInterruptionTime float64 `json:"partialReloadInterruptionTime" yaml:"partialReloadInterruptionTime"`
	SwitchingTime                 float64 `json:"switchingTime" yaml:"switchingTime"`
	AimingTime                    float64 `json:"aimingTime" yaml:"aimingTime"`
	RunningRecoveryTime           float64 `json:"runningRecoveryTime" yaml:"runningRecoveryTime"`

	Spread         float64 `json:"spread" yaml:"spread"`
	MovementSpread float64 `json:"movementSpread" yaml:"movementSpread"`
	AimingSpread   float64 `json:"aimingSpread" yaml:"aimingSpread"`

	Ray          RayMode        `json:"ray" yaml:"ray"`
	Projectile   ProjectileMode `json:"projectile" yaml:"projectile"`
	Presentation Presentation   `json:"presentation" yaml:"presentation"`

	EnableOnStart bool `json:"enableOnStart" yaml:"enableOnStart"`
	LoadedAtStart bool `json:"loadedAtStart" yaml:"loadedAtStart"`
}

// RoundInterval is the cooldown armed after each round.
func (w *WeaponDefinition) RoundInterval() float64 {
	if w.FireRate <= 0 {
		return 0
	}
	return 1 / w.FireRate
}

// Outputs returns the number of sub-shots per round, at least one.
func (w *WeaponDefinition) Outputs() int {
	if w.OutputPerRound < 1 {
		return 1
	}
	return w.OutputPerRound
}

// GrenadeDefinition configures an actor's grenade thrower.
type GrenadeDefinition struct {
	Prefab      string   `json:"prefab" yaml:"prefab"`
	ThrowAudio  string   `json:"throwAudio,omitempty" yaml:"throwAudio"`
	StartAmount int      `json:"startAmount" yaml:"startAmount"`
	ThrowForce  float64  `json:"throwForce" yaml:"throwForce"`
	Cooldown    float64  `json:"cooldown" yaml:"cooldown"`
	CanThrow    bool     `json:"canThrow" yaml:"canThrow"`
	Body        BodySpec `json:"body" yaml:"body"`
}

// DefaultGrenade mirrors the stock thrower settings.
var DefaultGrenade = GrenadeDefinition{
	Prefab:      "Grenade",
	StartAmount: 3,
	ThrowForce:  40,
	Cooldown:    1,
	Body:        DefaultGrenadeBody,
}
