// Package scenario loads YAML scenario files and plays them at a fixed
// tick rate against an arena.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/OCAP2/gunplay/internal/actor"
	"github.com/OCAP2/gunplay/internal/geo"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Scenario describes one run: who fights, where, with what, for how long.
type Scenario struct {
	Name     string  `yaml:"name"`
	Catalog  string  `yaml:"catalog"`
	TickRate float64 `yaml:"tickRate"`
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`
	Gravity  float64 `yaml:"gravity"`
	// StopWhenDecided ends the run early once at most one team has
	// actors alive.
	StopWhenDecided bool `yaml:"stopWhenDecided"`

	Actors  []ActorSpec  `yaml:"actors"`
	Props   []PropSpec   `yaml:"props"`
	Walls   []WallSpec   `yaml:"walls"`
	Pickups []PickupSpec `yaml:"pickups"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// ActorSpec places one player or enemy.
type ActorSpec struct {
	ID       core.EntityID  `yaml:"id"`
	Kind     core.ActorKind `yaml:"kind"`
	Name     string         `yaml:"name"`
	Team     string         `yaml:"team"`
	Position core.Vec3      `yaml:"position"`
	Facing   core.Vec3      `yaml:"facing"`
	// LookAt turns the actor towards another one at spawn.
	LookAt core.EntityID `yaml:"lookAt"`
	Health float64       `yaml:"health"`
	// Weapons limits the arsenal to these catalog entries.
	Weapons  []string `yaml:"weapons"`
	Grenades bool     `yaml:"grenades"`
	// Anchors overrides or adds rig anchors, as local offsets.
	Anchors map[string]core.Vec3 `yaml:"anchors"`

	// Player input
	Script []actor.Step `yaml:"script"`
	Loop   bool         `yaml:"loop"`

	// Enemy behavior
	Target      core.EntityID     `yaml:"target"`
	AttackRange float64           `yaml:"attackRange"`
	Enemy       actor.EnemyConfig `yaml:"enemy"`
}

// PropSpec is a non-actor collider: a target dummy, a crate.
type PropSpec struct {
	ID         core.EntityID `yaml:"id"`
	Position   core.Vec3     `yaml:"position"`
	Radius     float64       `yaml:"radius"`
	Height     float64       `yaml:"height"`
	Health     float64       `yaml:"health"`
	Damageable bool          `yaml:"damageable"`
	Rigid      bool          `yaml:"rigid"`
	Trigger    bool          `yaml:"trigger"`
}

// WallSpec is static geometry given as a WKT footprint on the ground plane.
type WallSpec struct {
	Name   string  `yaml:"name"`
	WKT    string  `yaml:"wkt"`
	Base   float64 `yaml:"base"`
	Height float64 `yaml:"height"`
}

// PickupSpec hands a collectable to an actor at a given tick.
type PickupSpec struct {
	Tick         uint          `yaml:"tick"`
	Actor        core.EntityID `yaml:"actor"`
	actor.Pickup `yaml:",inline"`
}

// DefaultAttackRange is how close an enemy's target must be.
const DefaultAttackRange = 50.0

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// CatalogPath resolves the catalog relative to the scenario file.
func (s *Scenario) CatalogPath() string {
	if s.Catalog == "" || filepath.IsAbs(s.Catalog) || s.Path == "" {
		return s.Catalog
	}
	return filepath.Join(filepath.Dir(s.Path), s.Catalog)
}

func (s *Scenario) applyDefaults() {
	for i := range s.Actors {
		a := &s.Actors[i]
		if a.Kind == "" {
			a.Kind = core.ActorPlayer
		}
		if a.Name == "" {
			a.Name = string(a.ID)
		}
		if a.Kind == core.ActorEnemy && a.AttackRange <= 0 {
			a.AttackRange = DefaultAttackRange
		}
	}
}

// Validate reports every problem at once.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Duration <= 0 {
		errs = append(errs, errors.New("duration must be positive"))
	}
	if s.TickRate < 0 {
		errs = append(errs, errors.New("tickRate must not be negative"))
	}

	ids := make(map[core.EntityID]bool)
	claim := func(id core.EntityID, what string) {
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("%s without id", what))
		case ids[id]:
			errs = append(errs, fmt.Errorf("duplicate id %q", id))
		}
		ids[id] = true
	}
	actors := make(map[core.EntityID]bool)
	for _, a := range s.Actors {
		claim(a.ID, "actor")
		actors[a.ID] = true
		if a.Kind != core.ActorPlayer && a.Kind != core.ActorEnemy {
			errs = append(errs, fmt.Errorf("actor %q: unknown kind %q", a.ID, a.Kind))
		}
	}
	if len(s.Actors) == 0 {
		errs = append(errs, errors.New("no actors"))
	}
	for _, p := range s.Props {
		claim(p.ID, "prop")
	}

	for _, a := range s.Actors {
		if a.LookAt != "" && !ids[a.LookAt] {
			errs = append(errs, fmt.Errorf("actor %q: lookAt %q does not exist", a.ID, a.LookAt))
		}
		if a.Kind == core.ActorEnemy && a.Target != "" && !ids[a.Target] {
			errs = append(errs, fmt.Errorf("actor %q: target %q does not exist", a.ID, a.Target))
		}
		if a.Kind == core.ActorPlayer && a.Target != "" {
			errs = append(errs, fmt.Errorf("actor %q: players take a script, not a target", a.ID))
		}
	}
	for i, w := range s.Walls {
		if _, err := geo.NewWall(w.Name, w.WKT, w.Base, w.Height); err != nil {
			errs = append(errs, fmt.Errorf("wall %d: %w", i, err))
		}
	}
	for i, p := range s.Pickups {
		if p.Tick == 0 {
			errs = append(errs, fmt.Errorf("pickup %d: ticks start at 1", i))
		}
		if !actors[p.Actor] {
			errs = append(errs, fmt.Errorf("pickup %d: actor %q does not exist", i, p.Actor))
		}
		switch p.Kind {
		case core.PickupWeapon, core.PickupAmmo, core.PickupGrenade:
		default:
			errs = append(errs, fmt.Errorf("pickup %d: unknown kind %q", i, p.Kind))
		}
	}
	return errors.Join(errs...)
}
