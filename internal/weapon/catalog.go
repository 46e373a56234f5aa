// Package weapon loads weapon definitions and holds per-actor weapon slots.
package weapon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OCAP2/gunplay/pkg/core"
)

// ErrNotFound is returned by Find for unknown weapon names.
var ErrNotFound = errors.New("weapon not found")

// Catalog is an ordered list of weapon definitions. Slot order in an
// actor's arsenal follows catalog order.
type Catalog struct {
	Weapons []core.WeaponDefinition `yaml:"weapons" json:"weapons"`
	Grenade *core.GrenadeDefinition `yaml:"grenade,omitempty" json:"grenade,omitempty"`
}

// ParseCatalog decodes a YAML catalog, applies defaults and validates it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalog reads and parses one catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadCatalogDir merges every *.yaml and *.yml file in dir, in name order.
// The first grenade definition found wins.
func LoadCatalogDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	merged := &Catalog{}
	for _, f := range files {
		c, err := LoadCatalog(f)
		if err != nil {
			return nil, err
		}
		merged.Weapons = append(merged.Weapons, c.Weapons...)
		if merged.Grenade == nil {
			merged.Grenade = c.Grenade
		}
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (c *Catalog) applyDefaults() {
	for i := range c.Weapons {
		w := &c.Weapons[i]
		if w.OutputPerRound == 0 {
			w.OutputPerRound = 1
		}
		if w.RoundsPerBurst == 0 {
			w.RoundsPerBurst = 1
		}
		if w.AmmoLossPerRound == 0 {
			w.AmmoLossPerRound = 1
		}
		if w.FiringType == "" {
			w.FiringType = core.FiringSemi
		}
		if w.OutputType == "" {
			w.OutputType = core.OutputRay
		}
		if w.ReloadingType == "" {
			w.ReloadingType = core.ReloadFull
		}
		if w.Ammo.Name == "" {
			w.Ammo.Name = w.Name
		}
		if w.OutputType == core.OutputProjectile && w.Projectile.Body.DetonationTime == 0 {
			w.Projectile.Body.DetonationTime = core.DefaultGrenadeBody.DetonationTime
		}
	}
	if c.Grenade != nil {
		g := c.Grenade
		d := core.DefaultGrenade
		if g.StartAmount == 0 {
			g.StartAmount = d.StartAmount
		}
		if g.ThrowForce == 0 {
			g.ThrowForce = d.ThrowForce
		}
		if g.Cooldown == 0 {
			g.Cooldown = d.Cooldown
		}
		if g.Prefab == "" {
			g.Prefab = d.Prefab
		}
		if g.Body.DetonationTime == 0 && g.Body.Explosion.Radius == 0 {
			g.Body = d.Body
		}
	}
}

// Validate checks every definition and returns all problems joined.
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.Weapons) == 0 {
		errs = append(errs, errors.New("catalog defines no weapons"))
	}
	seen := make(map[string]bool, len(c.Weapons))
	for i := range c.Weapons {
		w := &c.Weapons[i]
		if w.Name == "" {
			errs = append(errs, fmt.Errorf("weapon #%d: name is required", i))
		} else if seen[w.Name] {
			errs = append(errs, fmt.Errorf("weapon %q: duplicate name", w.Name))
		}
		seen[w.Name] = true
		errs = append(errs, validateWeapon(w)...)
	}
	if g := c.Grenade; g != nil {
		if g.ThrowForce < 0 {
			errs = append(errs, errors.New("grenade: throwForce must not be negative"))
		}
		if g.Body.Explosion.Radius < 0 {
			errs = append(errs, errors.New("grenade: explosion radius must not be negative"))
		}
	}
	return errors.Join(errs...)
}

func validateWeapon(w *core.WeaponDefinition) []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("weapon %q: "+format, append([]any{w.Name}, args...)...))
	}

	if w.Capacity <= 0 {
		bad("capacity must be positive, got %d", w.Capacity)
	}
	if w.FireRate <= 0 {
		bad("fireRate must be positive, got %g", w.FireRate)
	}
	if w.AmmoLossPerRound < 1 {
		bad("ammoLossPerRound must be at least 1, got %d", w.AmmoLossPerRound)
	}
	if w.RoundsPerBurst < 1 {
		bad("roundsPerBurst must be at least 1, got %d", w.RoundsPerBurst)
	}
	if w.OutputPerRound < 1 {
		bad("outputPerRound must be at least 1, got %d", w.OutputPerRound)
	}
	switch w.FiringType {
	case core.FiringSemi, core.FiringAuto:
	default:
		bad("unknown firingType %q", w.FiringType)
	}
	switch w.OutputType {
	case core.OutputRay:
		if w.Ray.Range <= 0 {
			bad("ray range must be positive, got %g", w.Ray.Range)
		}
	case core.OutputProjectile:
		if w.Projectile.Prefab == "" {
			bad("projectile prefab is required")
		}
	default:
		bad("unknown outputType %q", w.OutputType)
	}
	switch w.ReloadingType {
	case core.ReloadFull:
	case core.ReloadPartial, core.ReloadPartialRepeat:
		if w.AmmoAddedPerReload < 1 {
			bad("ammoAddedPerReload must be at least 1 for %s reloads", w.ReloadingType)
		}
	default:
		bad("unknown reloadingType %q", w.ReloadingType)
	}
	for name, v := range map[string]float64{
		"reloadingTime":                 w.ReloadingTime,
		"partialReloadInterruptionTime": w.PartialReloadInterruptionTime,
		"switchingTime":                 w.SwitchingTime,
		"aimingTime":                    w.AimingTime,
		"runningRecoveryTime":           w.RunningRecoveryTime,
		"spread":                        w.Spread,
		"movementSpread":                w.MovementSpread,
		"aimingSpread":                  w.AimingSpread,
	} {
		if v < 0 {
			bad("%s must not be negative, got %g", name, v)
		}
	}
	if w.Ammo.StartAmount < 0 {
		bad("ammo startAmount must not be negative")
	}
	return errs
}

// Find returns the definition named name and its catalog index.
func (c *Catalog) Find(name string) (*core.WeaponDefinition, int, error) {
	for i := range c.Weapons {
		if c.Weapons[i].Name == name {
			return &c.Weapons[i], i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Names returns the weapon names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Weapons))
	for i := range c.Weapons {
		out[i] = c.Weapons[i].Name
	}
	return out
}

// Subset returns a catalog holding only the named weapons, in catalog order.
// An empty names list returns c itself.
func (c *Catalog) Subset(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return c, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, _, err := c.Find(n); err != nil {
			return nil, err
		}
		want[n] = true
	}
	out := &Catalog{Grenade: c.Grenade}
	for _, w := range c.Weapons {
		if want[w.Name] {
			out.Weapons = append(out.Weapons, w)
		}
	}
	return out, nil
}
