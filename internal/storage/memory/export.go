package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OCAP2/gunplay/pkg/core"
)

// FormatVersion is written into every export.
const FormatVersion = "1"

// SessionExport is the root JSON structure
type SessionExport struct {
	Version   string         `json:"version"`
	Name      string         `json:"name"`
	Scenario  string         `json:"scenario"`
	Catalog   string         `json:"catalog"`
	StartTime time.Time      `json:"startTime"`
	TickRate  float64        `json:"tickRate"`
	EndTick   uint           `json:"endTick"`
	Summary   SummaryJSON    `json:"summary"`
	Actors    []ActorJSON    `json:"actors"`
	Events    [][]any        `json:"events"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// SummaryJSON mirrors core.SessionSummary
type SummaryJSON struct {
	Ticks      uint     `json:"ticks"`
	Shots      int      `json:"shots"`
	Hits       int      `json:"hits"`
	Reloads    int      `json:"reloads"`
	Switches   int      `json:"switches"`
	Grenades   int      `json:"grenades"`
	Explosions int      `json:"explosions"`
	Kills      int      `json:"kills"`
	Survivors  []string `json:"survivors"`
}

// ActorJSON represents an actor and its own timeline
type ActorJSON struct {
	ID       uint      `json:"id"`
	EntityID string    `json:"entityId"`
	Kind     string    `json:"kind"`
	Name     string    `json:"name"`
	Team     string    `json:"team,omitempty"`
	Health   float64   `json:"health"`
	Spawn    []float64 `json:"spawn"`
	Weapons  []string  `json:"weapons"`
	Shots    [][]any   `json:"shots"`
	Reloads  [][]any   `json:"reloads"`
	Switches [][]any   `json:"switches"`
	Grenades [][]any   `json:"grenades"`
	Pickups  [][]any   `json:"pickups"`
}

func vec(v core.Vec3) []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// exportJSON writes the session data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(b.session.Name)
	timestamp := b.session.StartTime.Format("20060102_150405")

	filename := fmt.Sprintf("%s_%s.json", name, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeFile(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	s := b.session
	export := SessionExport{
		Version:   FormatVersion,
		Name:      s.Name,
		Scenario:  s.Scenario,
		Catalog:   s.Catalog,
		StartTime: s.StartTime,
		TickRate:  s.TickRate,
		Settings:  s.Settings,
		Summary: SummaryJSON{
			Ticks:      b.summary.Ticks,
			Shots:      b.summary.Shots,
			Hits:       b.summary.Hits,
			Reloads:    b.summary.Reloads,
			Switches:   b.summary.Switches,
			Grenades:   b.summary.Grenades,
			Explosions: b.summary.Explosions,
			Kills:      b.summary.Kills,
			Survivors:  make([]string, 0, len(b.summary.Survivors)),
		},
		Actors: make([]ActorJSON, 0, len(b.order)),
		Events: make([][]any, 0),
	}
	for _, id := range b.summary.Survivors {
		export.Summary.Survivors = append(export.Summary.Survivors, string(id))
	}

	endTick := b.summary.Ticks
	seen := func(tick uint) {
		if tick > endTick {
			endTick = tick
		}
	}

	for _, id := range b.order {
		record := b.actors[id]
		a := record.Actor
		weapons := a.Weapons
		if weapons == nil {
			weapons = []string{}
		}
		entity := ActorJSON{
			ID:       a.ID,
			EntityID: string(a.EntityID),
			Kind:     string(a.Kind),
			Name:     a.Name,
			Team:     a.Team,
			Health:   a.Health,
			Spawn:    vec(a.Spawn),
			Weapons:  weapons,
			Shots:    make([][]any, 0, len(record.Shots)),
			Reloads:  make([][]any, 0, len(record.Reloads)),
			Switches: make([][]any, 0, len(record.Switches)),
			Grenades: make([][]any, 0, len(record.Grenades)),
			Pickups:  make([][]any, 0, len(record.Pickups)),
		}

		// Format: [tick, weapon, round, origin, direction]
		for _, e := range record.Shots {
			entity.Shots = append(entity.Shots, []any{e.Tick, e.Weapon, e.Round, vec(e.Origin), vec(e.Direction)})
			seen(e.Tick)
		}
		// Format: [tick, weapon, mode, phase, transferred, capacity, ledger]
		for _, e := range record.Reloads {
			entity.Reloads = append(entity.Reloads, []any{e.Tick, e.Weapon, string(e.Mode), string(e.Phase), e.Transferred, e.Capacity, e.Ledger})
			seen(e.Tick)
		}
		// Format: [tick, from, to, phase, forced]
		for _, e := range record.Switches {
			entity.Switches = append(entity.Switches, []any{e.Tick, e.From, e.To, string(e.Phase), boolToInt(e.Forced)})
			seen(e.Tick)
		}
		// Format: [tick, origin, velocity, remaining]
		for _, e := range record.Grenades {
			entity.Grenades = append(entity.Grenades, []any{e.Tick, vec(e.Origin), vec(e.Velocity), e.Remaining})
			seen(e.Tick)
		}
		// Format: [tick, kind, item, amount, accepted]
		for _, e := range record.Pickups {
			entity.Pickups = append(entity.Pickups, []any{e.Tick, string(e.Kind), e.Item, e.Amount, boolToInt(e.Accepted)})
			seen(e.Tick)
		}

		export.Actors = append(export.Actors, entity)
	}

	// Format: [tick, "projectile", actorId, weapon, prefab, origin, velocity]
	for _, e := range b.projectileEvents {
		export.Events = append(export.Events, []any{e.Tick, "projectile", string(e.ActorID), e.Weapon, e.Prefab, vec(e.Origin), vec(e.Velocity)})
		seen(e.Tick)
	}

	// Format: [tick, "hit", shooterId, targetId, weapon, distance, damage, area]
	for _, e := range b.hitEvents {
		export.Events = append(export.Events, []any{e.Tick, "hit", string(e.ShooterID), string(e.TargetID), e.Weapon, e.Distance, e.Damage, boolToInt(e.Area)})
		seen(e.Tick)
	}

	// Format: [tick, "explosion", sourceId, weapon, center, radius, [[targetId, amount, distance], ...]]
	for _, e := range b.explosionEvents {
		damages := make([][]any, 0, len(e.Damages))
		for _, d := range e.Damages {
			damages = append(damages, []any{string(d.TargetID), d.Amount, d.Distance})
		}
		export.Events = append(export.Events, []any{e.Tick, "explosion", string(e.SourceID), e.Weapon, vec(e.Center), e.Radius, damages})
		seen(e.Tick)
	}

	// Format: [tick, "killed", victimId, [killerId, weapon], area]
	for _, e := range b.killEvents {
		export.Events = append(export.Events, []any{e.Tick, "killed", string(e.VictimID), []any{string(e.KillerID), e.Weapon}, boolToInt(e.Area)})
		seen(e.Tick)
	}

	sort.SliceStable(export.Events, func(i, j int) bool {
		return export.Events[i][0].(uint) < export.Events[j][0].(uint)
	})
	export.EndTick = endTick

	return export
}

// WriteJSON encodes an export to w.
func WriteJSON(w io.Writer, data SessionExport) error {
	return json.NewEncoder(w).Encode(data)
}

// ReadExport reads an export written by the backend, gzipped or not.
func ReadExport(path string) (SessionExport, error) {
	var export SessionExport
	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return export, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}

func writeFile(path string, data SessionExport, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !compress {
		return WriteJSON(f, data)
	}

	gzWriter := gzip.NewWriter(f)
	if err := WriteJSON(gzWriter, data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
