package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/ss-sim/internal/agents"
	"github.com/talgya/ss-sim/internal/config"
	"github.com/talgya/ss-sim/internal/engine"
	"github.com/talgya/ss-sim/internal/exposure"
	"github.com/talgya/ss-sim/internal/logging"
	"github.com/talgya/ss-sim/internal/persistence"
	"github.com/talgya/ss-sim/internal/world"
)

// session is everything a command needs to drive one simulation.
type session struct {
	cfg       *config.Config
	sim       *engine.Simulation
	eng       *engine.Engine
	db        *persistence.DB // nil when storage is disabled
	startTick uint64
	landHexes int
}

// loadConfig reads --config, applies env overrides, validates, and installs
// the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	slog.SetDefault(logging.NewLogger(cfg.Logging.Level, os.Stderr))
	return cfg, nil
}

// newSession builds the world, restores or spawns the population and wires
// the simulation into an engine. fresh ignores any saved state.
func newSession(cfg *config.Config, fresh bool) (*session, error) {
	s := &session{cfg: cfg}

	// ── Database ──────────────────────────────────────────────────────
	if cfg.Storage.Path != "" {
		if dir := filepath.Dir(cfg.Storage.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		db, err := persistence.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.db = db
		slog.Info("database opened", "path", cfg.Storage.Path)
	}

	// ── World Map (always regenerated, deterministic from seed) ───────
	gen := world.DefaultGenConfig()
	gen.Seed = cfg.Simulation.Seed
	gen.Radius = cfg.Simulation.Radius
	gen.Towns = cfg.Simulation.Towns
	worldMap := world.Generate(gen)

	for t, c := range world.TerrainCounts(worldMap) {
		if t != world.TerrainOcean {
			s.landHexes += c
		}
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}

	// ── Load or Spawn Players ─────────────────────────────────────────
	spawner := agents.NewSpawner(cfg.Simulation.Seed)
	var population []*agents.Agent

	if s.db != nil && !fresh && s.db.HasWorldState() {
		loaded, err := s.db.LoadPlayers()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("load players: %w", err)
		}
		population = loaded
		s.startTick = s.db.LastTick()

		var maxID agents.AgentID
		for _, a := range population {
			if a.ID > maxID {
				maxID = a.ID
			}
		}
		spawner.SetNextID(maxID + 1)

		slog.Info("world state restored",
			"players", len(population),
			"run", s.db.RunID(),
			"tick", s.startTick,
			"sim_time", engine.SimTime(s.startTick),
		)
	} else {
		population = spawner.SpawnPopulation(worldMap, cfg.Simulation.Population, 0)
		if s.db != nil {
			id, err := s.db.StartRun(cfg.Simulation.Seed)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("start run: %w", err)
			}
			slog.Info("new run started", "run", id, "seed", cfg.Simulation.Seed)
		}
	}

	// ── Simulation ────────────────────────────────────────────────────
	src, err := newSource(cfg, worldMap)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.sim = engine.NewSimulation(worldMap, population, src, cfg.Simulation.QueueCapacity)
	s.sim.LastTick = s.startTick
	bands, _ := cfg.TreatStates()
	for _, b := range bands {
		s.sim.TreatBands[b] = true
	}

	s.eng = engine.NewEngine()
	s.eng.SetTick(s.startTick)
	s.eng.Interval = cfg.Simulation.Interval
	s.eng.ReportEvery = cfg.Simulation.ReportEvery
	s.eng.OnTick = s.sim.TickMinute
	s.eng.OnReport = func(tick uint64) {
		s.sim.TickReport(tick)
		s.save()
	}

	if s.startTick == 0 {
		s.save()
	}

	slog.Info("world ready",
		"players", humanize.Comma(int64(len(population))),
		"land_hexes", s.landHexes,
		"hexes", worldMap.HexCount(),
		"source", cfg.Exposure.Source,
	)
	return s, nil
}

// newSource builds the configured exposure source.
func newSource(cfg *config.Config, m *world.Map) (exposure.Source, error) {
	switch cfg.Exposure.Source {
	case "script":
		sc, err := exposure.LoadScript(cfg.Exposure.Script)
		if err != nil {
			return nil, fmt.Errorf("load exposure script: %w", err)
		}
		slog.Info("exposure script loaded", "name", sc.Name, "steps", len(sc.Steps), "loop", sc.Loop)
		return sc, nil
	case "none":
		return exposure.None{}, nil
	default:
		return exposure.NewField(m, exposure.FieldConfig{
			Seed:      cfg.Simulation.Seed,
			Intensity: cfg.Exposure.Intensity,
			TimeScale: cfg.Exposure.TimeScale,
		}), nil
	}
}

// save writes a snapshot when storage is enabled. Failures are logged.
func (s *session) save() {
	if s.db == nil {
		return
	}
	if err := s.db.SaveWorldState(s.sim); err != nil {
		slog.Error("save failed", "error", err)
	}
}

// Close releases the database.
func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
