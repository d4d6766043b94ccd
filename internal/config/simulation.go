package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Recorder holds coordinator event recording settings.
type Recorder struct {
	BufferSize    int           `yaml:"buffer_size"` // pending events before drops
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Pillar is a cylindrical line-of-sight blocker.
type Pillar struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// NpcSpawn places one NPC in the arena.
type NpcSpawn struct {
	Kind string  `yaml:"kind"` // ranged, melee, flying, sniper, elite
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Z    float64 `yaml:"z"`
}

// PlayerConfig describes the simulated player the NPCs fight.
type PlayerConfig struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Z           float64 `yaml:"z"`
	OrbitRadius float64 `yaml:"orbit_radius"` // circles (X, Y) at this radius; 0 = stand still
	OrbitSpeed  float64 `yaml:"orbit_speed"`  // units per second
	HPDrain     float64 `yaml:"hp_drain"`     // HP fraction lost per second per attacker
	ArmorDrain  float64 `yaml:"armor_drain"`  // armor fraction lost per second per attacker

	// The player shoots back at the nearest visible NPC.
	AttackInterval time.Duration `yaml:"attack_interval"`
	AttackDamage   float64       `yaml:"attack_damage"` // NPC HP fraction per shot
}

// Arena describes the encounter layout.
type Arena struct {
	HalfSize float64      `yaml:"half_size"` // square bounds [-HalfSize, HalfSize]
	Pillars  []Pillar     `yaml:"pillars"`
	Player   PlayerConfig `yaml:"player"`
	Npcs     []NpcSpawn   `yaml:"npcs"`
}

// Simulation holds all configuration for the coordinator simulator binary.
type Simulation struct {
	LogLevel     string        `yaml:"log_level"` // debug, info, warn, error
	TickInterval time.Duration `yaml:"tick_interval"`
	Duration     time.Duration `yaml:"duration"` // 0 = run until interrupted
	Seed         uint64        `yaml:"seed"`

	Database DatabaseConfig `yaml:"database"`
	Recorder Recorder       `yaml:"recorder"`

	Coordinator Coordinator `yaml:"coordinator"`
	Arena       Arena       `yaml:"arena"`
}

// DefaultSimulation returns Simulation config with sensible defaults.
func DefaultSimulation() Simulation {
	return Simulation{
		LogLevel:     "info",
		TickInterval: 100 * time.Millisecond, // 10 Hz
		Duration:     60 * time.Second,
		Seed:         1,
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "npccoord",
			Password: "npccoord",
			DBName:   "npccoord",
			SSLMode:  "disable",
		},
		Recorder: Recorder{
			BufferSize:    1024,
			BatchSize:     128,
			FlushInterval: time.Second,
		},
		Coordinator: DefaultCoordinator(),
		Arena: Arena{
			HalfSize: 5000,
			Pillars: []Pillar{
				{X: 600, Y: 0, Radius: 120},
				{X: -400, Y: 700, Radius: 150},
			},
			Player: PlayerConfig{
				OrbitRadius:    300,
				OrbitSpeed:     150,
				HPDrain:        0.01,
				ArmorDrain:     0.02,
				AttackInterval: 1500 * time.Millisecond,
				AttackDamage:   0.2,
			},
			Npcs: []NpcSpawn{
				{Kind: "melee", X: 800, Y: 300},
				{Kind: "melee", X: -900, Y: -200},
				{Kind: "ranged", X: 1200, Y: 0},
				{Kind: "ranged", X: -1000, Y: 900},
				{Kind: "ranged", X: 0, Y: -1400},
				{Kind: "sniper", X: 2000, Y: 1500},
				{Kind: "flying", X: -1800, Y: -1600},
				{Kind: "elite", X: 1500, Y: -1200},
			},
		},
	}
}

// LoadSimulation loads simulation config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSimulation(path string) (Simulation, error) {
	cfg := DefaultSimulation()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
