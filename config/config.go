// Package config loads the application configuration with viper.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"beacon-sim/analysis"
	"beacon-sim/beacon"
)

// DefaultPath is where the CLI looks for the config file.
const DefaultPath = "config/config.yaml"

// EnvPrefix prefixes environment overrides, e.g. BEACON_SIMULATION_SEED.
const EnvPrefix = "BEACON"

type Config struct {
	Log        LogConfig       `mapstructure:"log"`
	LevelDB    LevelDBConfig   `mapstructure:"leveldb"`
	Server     ServerConfig    `mapstructure:"server"`
	Simulation beacon.Config   `mapstructure:"simulation"`
	Analysis   analysis.Params `mapstructure:"analysis"`
	Ensemble   EnsembleConfig  `mapstructure:"ensemble"`
	Ticks      int             `mapstructure:"ticks"`

	// analysis keys given explicitly in the file or environment
	analysisSet map[string]bool
}

type LogConfig struct {
	AppLogFile string `mapstructure:"app_log_file"`
	Level      string `mapstructure:"level"`
}

type LevelDBConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type EnsembleConfig struct {
	Runs    int `mapstructure:"runs"`
	Workers int `mapstructure:"workers"`
}

// Load reads path (if not empty) over the built-in defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// analysis keys get no default, so IsSet tells an explicit zero apart
	// from an absent key; binding after the prefix keeps env overrides working
	for _, key := range analysisKeys {
		_ = v.BindEnv("analysis." + key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.analysisSet = make(map[string]bool, len(analysisKeys))
	for _, key := range analysisKeys {
		cfg.analysisSet[key] = v.IsSet("analysis." + key)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.app_log_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("leveldb.path", "data/beacon")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ticks", 1000)
	v.SetDefault("ensemble.runs", 20)
	v.SetDefault("ensemble.workers", 4)

	d := beacon.DefaultConfig()
	v.SetDefault("simulation.seed", d.Seed)
	v.SetDefault("simulation.owner_mode", string(d.OwnerMode))
	v.SetDefault("simulation.owner_stakes", d.OwnerStakes)
	v.SetDefault("simulation.min_stake", d.MinStake)
	v.SetDefault("simulation.nodes", d.Nodes)
	v.SetDefault("simulation.owner_mean", d.OwnerMean)
	v.SetDefault("simulation.owner_stddev", d.OwnerStdDev)
	v.SetDefault("simulation.malicious_owner_percent", d.MaliciousOwnerPercent)
	v.SetDefault("simulation.node_failure_percent", d.NodeFailurePercent)
	v.SetDefault("simulation.node_death_percent", d.NodeDeathPercent)
	v.SetDefault("simulation.node_connection_delay", d.NodeConnectionDelay)
	v.SetDefault("simulation.node_reconnect_delay", d.NodeReconnectDelay)
	v.SetDefault("simulation.group_size", d.GroupSize)
	v.SetDefault("simulation.group_formation_threshold", d.GroupFormationThreshold)
	v.SetDefault("simulation.active_group_threshold", d.ActiveGroupThreshold)
	v.SetDefault("simulation.group_expiry", d.GroupExpiry)
	v.SetDefault("simulation.dkg_block_delay", d.DKGBlockDelay)
	v.SetDefault("simulation.signature_delay", d.SignatureDelay)
	v.SetDefault("simulation.relay_request_probability", d.RelayRequestProbability)
	v.SetDefault("simulation.compromise_threshold", d.CompromiseThreshold)
	v.SetDefault("simulation.domination_threshold", d.DominationThreshold)
	v.SetDefault("simulation.failed_signature_threshold", d.FailedSignatureThreshold)

}

var analysisKeys = []string{
	"virtual_stakers",
	"adversary_power",
	"group_size",
	"shares_required",
	"failure_probability",
	"death_probability",
}

// derive reports whether an analysis value should come from the simulation
// section: it was neither set explicitly nor given a non-zero value.
func (c *Config) derive(key string, zero bool) bool {
	return zero && !c.analysisSet[key]
}

// AnalysisParams returns the analysis section with every value left unset
// derived from the simulation section: the whole population's tickets, the
// expected malicious owner share, the per-tick failure and death rates and a
// simple majority threshold. Values set explicitly, zero included, are kept.
func (c *Config) AnalysisParams() analysis.Params {
	p := c.Analysis
	sim := c.Simulation
	if c.derive("virtual_stakers", p.VirtualStakers == 0) {
		p.VirtualStakers = sim.TotalTickets()
	}
	if c.derive("adversary_power", p.AdversaryPower == 0) {
		p.AdversaryPower = sim.MaliciousOwnerPercent / 100
	}
	if c.derive("group_size", p.GroupSize == 0) {
		p.GroupSize = sim.GroupSize
	}
	if c.derive("shares_required", p.SharesRequired == 0) {
		p.SharesRequired = p.GroupSize/2 + 1
	}
	if c.derive("failure_probability", p.FailureProbability == 0) {
		p.FailureProbability = sim.NodeFailurePercent / 100
	}
	if c.derive("death_probability", p.DeathProbability == 0) {
		p.DeathProbability = sim.NodeDeathPercent / 100
	}
	return p
}

// Validate checks every section.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := c.Simulation.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("simulation: %w", err))
	}
	if err := c.AnalysisParams().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("analysis: %w", err))
	}
	if c.Ticks <= 0 {
		result = multierror.Append(result, fmt.Errorf("ticks must be positive, got %d", c.Ticks))
	}
	if c.Ensemble.Runs <= 0 {
		result = multierror.Append(result, fmt.Errorf("ensemble.runs must be positive, got %d", c.Ensemble.Runs))
	}
	if c.Ensemble.Workers <= 0 {
		result = multierror.Append(result, fmt.Errorf("ensemble.workers must be positive, got %d", c.Ensemble.Workers))
	}
	return result.ErrorOrNil()
}
