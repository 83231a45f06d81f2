package pipe_sizing

// **** Project configuration ****

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "DHPS"

type Config struct {
	Design    DesignParameters   `mapstructure:"design"`
	Economics EconomicParameters `mapstructure:"economics"`
	Inputs    InputsConfig       `mapstructure:"inputs"`
	Outputs   OutputsConfig      `mapstructure:"outputs"`
	Run       RunConfig          `mapstructure:"run"`
	Log       LogConfig          `mapstructure:"log"`
}

type InputsConfig struct {
	Catalog  string `mapstructure:"catalog"`
	Segments string `mapstructure:"segments"`
	Geometry string `mapstructure:"geometry"` // optional
}

type OutputsConfig struct {
	Dir     string `mapstructure:"dir"`
	Summary string `mapstructure:"summary"` // json | yaml
}

type RunConfig struct {
	Workers int    `mapstructure:"workers"` // 0: GOMAXPROCS
	Store   string `mapstructure:"store"`   // SQLite path, empty: no persistence
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

/*
	Loads the project configuration.

	Args:
		path: configuration file (yaml, toml, json); empty for defaults and environment only

	Returns:
		configuration with defaults filled; not yet validated

	Notes:
		Every key can be overridden by the environment, e.g. DHPS_DESIGN_T_SUPPLY.
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_set_defaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config `%s`", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &Error{Kind: KindConfiguration, Op: "config", Msg: "decode failed", Err: err}
	}
	return cfg, nil
}

// Validate checks both parameter sets and the required inputs.
func (c *Config) Validate() error {
	if err := c.Design.Validate(); err != nil {
		return err
	}
	if err := c.Economics.Validate(); err != nil {
		return err
	}
	if c.Inputs.Catalog == "" {
		return configurationErrorf("config", "inputs.catalog is not set")
	}
	if c.Inputs.Segments == "" {
		return configurationErrorf("config", "inputs.segments is not set")
	}
	switch strings.ToLower(c.Outputs.Summary) {
	case "json", "yaml", "yml":
	default:
		return configurationErrorf("config", "outputs.summary must be json or yaml (got %q)", c.Outputs.Summary)
	}
	return nil
}

func _set_defaults(v *viper.Viper) {
	d := DefaultDesignParameters()
	v.SetDefault("design.t_supply", d.TSupply)
	v.SetDefault("design.t_return", d.TReturn)
	v.SetDefault("design.t_soil", d.TSoil)
	v.SetDefault("design.rho", d.Rho)
	v.SetDefault("design.mu", d.Mu)
	v.SetDefault("design.cp", d.Cp)
	v.SetDefault("design.eta_pump", d.EtaPump)
	v.SetDefault("design.hours", d.Hours)
	v.SetDefault("design.v_feasible_target", d.VFeasibleTarget)
	v.SetDefault("design.v_limit", d.VLimit)
	v.SetDefault("design.delta_t_min", d.DeltaTMin)
	v.SetDefault("design.k_minor", d.KMinor)
	v.SetDefault("design.epsilon", d.Epsilon)

	e := DefaultEconomicParameters()
	v.SetDefault("economics.price_el", e.PriceEl)
	v.SetDefault("economics.cost_heat_prod", e.CostHeatProd)
	v.SetDefault("economics.years", e.Years)
	v.SetDefault("economics.r", e.R)
	v.SetDefault("economics.o_and_m_rate", e.OAndMRate)

	v.SetDefault("inputs.catalog", "")
	v.SetDefault("inputs.segments", "")
	v.SetDefault("inputs.geometry", "")
	v.SetDefault("outputs.dir", "out")
	v.SetDefault("outputs.summary", "json")
	v.SetDefault("run.workers", 0)
	v.SetDefault("run.store", "")
	v.SetDefault("log.level", "info")
}
