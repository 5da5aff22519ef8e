package configs

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	ammsim "github.com/wanxinwanxin/ammsim"
	"github.com/wanxinwanxin/ammsim/pkg/runner"

	"gopkg.in/yaml.v3"
)

// BatchFileConfig is the top-level YAML shape a batch run is loaded from.
type BatchFileConfig struct {
	// StrategyBytecodePaths is the ordered list of hex-encoded bytecode
	// files to deploy, one per strategy slot (index 0 is "submission",
	// index 1 "normalizer", index k>=2 "Strategy_k").
	StrategyBytecodePaths []string `yaml:"strategy_bytecode_paths"`

	// Simulations lists explicit per-simulation configs. Mutually
	// exclusive with Generator; if both are set, Simulations wins.
	Simulations []SimulationYAMLData `yaml:"simulations"`

	// Generator, if set and Simulations is empty, draws Count simulation
	// configs from Base varied per HyperparameterVariance.
	Generator *GeneratorYAMLData `yaml:"generator"`

	NWorkers int    `yaml:"n_workers"`
	MySQLDSN string `yaml:"mysql_dsn"`
}

// SimulationYAMLData is the YAML form of ammsim.SimulationConfig.
type SimulationYAMLData struct {
	NSteps       uint32  `yaml:"n_steps"`
	InitialPrice float64 `yaml:"initial_price"`
	InitialX     float64 `yaml:"initial_x"`
	InitialY     float64 `yaml:"initial_y"`

	GBMMu    float64 `yaml:"gbm_mu"`
	GBMSigma float64 `yaml:"gbm_sigma"`
	GBMDt    float64 `yaml:"gbm_dt"`

	RetailArrivalRate float64 `yaml:"retail_arrival_rate"`
	RetailMeanSize    float64 `yaml:"retail_mean_size"`
	RetailSizeSigma   float64 `yaml:"retail_size_sigma"`
	RetailBuyProb     float64 `yaml:"retail_buy_prob"`

	Seed *uint64 `yaml:"seed"`
}

// GeneratorYAMLData drives a batch of Count simulations, one per seed in
// [SeedStart, SeedStart+Count), from a shared base config varied per
// VarianceYAMLData.
type GeneratorYAMLData struct {
	Base      SimulationYAMLData `yaml:"base"`
	Variance  VarianceYAMLData   `yaml:"variance"`
	Count     int                `yaml:"count"`
	SeedStart uint64             `yaml:"seed_start"`
}

// VarianceYAMLData is the YAML form of ammsim.HyperparameterVariance.
type VarianceYAMLData struct {
	RetailMeanSizeMin      float64 `yaml:"retail_mean_size_min,omitempty"`
	RetailMeanSizeMax      float64 `yaml:"retail_mean_size_max,omitempty"`
	VaryRetailMeanSize     bool    `yaml:"vary_retail_mean_size"`
	RetailArrivalRateMin   float64 `yaml:"retail_arrival_rate_min,omitempty"`
	RetailArrivalRateMax   float64 `yaml:"retail_arrival_rate_max,omitempty"`
	VaryRetailArrivalRate  bool    `yaml:"vary_retail_arrival_rate"`
	GBMSigmaMin            float64 `yaml:"gbm_sigma_min,omitempty"`
	GBMSigmaMax            float64 `yaml:"gbm_sigma_max,omitempty"`
	VaryGBMSigma           bool    `yaml:"vary_gbm_sigma"`
}

// LoadConfig reads and parses a batch YAML file into a BatchFileConfig.
func LoadConfig(path string) (*BatchFileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config BatchFileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &config, nil
}

// ToSimulationConfig converts a SimulationYAMLData entry.
func (d SimulationYAMLData) ToSimulationConfig() ammsim.SimulationConfig {
	return ammsim.SimulationConfig{
		NSteps:            d.NSteps,
		InitialPrice:      d.InitialPrice,
		InitialX:          d.InitialX,
		InitialY:          d.InitialY,
		GBMMu:             d.GBMMu,
		GBMSigma:          d.GBMSigma,
		GBMDt:             d.GBMDt,
		RetailArrivalRate: d.RetailArrivalRate,
		RetailMeanSize:    d.RetailMeanSize,
		RetailSizeSigma:   d.RetailSizeSigma,
		RetailBuyProb:     d.RetailBuyProb,
		Seed:              d.Seed,
	}
}

// ToVariance converts a VarianceYAMLData block.
func (v VarianceYAMLData) ToVariance() ammsim.HyperparameterVariance {
	return ammsim.HyperparameterVariance{
		RetailMeanSizeMin:     v.RetailMeanSizeMin,
		RetailMeanSizeMax:     v.RetailMeanSizeMax,
		VaryRetailMeanSize:    v.VaryRetailMeanSize,
		RetailArrivalRateMin:  v.RetailArrivalRateMin,
		RetailArrivalRateMax:  v.RetailArrivalRateMax,
		VaryRetailArrivalRate: v.VaryRetailArrivalRate,
		GBMSigmaMin:           v.GBMSigmaMin,
		GBMSigmaMax:           v.GBMSigmaMax,
		VaryGBMSigma:          v.VaryGBMSigma,
	}
}

// SimulationConfigs resolves the batch's explicit Simulations list or, if
// empty, expands Generator into Count configs.
func (c *BatchFileConfig) SimulationConfigs() ([]ammsim.SimulationConfig, error) {
	if len(c.Simulations) > 0 {
		out := make([]ammsim.SimulationConfig, len(c.Simulations))
		for i, d := range c.Simulations {
			out[i] = d.ToSimulationConfig()
		}
		return out, nil
	}

	if c.Generator == nil {
		return nil, fmt.Errorf("config: neither simulations nor generator set")
	}
	g := c.Generator
	base := g.Base.ToSimulationConfig()
	variance := g.Variance.ToVariance()

	out := make([]ammsim.SimulationConfig, g.Count)
	for i := 0; i < g.Count; i++ {
		seed := g.SeedStart + uint64(i)
		out[i] = variance.Apply(base, seed)
	}
	return out, nil
}

// ToBatchConfig loads every strategy bytecode file, resolves the simulation
// config list, and assembles the runner's batch config in one call.
func (c *BatchFileConfig) ToBatchConfig() (*runner.BatchConfig, error) {
	bytecodes, err := LoadBytecode(c.StrategyBytecodePaths)
	if err != nil {
		return nil, err
	}

	simConfigs, err := c.SimulationConfigs()
	if err != nil {
		return nil, err
	}

	return &runner.BatchConfig{
		Bytecodes: bytecodes,
		Configs:   simConfigs,
		NWorkers:  c.NWorkers,
	}, nil
}

// LoadBytecode reads and hex-decodes every path in paths, in order.
func LoadBytecode(paths []string) ([][]byte, error) {
	out := make([][]byte, len(paths))
	for i, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read bytecode %q: %w", p, err)
		}
		decoded, err := hex.DecodeString(strings.TrimSpace(strings.TrimPrefix(string(raw), "0x")))
		if err != nil {
			return nil, fmt.Errorf("failed to decode bytecode %q: %w", p, err)
		}
		out[i] = decoded
	}
	return out, nil
}
