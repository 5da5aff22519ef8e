package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigExplicitSimulations(t *testing.T) {
	path := writeTempConfig(t, `
strategy_bytecode_paths:
  - strategies/submission.hex
  - strategies/normalizer.hex
n_workers: 4
simulations:
  - n_steps: 100
    initial_price: 1.0
    initial_x: 1000
    initial_y: 1000
    gbm_mu: 0.0
    gbm_sigma: 0.2
    gbm_dt: 1.0
    retail_arrival_rate: 3
    retail_mean_size: 5
    retail_size_sigma: 0.5
    retail_buy_prob: 0.5
    seed: 42
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NWorkers)
	assert.Len(t, cfg.StrategyBytecodePaths, 2)

	sims, err := cfg.SimulationConfigs()
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, uint32(100), sims[0].NSteps)
	require.NotNil(t, sims[0].Seed)
	assert.Equal(t, uint64(42), *sims[0].Seed)
}

func TestLoadConfigGeneratorExpandsCount(t *testing.T) {
	path := writeTempConfig(t, `
strategy_bytecode_paths:
  - strategies/submission.hex
  - strategies/normalizer.hex
generator:
  base:
    n_steps: 50
    initial_price: 1.0
    initial_x: 1000
    initial_y: 1000
    gbm_mu: 0.0
    gbm_sigma: 0.2
    gbm_dt: 1.0
    retail_arrival_rate: 3
    retail_mean_size: 5
    retail_size_sigma: 0.5
    retail_buy_prob: 0.5
  variance:
    vary_gbm_sigma: true
    gbm_sigma_min: 0.1
    gbm_sigma_max: 0.5
  count: 3
  seed_start: 100
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	sims, err := cfg.SimulationConfigs()
	require.NoError(t, err)
	require.Len(t, sims, 3)
	for i, s := range sims {
		require.NotNil(t, s.Seed)
		assert.Equal(t, uint64(100+i), *s.Seed)
		assert.GreaterOrEqual(t, s.GBMSigma, 0.1)
		assert.LessOrEqual(t, s.GBMSigma, 0.5)
	}
}

func TestSimulationConfigsErrorsWithoutSimulationsOrGenerator(t *testing.T) {
	path := writeTempConfig(t, `
strategy_bytecode_paths:
  - strategies/submission.hex
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = cfg.SimulationConfigs()
	assert.Error(t, err)
}

func TestToBatchConfigAssemblesRunnerConfig(t *testing.T) {
	dir := t.TempDir()
	bcPath := filepath.Join(dir, "strategy.hex")
	require.NoError(t, os.WriteFile(bcPath, []byte("0x6001600155"), 0o644))

	path := writeTempConfig(t, `
strategy_bytecode_paths:
  - `+bcPath+`
  - `+bcPath+`
n_workers: 2
simulations:
  - n_steps: 10
    initial_price: 1.0
    initial_x: 1000
    initial_y: 1000
    gbm_sigma: 0.2
    gbm_dt: 1.0
    retail_arrival_rate: 3
    retail_mean_size: 5
    retail_size_sigma: 0.5
    retail_buy_prob: 0.5
    seed: 7
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	batchCfg, err := cfg.ToBatchConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, batchCfg.NWorkers)
	require.Len(t, batchCfg.Bytecodes, 2)
	assert.Equal(t, []byte{0x60, 0x01, 0x60, 0x01, 0x55}, batchCfg.Bytecodes[0])
	require.Len(t, batchCfg.Configs, 1)
	assert.Equal(t, uint32(10), batchCfg.Configs[0].NSteps)
}

func TestToBatchConfigMissingBytecodeFile(t *testing.T) {
	path := writeTempConfig(t, `
strategy_bytecode_paths:
  - /nonexistent/strategy.hex
simulations:
  - n_steps: 10
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = cfg.ToBatchConfig()
	assert.Error(t, err)
}

func TestLoadBytecodeDecodesHex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.hex")
	require.NoError(t, os.WriteFile(path, []byte("0x6001600155"), 0o644))

	decoded, err := LoadBytecode([]string{path})
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, []byte{0x60, 0x01, 0x60, 0x01, 0x55}, decoded[0])
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path.yml")
	assert.Error(t, err)
}
