// Package runner provides the data-parallel batch simulation runner: a
// concurrency-limited goroutine group that runs many independent
// simulations concurrently, each against its own freshly deployed EVM
// strategies, and collects results in input order.
package runner

import (
	"fmt"
	"runtime"
	"sync"

	ammsim "github.com/wanxinwanxin/ammsim"
	"golang.org/x/sync/errgroup"
)

// BatchConfig configures a batch of simulations sharing the same ordered
// set of strategy bytecodes.
type BatchConfig struct {
	// Bytecodes is the ordered list of strategy bytecodes deployed fresh
	// for every simulation; index 0 is "submission", index 1 "normalizer",
	// index k>=2 "Strategy_k". Must have length >= 2.
	Bytecodes [][]byte

	// Configs is one SimulationConfig per simulation; results preserve
	// this order regardless of completion order.
	Configs []ammsim.SimulationConfig

	// NWorkers caps concurrent simulations. Zero or negative means
	// min(runtime.GOMAXPROCS(0), 8).
	NWorkers int
}

// RunBatch runs every config in batchCfg.Configs under an errgroup capped at
// NWorkers concurrent goroutines, returning results in the same order as
// batchCfg.Configs. A simulation that errors is recorded as a zero-value
// SimResult at its index and its error is returned in errs at the same
// index; RunBatch itself only returns an error for invalid batch
// configuration (never for a per-simulation failure).
func RunBatch(batchCfg BatchConfig) (ammsim.BatchResult, []error, error) {
	if len(batchCfg.Bytecodes) < 2 {
		return ammsim.BatchResult{}, nil, fmt.Errorf("runner: need at least 2 strategy bytecodes, got %d", len(batchCfg.Bytecodes))
	}

	nWorkers := batchCfg.NWorkers
	if nWorkers <= 0 {
		nWorkers = runtime.GOMAXPROCS(0)
		if nWorkers > 8 {
			nWorkers = 8
		}
	}

	n := len(batchCfg.Configs)
	results := make([]ammsim.SimResult, n)
	errs := make([]error, n)
	strategies := make([]string, len(batchCfg.Bytecodes))

	var namesOnce sync.Once
	var g errgroup.Group
	g.SetLimit(nWorkers)

	for i, cfg := range batchCfg.Configs {
		i, cfg := i, cfg
		g.Go(func() error {
			res, names, err := runOne(batchCfg.Bytecodes, cfg)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = res
			namesOnce.Do(func() { copy(strategies, names) })
			return nil
		})
	}
	_ = g.Wait() // worker funcs never return a non-nil error; failures go into errs

	return ammsim.BatchResult{Results: results, Strategies: strategies}, errs, nil
}

// runOne deploys a fresh EVMStrategy per bytecode and runs one simulation.
// Fresh deployment per call is deliberate: EVM state is never shared across
// simulations or workers.
func runOne(bytecodes [][]byte, cfg ammsim.SimulationConfig) (ammsim.SimResult, []string, error) {
	strategies := make([]*ammsim.EVMStrategy, len(bytecodes))
	names := make([]string, len(bytecodes))
	for i, bc := range bytecodes {
		s, err := ammsim.NewEVMStrategy(bc, defaultName(i))
		if err != nil {
			return ammsim.SimResult{}, nil, fmt.Errorf("runner: deploy strategy %d: %w", i, err)
		}
		strategies[i] = s
		names[i] = s.Name()
	}

	engine, err := ammsim.NewSimulationEngine(cfg, strategies)
	if err != nil {
		return ammsim.SimResult{}, nil, fmt.Errorf("runner: build engine: %w", err)
	}
	res, err := engine.Run()
	if err != nil {
		return ammsim.SimResult{}, nil, fmt.Errorf("runner: run simulation: %w", err)
	}
	return res, res.Strategies, nil
}

func defaultName(i int) string {
	switch i {
	case 0:
		return "Submission"
	case 1:
		return "Normalizer"
	default:
		return fmt.Sprintf("Strategy_%d", i)
	}
}

// RunSimulation runs a single simulation outside of a batch, for ad-hoc or
// CLI single-run use.
func RunSimulation(bytecodes [][]byte, cfg ammsim.SimulationConfig) (ammsim.SimResult, error) {
	res, _, err := runOne(bytecodes, cfg)
	return res, err
}
