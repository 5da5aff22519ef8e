// Package evmhost embeds a single-threaded EVM for driving strategy
// bytecode, built on go-ethereum's core/vm/runtime package over an
// in-memory state database. No network or chain is involved.
package evmhost

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm/runtime"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// Gas limits per call kind, fixed by the strategy ABI contract.
const (
	GasLimitInit  = 250_000
	GasLimitTrade = 250_000
	GasLimitName  = 50_000
)

var (
	// StrategyAddress is the fixed address the strategy's runtime code is
	// installed at.
	StrategyAddress = common.HexToAddress("0x1000000000000000000000000000000000000001")
	// CallerAddress is the fixed address every call originates from.
	CallerAddress = common.HexToAddress("0x2000000000000000000000000000000000000002")

	// callerBalance funds CallerAddress generously; no value is ever
	// transferred, this only needs to satisfy the EVM's balance checks.
	callerBalance = new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000_000))
)

// Kind classifies why a Deploy/Call failed.
type Kind int

const (
	DeploymentFailed Kind = iota
	ExecutionFailed
	OutOfGas
)

// Error wraps an EVM-level failure with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("evmhost: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrapCallErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, vm.ErrOutOfGas) {
		return &Error{Kind: OutOfGas, Err: err}
	}
	return &Error{Kind: ExecutionFailed, Err: err}
}

// Host is a single strategy's deployed EVM bytecode plus the in-memory state
// it runs against. A Host is never shared across simulations: callers must
// construct one fresh Host per worker, per simulation.
type Host struct {
	bytecode []byte
	cfg      *runtime.Config
}

// New deploys bytecode as init code and returns a ready Host. Deployment
// failure is permanent for this Host; construct a new one to retry.
func New(bytecode []byte) (*Host, error) {
	h := &Host{bytecode: bytecode}
	if err := h.deploy(); err != nil {
		return nil, err
	}
	return h, nil
}

func freshConfig() *runtime.Config {
	statedb, err := state.New(types.EmptyRootHash, state.NewDatabaseForTesting())
	if err != nil {
		// state.New only fails on a corrupt trie root; an empty memory
		// database can never produce one.
		panic(fmt.Sprintf("evmhost: fresh state database: %v", err))
	}
	return &runtime.Config{
		ChainConfig: params.AllDevChainProtocolChanges,
		Origin:      CallerAddress,
		GasLimit:    GasLimitInit,
		GasPrice:    big.NewInt(0),
		Value:       big.NewInt(0),
		Difficulty:  big.NewInt(0),
		BaseFee:     big.NewInt(0),
		BlockNumber: big.NewInt(1),
		Time:        0,
		State:       statedb,
	}
}

// deploy (re)builds the in-memory state database, funds the caller, runs
// the bytecode as a CREATE transaction, and installs the resulting runtime
// code at StrategyAddress.
func (h *Host) deploy() error {
	cfg := freshConfig()
	cfg.State.SetBalance(CallerAddress, uint256.MustFromBig(callerBalance), 0 /* tracing reason, unused here */)

	cfg.GasLimit = GasLimitInit
	_, addr, _, err := runtime.Create(h.bytecode, cfg)
	if err != nil {
		return &Error{Kind: DeploymentFailed, Err: err}
	}

	// Move the deployed runtime code to the fixed strategy address so every
	// Host, regardless of the address runtime.Create happened to assign,
	// presents the same call target.
	runtimeCode := cfg.State.GetCode(addr)
	cfg.State.SetCode(StrategyAddress, runtimeCode, tracing.CodeChangeUnspecified)

	h.cfg = cfg
	return nil
}

// Reset re-deploys the bytecode against a fresh state database, discarding
// all prior storage.
func (h *Host) Reset() error { return h.deploy() }

// Call invokes StrategyAddress with calldata under the given gas limit and
// returns the raw return data.
func (h *Host) Call(calldata []byte, gasLimit uint64) ([]byte, error) {
	h.cfg.GasLimit = gasLimit
	ret, _, err := runtime.Call(StrategyAddress, calldata, h.cfg)
	if err != nil {
		return nil, wrapCallErr(err)
	}
	return ret, nil
}
