package ammsim

import "fmt"

// EVMErrorKind classifies the ways a strategy-host call can fail.
type EVMErrorKind int

const (
	// DeploymentFailed means the CREATE transaction for the strategy
	// bytecode itself failed.
	DeploymentFailed EVMErrorKind = iota
	// ExecutionFailed means the EVM reverted or halted during a call for
	// any reason other than running out of gas.
	ExecutionFailed
	// OutOfGas means the EVM halted having exhausted its gas limit.
	OutOfGas
	// InvalidReturnData means the call succeeded but the returned words
	// could not be decoded into the expected shape.
	InvalidReturnData
)

func (k EVMErrorKind) String() string {
	switch k {
	case DeploymentFailed:
		return "deployment failed"
	case ExecutionFailed:
		return "execution failed"
	case OutOfGas:
		return "out of gas"
	case InvalidReturnData:
		return "invalid return data"
	default:
		return "unknown evm error"
	}
}

// EVMError wraps a strategy-host failure with its kind so callers can branch
// on Kind without string matching.
type EVMError struct {
	Kind EVMErrorKind
	Err  error
}

func (e *EVMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *EVMError) Unwrap() error { return e.Err }

func newEVMError(kind EVMErrorKind, err error) *EVMError {
	return &EVMError{Kind: kind, Err: err}
}

// SimulationError wraps a fatal failure that aborts a single simulation.
// Other simulations in the same batch continue.
type SimulationError struct {
	// EVM is set when the failure originated from a strategy-host call.
	EVM *EVMError
	// Config is set when the failure is an invalid configuration, detected
	// before any simulation step runs.
	Config error
}

func (e *SimulationError) Error() string {
	switch {
	case e.EVM != nil:
		return fmt.Sprintf("evm error: %v", e.EVM)
	case e.Config != nil:
		return fmt.Sprintf("invalid config: %v", e.Config)
	default:
		return "simulation error"
	}
}

func (e *SimulationError) Unwrap() error {
	if e.EVM != nil {
		return e.EVM
	}
	return e.Config
}

func evmSimError(err error) *SimulationError {
	if ee, ok := err.(*EVMError); ok {
		return &SimulationError{EVM: ee}
	}
	return &SimulationError{EVM: newEVMError(ExecutionFailed, err)}
}

func invalidConfigError(err error) *SimulationError {
	return &SimulationError{Config: err}
}
