package ammsim

import (
	"fmt"

	"github.com/wanxinwanxin/ammsim/internal/evmhost"
)

// EVMStrategy embeds a deployed strategy's EVM bytecode and exposes the
// afterInitialize/afterSwap entry points a pool drives after every trade.
type EVMStrategy struct {
	name     string
	bytecode []byte
	host     *evmhost.Host

	// tradeBuf is the reusable 196-byte afterSwap calldata buffer.
	tradeBuf [196]byte
}

// NewEVMStrategy deploys bytecode, fetches the strategy's self-reported
// name, and returns a ready host. defaultName is kept if getName() fails or
// returns undecodable data.
func NewEVMStrategy(bytecode []byte, defaultName string) (*EVMStrategy, error) {
	host, err := evmhost.New(bytecode)
	if err != nil {
		return nil, wrapHostErr(err)
	}

	s := &EVMStrategy{name: defaultName, bytecode: bytecode, host: host}
	s.fetchName()
	return s, nil
}

func (s *EVMStrategy) fetchName() {
	calldata := SelectorGetName[:]
	ret, err := s.host.Call(calldata, evmhost.GasLimitName)
	if err != nil {
		return
	}
	if name, ok := DecodeName(ret); ok {
		s.name = name
	}
}

// Name returns the strategy's self-reported (or default) display name. It
// is never used as a map key; see positional naming in the engine.
func (s *EVMStrategy) Name() string { return s.name }

// AfterInitialize calls afterInitialize(x0, y0) and returns the strategy's
// initial (bidFee, askFee) quote, unclamped.
func (s *EVMStrategy) AfterInitialize(x0, y0 Wad) (bid, ask Wad, err error) {
	calldata := EncodeAfterInitialize(x0, y0)
	ret, err := s.host.Call(calldata[:], evmhost.GasLimitInit)
	if err != nil {
		return Wad{}, Wad{}, wrapHostErr(err)
	}
	bid, ask, ok := DecodeFeePair(ret)
	if !ok {
		return Wad{}, Wad{}, newEVMError(InvalidReturnData, fmt.Errorf("afterInitialize: undecodable return data"))
	}
	return bid, ask, nil
}

// AfterSwap calls afterSwap(trade) and returns the strategy's refreshed
// (bidFee, askFee) quote, unclamped.
func (s *EVMStrategy) AfterSwap(trade TradeInfo) (bid, ask Wad, err error) {
	trade.EncodeCalldata(&s.tradeBuf)
	ret, err := s.host.Call(s.tradeBuf[:], evmhost.GasLimitTrade)
	if err != nil {
		return Wad{}, Wad{}, wrapHostErr(err)
	}
	bid, ask, ok := DecodeFeePair(ret)
	if !ok {
		return Wad{}, Wad{}, newEVMError(InvalidReturnData, fmt.Errorf("afterSwap: undecodable return data"))
	}
	return bid, ask, nil
}

// Reset rebuilds a fresh EVM state database and re-deploys the bytecode.
func (s *EVMStrategy) Reset() error {
	if err := s.host.Reset(); err != nil {
		return wrapHostErr(err)
	}
	s.fetchName()
	return nil
}

func wrapHostErr(err error) *EVMError {
	he, ok := err.(*evmhost.Error)
	if !ok {
		return newEVMError(ExecutionFailed, err)
	}
	switch he.Kind {
	case evmhost.DeploymentFailed:
		return newEVMError(DeploymentFailed, he.Err)
	case evmhost.OutOfGas:
		return newEVMError(OutOfGas, he.Err)
	default:
		return newEVMError(ExecutionFailed, he.Err)
	}
}
