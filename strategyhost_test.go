package ammsim

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEVMStrategyDeployAndFeeQuote(t *testing.T) {
	bid := WadFromBps(25)
	ask := WadFromBps(40)
	s, err := NewEVMStrategy(buildFixedFeeBytecode(bid.Raw(), ask.Raw()), "fallback")
	require.NoError(t, err)

	gotBid, gotAsk, err := s.AfterInitialize(WadFromFloat64(1000), WadFromFloat64(1000))
	require.NoError(t, err)
	assert.Equal(t, 0, bid.Cmp(gotBid))
	assert.Equal(t, 0, ask.Cmp(gotAsk))

	trade := TradeInfo{IsBuy: true, AmountX: WadFromFloat64(1), AmountY: WadFromFloat64(1), Timestamp: 0, ReserveX: WadFromFloat64(1001), ReserveY: WadFromFloat64(999)}
	gotBid2, gotAsk2, err := s.AfterSwap(trade)
	require.NoError(t, err)
	assert.Equal(t, 0, bid.Cmp(gotBid2))
	assert.Equal(t, 0, ask.Cmp(gotAsk2))
}

func TestEVMStrategyDeploymentFailure(t *testing.T) {
	// INVALID opcode (0xfe) as init code: the CREATE transaction must fail.
	_, err := NewEVMStrategy([]byte{0xfe}, "fallback")
	require.Error(t, err)
	evmErr, ok := err.(*EVMError)
	require.True(t, ok)
	assert.Equal(t, DeploymentFailed, evmErr.Kind)
}

func TestEVMStrategyInvalidReturnDataOnUndecodableReturn(t *testing.T) {
	emptyInit := []byte{0x60, 0x00, 0x60, 0x00, 0xf3} // returns zero bytes
	s, err := NewEVMStrategy(emptyInit, "fallback")
	require.NoError(t, err)

	_, _, err = s.AfterInitialize(WadFromFloat64(1), WadFromFloat64(1))
	require.Error(t, err)
	evmErr, ok := err.(*EVMError)
	require.True(t, ok)
	assert.Equal(t, InvalidReturnData, evmErr.Kind)
}

func TestEVMStrategyKeepsDefaultNameWhenGetNameFails(t *testing.T) {
	emptyInit := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	s, err := NewEVMStrategy(emptyInit, "fallback-name")
	require.NoError(t, err)
	assert.Equal(t, "fallback-name", s.Name())
}

func TestEVMStrategyResetRedeploys(t *testing.T) {
	bid := WadFromBps(10)
	ask := WadFromBps(10)
	s, err := NewEVMStrategy(buildFixedFeeBytecode(bid.Raw(), ask.Raw()), "fixture")
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	gotBid, gotAsk, err := s.AfterInitialize(WadFromFloat64(1), WadFromFloat64(1))
	require.NoError(t, err)
	assert.Equal(t, 0, bid.Cmp(gotBid))
	assert.Equal(t, 0, ask.Cmp(gotAsk))
}

func TestEVMStrategyFeeAboveMaxFeeIsInvalidReturnData(t *testing.T) {
	tooHigh := new(big.Int).Mul(MaxFee, big.NewInt(2))
	s, err := NewEVMStrategy(buildFixedFeeBytecode(tooHigh, tooHigh), "greedy")
	require.NoError(t, err)

	_, _, err = s.AfterInitialize(WadFromFloat64(1), WadFromFloat64(1))
	require.Error(t, err)
	evmErr, ok := err.(*EVMError)
	require.True(t, ok)
	assert.Equal(t, InvalidReturnData, evmErr.Kind)
}
