package ammsim

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeCalldataLayout(t *testing.T) {
	trade := TradeInfo{
		IsBuy:     true,
		AmountX:   WadFromFloat64(1.0),
		AmountY:   WadFromFloat64(2000.0),
		Timestamp: 42,
		ReserveX:  WadFromFloat64(100.0),
		ReserveY:  WadFromFloat64(200000.0),
	}

	var buf [196]byte
	trade.EncodeCalldata(&buf)

	assert.Equal(t, SelectorAfterSwap[:], buf[0:4])
	assert.Equal(t, byte(1), buf[35], "isBuy flag byte")

	timestampWord := new(big.Int).SetBytes(buf[100:132])
	assert.Equal(t, uint64(42), timestampWord.Uint64())
}

func TestEncodeCalldataIsBuyFalse(t *testing.T) {
	trade := TradeInfo{IsBuy: false}
	var buf [196]byte
	trade.EncodeCalldata(&buf)
	assert.Equal(t, byte(0), buf[35])
}

func TestEncodeAfterInitialize(t *testing.T) {
	buf := EncodeAfterInitialize(WadFromFloat64(10), WadFromFloat64(20000))
	assert.Equal(t, SelectorAfterInitialize[:], buf[0:4])
	assert.Len(t, buf, 68)
}

func TestDecodeFeePairRoundTrip(t *testing.T) {
	bid := WadFromBps(30)
	ask := WadFromBps(50)

	var data [64]byte
	encodeU256Word(data[0:32], bid.Raw())
	encodeU256Word(data[32:64], ask.Raw())

	gotBid, gotAsk, ok := DecodeFeePair(data[:])
	assert.True(t, ok)
	assert.Equal(t, 0, bid.Cmp(gotBid))
	assert.Equal(t, 0, ask.Cmp(gotAsk))
}

func TestDecodeFeePairRejectsTooShort(t *testing.T) {
	_, _, ok := DecodeFeePair(make([]byte, 10))
	assert.False(t, ok)
}

func TestDecodeFeePairRejectsOutOfRange(t *testing.T) {
	var data [64]byte
	tooHigh := new(big.Int).Mul(MaxFee, big.NewInt(2))
	encodeU256Word(data[0:32], tooHigh)
	encodeU256Word(data[32:64], big.NewInt(0))

	_, _, ok := DecodeFeePair(data[:])
	assert.False(t, ok)
}

func TestDecodeNameRoundTrip(t *testing.T) {
	name := "MyStrategy"
	data := make([]byte, 96)
	encodeU256Word(data[0:32], big.NewInt(32))
	encodeU256Word(data[32:64], big.NewInt(int64(len(name))))
	copy(data[64:64+len(name)], name)

	got, ok := DecodeName(data)
	assert.True(t, ok)
	assert.Equal(t, name, got)
}

func TestDecodeNameRejectsTooShort(t *testing.T) {
	_, ok := DecodeName(make([]byte, 10))
	assert.False(t, ok)
}
