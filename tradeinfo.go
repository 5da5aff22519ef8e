package ammsim

import "math/big"

// TradeInfo describes a just-executed trade, passed to a strategy's
// afterSwap entry point. ReserveX/ReserveY are POST-trade reserves.
type TradeInfo struct {
	IsBuy     bool
	AmountX   Wad
	AmountY   Wad
	Timestamp uint64
	ReserveX  Wad
	ReserveY  Wad
}

// Function selectors for the strategy ABI.
var (
	SelectorAfterInitialize = [4]byte{0x83, 0x7a, 0xef, 0x47}
	SelectorAfterSwap       = [4]byte{0xc2, 0xba, 0xbb, 0x57}
	SelectorGetName         = [4]byte{0x17, 0xd7, 0xde, 0x7c}
)

// EncodeCalldata writes the 196-byte afterSwap((bool,uint256,uint256,
// uint256,uint256,uint256)) calldata into buf, reusing it across calls.
//
// Layout: selector (4) | isBuy (32, value at byte 35) | amountX (32) |
// amountY (32) | timestamp (32) | reserveX (32) | reserveY (32).
func (t TradeInfo) EncodeCalldata(buf *[196]byte) {
	copy(buf[0:4], SelectorAfterSwap[:])

	for i := 4; i < 36; i++ {
		buf[i] = 0
	}
	if t.IsBuy {
		buf[35] = 1
	}

	encodeU256Word(buf[36:68], t.AmountX.Raw())
	encodeU256Word(buf[68:100], t.AmountY.Raw())
	encodeU256Word(buf[100:132], new(big.Int).SetUint64(t.Timestamp))
	encodeU256Word(buf[132:164], t.ReserveX.Raw())
	encodeU256Word(buf[164:196], t.ReserveY.Raw())
}

// encodeU256Word writes v as a big-endian 32-byte ABI word. v must be
// non-negative and fit in 256 bits, which always holds for the magnitudes
// this simulator deals in.
func encodeU256Word(word []byte, v *big.Int) {
	for i := range word {
		word[i] = 0
	}
	b := v.Bytes()
	if len(b) > len(word) {
		b = b[len(b)-len(word):]
	}
	copy(word[len(word)-len(b):], b)
}

// EncodeAfterInitialize builds the 68-byte afterInitialize(uint256,uint256)
// calldata.
func EncodeAfterInitialize(initialX, initialY Wad) [68]byte {
	var buf [68]byte
	copy(buf[0:4], SelectorAfterInitialize[:])
	encodeU256Word(buf[4:36], initialX.Raw())
	encodeU256Word(buf[36:68], initialY.Raw())
	return buf
}

// DecodeFeePair decodes a (bidFee, askFee) return value, validating each
// word is within [0, MaxFee]. Returns ok=false on any malformed or
// out-of-range word; the caller maps this to InvalidReturnData.
func DecodeFeePair(data []byte) (bid, ask Wad, ok bool) {
	if len(data) < 64 {
		return Wad{}, Wad{}, false
	}
	bidRaw := new(big.Int).SetBytes(data[0:32])
	askRaw := new(big.Int).SetBytes(data[32:64])
	if bidRaw.Cmp(MaxFee) > 0 || askRaw.Cmp(MaxFee) > 0 {
		return Wad{}, Wad{}, false
	}
	return NewWad(bidRaw), NewWad(askRaw), true
}

// DecodeName decodes a standard dynamic `string` ABI return value: a 32-byte
// offset word, a 32-byte length word, then the UTF-8 bytes padded to a
// 32-byte boundary.
func DecodeName(data []byte) (string, bool) {
	if len(data) < 64 {
		return "", false
	}
	length := new(big.Int).SetBytes(data[32:64])
	if !length.IsUint64() {
		return "", false
	}
	n := length.Uint64()
	if n > uint64(len(data)-64) {
		return "", false
	}
	return string(data[64 : 64+n]), true
}
