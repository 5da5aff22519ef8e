package ammsim

import "math/big"

// buildFixedFeeBytecode hand-assembles minimal EVM init code whose deployed
// runtime ignores calldata entirely and always returns the 64-byte
// (bidRaw, askRaw) fee pair. It stands in for a compiled strategy contract
// in tests, since no Solidity toolchain is available in this repository.
//
// Runtime code (77 bytes): PUSH32 bidRaw; PUSH1 0x00; MSTORE; PUSH32 askRaw;
// PUSH1 0x20; MSTORE; PUSH1 0x40; PUSH1 0x00; RETURN.
//
// Init code (11 bytes) CODECOPYs the runtime code following it in the
// deployment payload into memory and returns it, the standard
// constructor-returns-runtime-code pattern.
func buildFixedFeeBytecode(bidRaw, askRaw *big.Int) []byte {
	runtimeCode := make([]byte, 0, 77)
	runtimeCode = append(runtimeCode, 0x7f)
	runtimeCode = append(runtimeCode, leftPad32(bidRaw)...)
	runtimeCode = append(runtimeCode, 0x60, 0x00, 0x52)
	runtimeCode = append(runtimeCode, 0x7f)
	runtimeCode = append(runtimeCode, leftPad32(askRaw)...)
	runtimeCode = append(runtimeCode, 0x60, 0x20, 0x52)
	runtimeCode = append(runtimeCode, 0x60, 0x40, 0x60, 0x00, 0xf3)

	initCode := []byte{
		0x60, byte(len(runtimeCode)), // PUSH1 <len>
		0x80,             // DUP1
		0x60, 0x0b,       // PUSH1 <offset> (length of this init code)
		0x60, 0x00,       // PUSH1 0x00
		0x39,             // CODECOPY
		0x60, 0x00,       // PUSH1 0x00
		0xf3,             // RETURN
	}

	return append(initCode, runtimeCode...)
}

func leftPad32(v *big.Int) []byte {
	b := v.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
