package leafwire

import (
	"encoding/binary"

	"github.com/pkt-cash/leafledger/er"
)

// scriptFixedHeaderSize is version(1) + type(1) + code_len(4) + args_len(4)
// + data_len(4), the fixed portion of a Script's wire form when it is
// stored as a Leaf's Data.
const scriptFixedHeaderSize = 1 + 1 + 4 + 4 + 4

// EncodeScript renders s the way a Leaf carrying a locking or operator
// script stores it in its Data field.
func EncodeScript(s Script) []byte {
	out := make([]byte, scriptFixedHeaderSize+len(s.Code)+len(s.Args)+len(s.Data))
	i := 0
	out[i] = s.Version
	i++
	out[i] = byte(s.Type)
	i++
	binary.BigEndian.PutUint32(out[i:], uint32(len(s.Code)))
	i += 4
	binary.BigEndian.PutUint32(out[i:], uint32(len(s.Args)))
	i += 4
	binary.BigEndian.PutUint32(out[i:], uint32(len(s.Data)))
	i += 4
	copy(out[i:], s.Code)
	i += len(s.Code)
	copy(out[i:], s.Args)
	i += len(s.Args)
	copy(out[i:], s.Data)
	return out
}

// DecodeScript parses the wire form EncodeScript produces.
func DecodeScript(data []byte) (Script, er.R) {
	if len(data) < scriptFixedHeaderSize {
		return Script{}, ErrWrongLengthForScript(len(data), scriptFixedHeaderSize)
	}
	var s Script
	i := 0
	s.Version = data[i]
	i++
	s.Type = ScriptType(data[i])
	i++
	codeLen := binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	argsLen := binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	dataLen := binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	expected := scriptFixedHeaderSize + int(codeLen) + int(argsLen) + int(dataLen)
	if len(data) != expected {
		return Script{}, ErrWrongLengthForScript(len(data), expected)
	}
	s.Code = append([]byte(nil), data[i:i+int(codeLen)]...)
	i += int(codeLen)
	s.Args = append([]byte(nil), data[i:i+int(argsLen)]...)
	i += int(argsLen)
	s.Data = append([]byte(nil), data[i:i+int(dataLen)]...)
	return s, nil
}
