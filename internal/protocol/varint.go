// Package protocol 负责 Server List Ping 协议的编解码
package protocol

import (
	"errors"
	"io"
)

const (
	SEGMENT_BITS = 0x7F
	CONTINUE_BIT = 0x80

	// MaxVarIntLen is the longest encoding a 32-bit VarInt may use.
	MaxVarIntLen = 5
)

// ReadVarInt reads one VarInt from r, a byte at a time.
// It returns the decoded value and the number of bytes consumed.
// Non-minimal encodings are accepted; a fifth byte that still has its
// continuation bit set yields ErrVarIntTooLong.
func ReadVarInt(r io.Reader) (value uint32, n int, err error) {
	var b [1]byte
	for {
		if _, err = io.ReadFull(r, b[:]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return 0, n, err
		}
		value |= uint32(b[0]&SEGMENT_BITS) << (7 * n)
		n++
		if b[0]&CONTINUE_BIT == 0 {
			return value, n, nil
		}
		if n == MaxVarIntLen {
			return 0, n, ErrVarIntTooLong
		}
	}
}

// AppendVarInt appends the minimal encoding of value to dst.
func AppendVarInt(dst []byte, value uint32) []byte {
	for value >= CONTINUE_BIT {
		dst = append(dst, byte(value&SEGMENT_BITS)|CONTINUE_BIT)
		value >>= 7
	}
	return append(dst, byte(value))
}

// WriteVarInt 向 writer 写入一个 VarInt
func WriteVarInt(w io.Writer, value uint32) error {
	var buf [MaxVarIntLen]byte
	return writeFull(w, AppendVarInt(buf[:0], value))
}

// VarIntLen 返回 VarInt 编码后的字节长度
func VarIntLen(value uint32) int {
	count := 1
	for value >= CONTINUE_BIT {
		value >>= 7
		count++
	}
	return count
}
