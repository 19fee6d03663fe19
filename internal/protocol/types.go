package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// AppendString appends s as a VarInt byte length followed by its UTF-8 bytes.
func AppendString(dst []byte, s string) []byte {
	dst = AppendVarInt(dst, uint32(len(s)))
	return append(dst, s...)
}

// WriteString 向 writer 写入一个带长度前缀的字符串
func WriteString(w io.Writer, s string) error {
	return writeFull(w, AppendString(nil, s))
}

// ReadString 从 reader 中读取一个带长度前缀的字符串.
// Declared lengths above maxLen fail with ErrStringTooLong before anything is
// allocated.
func ReadString(r io.Reader, maxLen int) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if uint64(length) > uint64(maxLen) {
		return "", fmt.Errorf("%w: %d > %d", ErrStringTooLong, length, maxLen)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(buf), nil
}

// AppendUnsignedShort appends value in big-endian order.
func AppendUnsignedShort(dst []byte, value uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, value)
}

func WriteUnsignedShort(w io.Writer, value uint16) error {
	return writeFull(w, AppendUnsignedShort(nil, value))
}

// ReadUnsignedShort 从 reader 中读取一个 uint16（大端序）
func ReadUnsignedShort(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// writeFull keeps writing until p is flushed or w reports an error.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}
