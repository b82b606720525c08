// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package stream defines the random-access byte reader that every mesh
// loader in this module reads from.
//
// The interface is the real contract: a loader only ever depends on
// Reader, never on *os.File or any other concrete source. The package
// also ships NewReader, a default implementation wrapping any
// io.ReadSeeker, so the module is runnable standalone without a caller
// having to supply its own byte-reader implementation first.
package stream

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// ByteOrder selects how multi-byte primitives are decoded.
type ByteOrder uint8

// Byte orders.
const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Reader is a seekable, random-access byte stream with endian-aware
// primitive reads and whitespace/line tokenization, as required by the
// PLY/STL/OBJ header grammars and by the PLY vertex fetcher's random
// access into vertex data (see ply.Fetcher).
//
// Implementations need not be safe for concurrent use; a loader session
// owns its Reader exclusively for the session's duration.
type Reader interface {
	io.Closer

	// Seek repositions the stream. It behaves like io.Seeker.
	Seek(offset int64, whence int) (int64, error)

	// Pos returns the current absolute byte offset.
	Pos() int64

	// Size returns the total length of the stream in bytes.
	Size() int64

	// AtEOF reports whether Pos has reached Size.
	AtEOF() bool

	// ReadFull reads exactly len(p) bytes into p.
	ReadFull(p []byte) error

	ReadUint8() (uint8, error)
	ReadInt8() (int8, error)
	ReadUint16(order ByteOrder) (uint16, error)
	ReadInt16(order ByteOrder) (int16, error)
	ReadUint32(order ByteOrder) (uint32, error)
	ReadInt32(order ByteOrder) (int32, error)
	ReadUint64(order ByteOrder) (uint64, error)
	ReadInt64(order ByteOrder) (int64, error)
	ReadFloat32(order ByteOrder) (float32, error)
	ReadFloat64(order ByteOrder) (float64, error)

	// ReadWord skips leading whitespace (space, tab, CR, LF) and
	// returns the next whitespace-delimited token. It returns io.EOF
	// if the stream is exhausted before a token is found.
	ReadWord() (string, error)

	// ReadLine returns the remainder of the current line, excluding
	// the terminating newline, and advances past that newline.
	ReadLine() (string, error)
}

// Open opens the named file and wraps it in a Reader.
func Open(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "stream: open")
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader wraps rs in a Reader. rs is read from its current position
// onward; NewReader seeks to the end and back to determine Size.
func NewReader(rs io.ReadSeeker) (Reader, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "stream: seek current")
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "stream: seek end")
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "stream: seek start")
	}
	r := &reader{rs: rs, pos: start, size: end}
	r.br = bufio.NewReaderSize(rs, 64*1024)
	return r, nil
}

type reader struct {
	rs   io.ReadSeeker
	br   *bufio.Reader
	pos  int64
	size int64
}

func (r *reader) Close() error {
	if c, ok := r.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *reader) Pos() int64  { return r.pos }
func (r *reader) Size() int64 { return r.size }
func (r *reader) AtEOF() bool { return r.pos >= r.size }

func (r *reader) Seek(offset int64, whence int) (int64, error) {
	abs, err := r.rs.Seek(offset, whence)
	if err != nil {
		return r.pos, errors.Wrap(err, "stream: seek")
	}
	r.br.Reset(r.rs)
	r.pos = abs
	return abs, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

func (r *reader) ReadFull(p []byte) error {
	n, err := io.ReadFull(r.br, p)
	r.pos += int64(n)
	if err != nil {
		return errors.Wrap(err, "stream: read")
	}
	return nil
}

func (r *reader) ReadUint8() (uint8, error) {
	b, err := r.readByte()
	return b, err
}

func (r *reader) ReadInt8() (int8, error) {
	b, err := r.readByte()
	return int8(b), err
}

var le = func(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

var be = func(b []byte) uint64 {
	var v uint64
	for i := 0; i < len(b); i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (r *reader) readWidth(n int, order ByteOrder) (uint64, error) {
	var buf [8]byte
	if err := r.ReadFull(buf[:n]); err != nil {
		return 0, err
	}
	if order == LittleEndian {
		return le(buf[:n]), nil
	}
	return be(buf[:n]), nil
}

func (r *reader) ReadUint16(order ByteOrder) (uint16, error) {
	v, err := r.readWidth(2, order)
	return uint16(v), err
}

func (r *reader) ReadInt16(order ByteOrder) (int16, error) {
	v, err := r.readWidth(2, order)
	return int16(v), err
}

func (r *reader) ReadUint32(order ByteOrder) (uint32, error) {
	v, err := r.readWidth(4, order)
	return uint32(v), err
}

func (r *reader) ReadInt32(order ByteOrder) (int32, error) {
	v, err := r.readWidth(4, order)
	return int32(v), err
}

func (r *reader) ReadUint64(order ByteOrder) (uint64, error) {
	return r.readWidth(8, order)
}

func (r *reader) ReadInt64(order ByteOrder) (int64, error) {
	v, err := r.readWidth(8, order)
	return int64(v), err
}

func (r *reader) ReadFloat32(order ByteOrder) (float32, error) {
	v, err := r.readWidth(4, order)
	return math.Float32frombits(uint32(v)), err
}

func (r *reader) ReadFloat64(order ByteOrder) (float64, error) {
	v, err := r.readWidth(8, order)
	return math.Float64frombits(v), err
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func (r *reader) ReadWord() (string, error) {
	var b byte
	var err error
	for {
		b, err = r.readByte()
		if err != nil {
			return "", err
		}
		if !isSpace(b) {
			break
		}
	}
	var word []byte
	word = append(word, b)
	for {
		b, err = r.readByte()
		if err != nil {
			if err == io.EOF {
				return string(word), nil
			}
			return "", err
		}
		if isSpace(b) {
			break
		}
		word = append(word, b)
	}
	return string(word), nil
}

func (r *reader) ReadLine() (string, error) {
	var line []byte
	for {
		b, err := r.readByte()
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return string(line), nil
			}
			return "", err
		}
		if b == '\n' {
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			return string(line), nil
		}
		line = append(line, b)
	}
}
