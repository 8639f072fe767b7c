// Package npyio reads and writes the subset of the NumPy .npy/.npz formats
// used for the solver's artifacts: dense little-endian float64 and uint8
// arrays in C order.
package npyio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

var order = binary.LittleEndian

const (
	Float64 = "<f8"
	Float32 = "<f4"
	Uint8   = "|u1"
	Int64   = "<i8"
	Int32   = "<i4"
)

// WriteFloat64s writes v as a float64 array with the given shape.
// If no shape is given, v is written as a 1-D array.
func WriteFloat64s(w io.Writer, v []float64, shape ...int) error {
	shape, err := checkShape(len(v), shape)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, Float64, shape); err != nil {
		return err
	}

	var buf [8]byte
	for _, x := range v {
		order.PutUint64(buf[:], math.Float64bits(x))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteUint8s writes v as a uint8 array with the given shape.
func WriteUint8s(w io.Writer, v []uint8, shape ...int) error {
	shape, err := checkShape(len(v), shape)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, Uint8, shape); err != nil {
		return err
	}
	if _, err := bw.Write(v); err != nil {
		return err
	}

	return bw.Flush()
}

func checkShape(n int, shape []int) ([]int, error) {
	if len(shape) == 0 {
		return []int{n}, nil
	}

	if numElements(shape) != n {
		return nil, errors.Errorf("shape %v does not match %d elements", shape, n)
	}

	return shape, nil
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// The header layout is adapted from: github.com/sbinet/npyio
var magic = [6]byte{'\x93', 'N', 'U', 'M', 'P', 'Y'}

const (
	majorVersion = byte(2)
	minorVersion = byte(0)
)

func writeHeader(w io.Writer, descr string, shape []int) error {
	if err := binary.Write(w, order, magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, order, majorVersion); err != nil {
		return err
	}
	if err := binary.Write(w, order, minorVersion); err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf,
		"{'descr': '%s', 'fortran_order': False, 'shape': %s, }",
		descr, formatShape(shape))

	// Magic, version and the 4-byte header length precede the dict,
	// and the whole preamble must be 16-byte aligned.
	var hdrSize = len(magic) + 2 + 4
	padding := (16 - (hdrSize+buf.Len()+1)%16) % 16
	if _, err := buf.Write(bytes.Repeat([]byte{'\x20'}, padding)); err != nil {
		return err
	}
	if _, err := buf.Write([]byte{'\n'}); err != nil {
		return err
	}

	buflen := int64(buf.Len())
	if err := binary.Write(w, order, uint32(buflen)); err != nil {
		return err
	}

	if n, err := io.Copy(w, buf); err != nil {
		return err
	} else if n < buflen {
		return io.ErrShortWrite
	}

	return nil
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
