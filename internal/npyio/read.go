package npyio

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Header describes the array stored in a .npy file.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// NumElements returns the total number of elements in the array.
func (h Header) NumElements() int {
	return numElements(h.Shape)
}

// ReadHeader consumes the .npy preamble from r.
func ReadHeader(r io.Reader) (Header, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, errors.Wrap(err, "reading npy magic")
	}
	for i := range magic {
		if pre[i] != magic[i] {
			return Header{}, errors.New("not a npy file: bad magic")
		}
	}

	var hdrLen int
	switch major := pre[6]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, order, &n); err != nil {
			return Header{}, err
		}
		hdrLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, order, &n); err != nil {
			return Header{}, err
		}
		hdrLen = int(n)
	default:
		return Header{}, errors.Errorf("unsupported npy version %d", major)
	}

	buf := make([]byte, hdrLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errors.Wrap(err, "reading npy header")
	}

	return parseHeader(string(buf))
}

func parseHeader(s string) (Header, error) {
	var h Header
	descr, err := dictValue(s, "descr")
	if err != nil {
		return h, err
	}
	h.Descr = strings.Trim(descr, "'\"")

	fortran, err := dictValue(s, "fortran_order")
	if err != nil {
		return h, err
	}
	h.FortranOrder = fortran == "True"

	shape, err := dictValue(s, "shape")
	if err != nil {
		return h, err
	}
	shape = strings.Trim(shape, "()")
	for _, part := range strings.Split(shape, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return h, errors.Wrapf(err, "invalid shape %q", shape)
		}
		h.Shape = append(h.Shape, d)
	}

	return h, nil
}

// dictValue extracts the literal for key from the header's Python dict.
func dictValue(s, key string) (string, error) {
	idx := strings.Index(s, "'"+key+"'")
	if idx < 0 {
		return "", errors.Errorf("npy header missing %q: %s", key, s)
	}
	rest := strings.TrimSpace(s[idx+len(key)+2:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", errors.Errorf("unterminated tuple for %q", key)
		}
		return rest[:end+1], nil
	}

	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		return "", errors.Errorf("unterminated value for %q", key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

// ReadFloat64s reads a float array, widening float32 data if necessary.
func ReadFloat64s(r io.Reader) ([]float64, Header, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, h, err
	}
	if h.FortranOrder && len(h.Shape) > 1 {
		return nil, h, errors.New("fortran-ordered arrays are not supported")
	}

	br := bufio.NewReader(r)
	n := h.NumElements()
	result := make([]float64, n)
	switch h.Descr {
	case Float64:
		var buf [8]byte
		for i := range result {
			if _, err := io.ReadFull(br, buf[:]); err != nil {
				return nil, h, errors.Wrapf(err, "reading element %d of %d", i, n)
			}
			result[i] = math.Float64frombits(order.Uint64(buf[:]))
		}
	case Float32:
		var buf [4]byte
		for i := range result {
			if _, err := io.ReadFull(br, buf[:]); err != nil {
				return nil, h, errors.Wrapf(err, "reading element %d of %d", i, n)
			}
			result[i] = float64(math.Float32frombits(order.Uint32(buf[:])))
		}
	default:
		return nil, h, errors.Errorf("unsupported float dtype %q", h.Descr)
	}

	return result, h, nil
}

// ReadUint8s reads a small non-negative integer array. Integer dtypes wider
// than one byte are accepted as long as every value fits in a uint8.
func ReadUint8s(r io.Reader) ([]uint8, Header, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, h, err
	}
	if h.FortranOrder && len(h.Shape) > 1 {
		return nil, h, errors.New("fortran-ordered arrays are not supported")
	}

	br := bufio.NewReader(r)
	n := h.NumElements()
	result := make([]uint8, n)
	var width int
	switch h.Descr {
	case Uint8, "<u1", "|i1":
		if _, err := io.ReadFull(br, result); err != nil {
			return nil, h, errors.Wrap(err, "reading uint8 data")
		}
		return result, h, nil
	case Int64:
		width = 8
	case Int32:
		width = 4
	default:
		return nil, h, errors.Errorf("unsupported integer dtype %q", h.Descr)
	}

	buf := make([]byte, width)
	for i := range result {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, h, errors.Wrapf(err, "reading element %d of %d", i, n)
		}
		var v int64
		if width == 8 {
			v = int64(order.Uint64(buf))
		} else {
			v = int64(int32(order.Uint32(buf)))
		}
		if v < 0 || v > math.MaxUint8 {
			return nil, h, errors.Errorf("element %d out of range: %d", i, v)
		}
		result[i] = uint8(v)
	}

	return result, h, nil
}
