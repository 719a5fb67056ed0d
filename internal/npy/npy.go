package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY")

// Load reads an .npy file into integer rows.
func Load(path string) ([][]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read parses one array from the stream.
func Read(r io.Reader) ([][]int64, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	dtype, err := parseDescr(header.descr)
	if err != nil {
		return nil, err
	}
	if header.fortranOrder {
		return nil, fmt.Errorf("npy: fortran order arrays unsupported")
	}

	var rows, cols int
	switch len(header.shape) {
	case 1:
		rows, cols = 1, header.shape[0]
	case 2:
		rows, cols = header.shape[0], header.shape[1]
	default:
		return nil, fmt.Errorf("npy: unsupported array rank %d", len(header.shape))
	}

	// Guard the allocation: a hostile header can claim a shape whose byte
	// count wraps int.
	if rows != 0 && cols > math.MaxInt/rows {
		return nil, fmt.Errorf("npy: shape (%d, %d) too large", rows, cols)
	}
	count := rows * cols
	if count != 0 && dtype.size > math.MaxInt/count {
		return nil, fmt.Errorf("npy: shape (%d, %d) too large for %d-byte elements", rows, cols, dtype.size)
	}

	data := make([]byte, count*dtype.size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("npy: read array body: %w", err)
	}

	out := make([][]int64, rows)
	offset := 0
	for i := range out {
		row := make([]int64, cols)
		for j := range row {
			row[j] = dtype.decode(data[offset : offset+dtype.size])
			offset += dtype.size
		}
		out[i] = row
	}
	return out, nil
}

type header struct {
	descr        string
	fortranOrder bool
	shape        []int
}

func readHeader(r io.Reader) (header, error) {
	var h header

	preamble := make([]byte, 8)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return h, fmt.Errorf("npy: read magic: %w", err)
	}
	if string(preamble[:6]) != string(magic) {
		return h, fmt.Errorf("npy: bad magic %q", preamble[:6])
	}

	major := preamble[6]
	var headerLen int
	switch major {
	case 1:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return h, fmt.Errorf("npy: read header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(buf[:]))
	case 2, 3:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return h, fmt.Errorf("npy: read header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(buf[:]))
	default:
		return h, fmt.Errorf("npy: unsupported format version %d", major)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return h, fmt.Errorf("npy: read header: %w", err)
	}
	return parseHeader(string(raw))
}

// parseHeader picks the three known keys out of the Python dict literal that
// NumPy writes, e.g. {'descr': '<i8', 'fortran_order': False, 'shape': (2, 3), }.
func parseHeader(raw string) (header, error) {
	var h header

	descr, err := dictValue(raw, "descr")
	if err != nil {
		return h, err
	}
	h.descr = strings.Trim(descr, "'\"")

	order, err := dictValue(raw, "fortran_order")
	if err != nil {
		return h, err
	}
	switch order {
	case "True":
		h.fortranOrder = true
	case "False":
		h.fortranOrder = false
	default:
		return h, fmt.Errorf("npy: bad fortran_order %q", order)
	}

	shape, err := dictValue(raw, "shape")
	if err != nil {
		return h, err
	}
	h.shape, err = parseShape(shape)
	return h, err
}

func dictValue(raw, key string) (string, error) {
	quoted := "'" + key + "'"
	idx := strings.Index(raw, quoted)
	if idx < 0 {
		return "", fmt.Errorf("npy: header missing %s", key)
	}
	rest := raw[idx+len(quoted):]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", fmt.Errorf("npy: malformed header near %s", key)
	}
	rest = rest[colon+1:]

	// Values are either a quoted string, a bare word, or a parenthesized tuple.
	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", fmt.Errorf("npy: unterminated tuple for %s", key)
		}
		return rest[:end+1], nil
	}
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimSpace(rest[:end]), nil
}

func parseShape(s string) ([]int, error) {
	inner := strings.Trim(s, "() ")
	if inner == "" {
		return nil, fmt.Errorf("npy: scalar arrays unsupported")
	}
	parts := strings.Split(inner, ",")
	dims := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil || dim < 0 {
			return nil, fmt.Errorf("npy: bad shape %q", s)
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

type dtype struct {
	size   int
	decode func([]byte) int64
}

func parseDescr(descr string) (dtype, error) {
	if descr == "" {
		return dtype{}, fmt.Errorf("npy: empty descr")
	}

	order := byte('<')
	rest := descr
	switch descr[0] {
	case '<', '>', '|', '=':
		order = descr[0]
		rest = descr[1:]
	}
	if order == '=' {
		order = '<'
	}
	if len(rest) != 2 {
		return dtype{}, fmt.Errorf("npy: unsupported descr %q", descr)
	}

	kind := rest[0]
	if kind != 'i' && kind != 'u' {
		return dtype{}, fmt.Errorf("npy: unsupported dtype %q (integer arrays only)", descr)
	}
	size := int(rest[1] - '0')

	var byteOrder binary.ByteOrder = binary.LittleEndian
	if order == '>' {
		byteOrder = binary.BigEndian
	}
	if order == '|' && size != 1 {
		return dtype{}, fmt.Errorf("npy: unsupported descr %q", descr)
	}

	signed := kind == 'i'
	switch size {
	case 1:
		return dtype{1, func(b []byte) int64 {
			if signed {
				return int64(int8(b[0]))
			}
			return int64(b[0])
		}}, nil
	case 2:
		return dtype{2, func(b []byte) int64 {
			if signed {
				return int64(int16(byteOrder.Uint16(b)))
			}
			return int64(byteOrder.Uint16(b))
		}}, nil
	case 4:
		return dtype{4, func(b []byte) int64 {
			if signed {
				return int64(int32(byteOrder.Uint32(b)))
			}
			return int64(byteOrder.Uint32(b))
		}}, nil
	case 8:
		return dtype{8, func(b []byte) int64 {
			return int64(byteOrder.Uint64(b))
		}}, nil
	default:
		return dtype{}, fmt.Errorf("npy: unsupported dtype size in %q", descr)
	}
}
