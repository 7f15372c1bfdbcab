package simdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// marshalCanonical renders v in the canonical JSON form entry identity
// is defined on: object keys sorted, ", " and ": " separators, every
// rune outside printable ASCII escaped as lowercase \uXXXX, floats
// keeping a trailing ".0" when integral. This is byte-compatible with
// json.dumps(v, sort_keys=True, ensure_ascii=True) so hashes agree
// with directories produced by the original Python tool.
//
// indent > 0 selects the pretty variant written to input files.
func marshalCanonical(v any, indent int) ([]byte, error) {
	e := &encoder{indent: indent}
	if err := e.encode(v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf    bytes.Buffer
	indent int
}

func (e *encoder) encode(v any, depth int) error {
	switch val := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		if val {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case string:
		e.writeString(val)
	case int:
		e.buf.WriteString(strconv.Itoa(val))
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		fmt.Fprintf(&e.buf, "%d", val)
	case float32:
		return e.writeFloat(float64(val))
	case float64:
		return e.writeFloat(val)
	case json.Number:
		// produced by our own decoder; already in canonical spelling
		e.buf.WriteString(val.String())
	case Params:
		return e.writeObject(val, depth)
	case map[string]any:
		return e.writeObject(val, depth)
	case []any:
		return e.writeArray(val, depth)
	default:
		return e.encodeReflect(v, depth)
	}
	return nil
}

// encodeReflect handles the long tail of concrete slice and map types
// callers put into parameter maps ([]string, map[string]float64, ...).
func (e *encoder) encodeReflect(v any, depth int) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = rv.Index(i).Interface()
		}
		return e.writeArray(arr, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &EncodeError{Value: fmt.Sprintf("map with non-string keys (%T)", v)}
		}
		m := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			m[k.String()] = rv.MapIndex(k).Interface()
		}
		return e.writeObject(m, depth)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.encode(rv.Elem().Interface(), depth)
	}
	return &EncodeError{Value: fmt.Sprintf("value of type %T", v)}
}

func (e *encoder) writeObject(m map[string]any, depth int) error {
	if len(m) == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.buf.WriteByte('{')
	for i, k := range keys {
		e.item(i, depth+1)
		e.writeString(k)
		e.buf.WriteString(": ")
		if err := e.encode(m[k], depth+1); err != nil {
			return err
		}
	}
	e.close('}', depth)
	return nil
}

func (e *encoder) writeArray(arr []any, depth int) error {
	if len(arr) == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i, v := range arr {
		e.item(i, depth+1)
		if err := e.encode(v, depth+1); err != nil {
			return err
		}
	}
	e.close(']', depth)
	return nil
}

// item writes the separator preceding the i-th container element.
func (e *encoder) item(i, depth int) {
	if e.indent == 0 {
		if i > 0 {
			e.buf.WriteString(", ")
		}
		return
	}
	if i > 0 {
		e.buf.WriteByte(',')
	}
	e.buf.WriteByte('\n')
	e.pad(depth)
}

func (e *encoder) close(b byte, depth int) {
	if e.indent > 0 {
		e.buf.WriteByte('\n')
		e.pad(depth)
	}
	e.buf.WriteByte(b)
}

func (e *encoder) pad(depth int) {
	for i := 0; i < e.indent*depth; i++ {
		e.buf.WriteByte(' ')
	}
}

// writeString escapes everything outside printable ASCII (0x20..0x7e)
// with lowercase \uXXXX, using surrogate pairs beyond the BMP.
func (e *encoder) writeString(s string) {
	e.buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			e.buf.WriteString(`\"`)
		case '\\':
			e.buf.WriteString(`\\`)
		case '\b':
			e.buf.WriteString(`\b`)
		case '\f':
			e.buf.WriteString(`\f`)
		case '\n':
			e.buf.WriteString(`\n`)
		case '\r':
			e.buf.WriteString(`\r`)
		case '\t':
			e.buf.WriteString(`\t`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				e.buf.WriteByte(byte(r))
			case r > 0xffff:
				r -= 0x10000
				fmt.Fprintf(&e.buf, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			default:
				fmt.Fprintf(&e.buf, `\u%04x`, r)
			}
		}
	}
	e.buf.WriteByte('"')
}

// writeFloat formats floats the way Python's repr does: positional
// within [1e-4, 1e16), scientific outside, integral values with a
// trailing ".0". This keeps int and float spellings distinct ("10"
// vs "10.0"), which is deliberately part of entry identity.
func (e *encoder) writeFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &EncodeError{Value: "non-finite float " + strconv.FormatFloat(f, 'g', -1, 64)}
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		e.buf.WriteString(strconv.FormatFloat(f, 'e', -1, 64))
		return nil
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	e.buf.WriteString(s)
	return nil
}
