// Package canon produces a canonical JSON encoding of loosely typed
// scenario data so equal content always yields equal bytes, and derives
// stable identifiers from it.
//
// The encoding follows RFC 8785 for what scenario files can contain:
// object keys sorted by UTF-16 code units, strings NFC-normalized with no
// HTML escaping, integral numbers written without a fraction.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf16"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Namespace seeds content-derived scenario identifiers.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/casegen/scenario"))

// Marshal returns the canonical encoding of v.
//
// Supported values are nil, bool, string, all integer and float kinds,
// slices and arrays, and maps with string keys, nested arbitrarily.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UUID derives a name-based identifier from the canonical encoding of v.
func UUID(v any) (uuid.UUID, error) {
	data, err := Marshal(v)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewSHA1(Namespace, data), nil
}

// Hash returns the hex SHA-256 of data under a domain prefix. The domain and
// data are separated by a NUL byte.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func encode(buf *bytes.Buffer, v reflect.Value) error {
	if !v.IsValid() {
		buf.WriteString("null")
		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encode(buf, v.Elem())
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.String:
		return encodeString(buf, v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return encodeFloat(buf, v.Float())
	case reflect.Slice:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeArray(buf, v)
	case reflect.Array:
		return encodeArray(buf, v)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("canon: unsupported map key type %s", v.Type().Key())
		}
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeObject(buf, v)
	default:
		return fmt.Errorf("canon: unsupported type %s", v.Type())
	}
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canon: %v has no JSON representation", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func encodeArray(buf *bytes.Buffer, v reflect.Value) error {
	buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, v.Index(i)); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, v reflect.Value) error {
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	slices.SortFunc(keys, CompareKeys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		value := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
		if err := encode(buf, value); err != nil {
			return fmt.Errorf("[%q]: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(unescapeSeparators(bytes.TrimSuffix(out.Bytes(), []byte("\n"))))
	return nil
}

// unescapeSeparators undoes encoding/json's escaping of U+2028 and U+2029,
// leaving an escaped backslash followed by "u2028" alone.
func unescapeSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') && precedingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func precedingBackslashes(b []byte) int {
	n := 0
	for i := len(b) - 1; i >= 0 && b[i] == '\\'; i-- {
		n++
	}
	return n
}

// CompareKeys orders strings by UTF-16 code units as RFC 8785 requires.
func CompareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
