package loaders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spaghettifunk/prism/engine/core"
)

// DescriptorError reports a descriptor file that cannot be turned into an
// asset. It unwraps to core.ErrMalformedDescriptor.
type DescriptorError struct {
	Path   string
	Field  string
	Reason string
}

func (e *DescriptorError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("descriptor %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("descriptor %s: field %q: %s", e.Path, e.Field, e.Reason)
}

func (e *DescriptorError) Unwrap() error {
	return core.ErrMalformedDescriptor
}

// node is one JSON object of a descriptor. Accessors return zero values
// after the first failure, which is kept for Err.
type node struct {
	path   string
	prefix string
	fields map[string]json.RawMessage
	err    *error
}

func readDescriptor(path string) (*node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &DescriptorError{Path: path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	var first error
	return &node{path: path, fields: fields, err: &first}, nil
}

func (n *node) Err() error {
	return *n.err
}

func (n *node) field(name string) string {
	if n.prefix == "" {
		return name
	}
	return n.prefix + "." + name
}

func (n *node) fail(name, format string, args ...any) {
	if *n.err == nil {
		*n.err = &DescriptorError{Path: n.path, Field: n.field(name), Reason: fmt.Sprintf(format, args...)}
	}
}

func (n *node) Has(name string) bool {
	v, ok := n.fields[name]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (n *node) raw(name string) (json.RawMessage, bool) {
	if *n.err != nil {
		return nil, false
	}
	if !n.Has(name) {
		n.fail(name, "required field is missing")
		return nil, false
	}
	return n.fields[name], true
}

func (n *node) decode(name string, dst any, expected string) bool {
	raw, ok := n.raw(name)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		n.fail(name, "expected %s", expected)
		return false
	}
	return true
}

func (n *node) number(name string) (float64, bool) {
	raw, ok := n.raw(name)
	if !ok {
		return 0, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		n.fail(name, "expected a number")
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		n.fail(name, "expected a number")
		return 0, false
	}
	f, err := num.Float64()
	if err != nil {
		n.fail(name, "expected a number")
		return 0, false
	}
	return f, true
}

func (n *node) Int(name string) int {
	f, ok := n.number(name)
	if !ok {
		return 0
	}
	if f != math.Trunc(f) {
		n.fail(name, "expected an integer, got %v", f)
		return 0
	}
	return int(f)
}

func (n *node) Uint(name string) uint32 {
	return uint32(n.bounded(name, math.MaxUint32))
}

func (n *node) Uint16(name string) uint16 {
	return uint16(n.bounded(name, math.MaxUint16))
}

func (n *node) Uint8(name string) uint8 {
	return uint8(n.bounded(name, math.MaxUint8))
}

// bounded reads an integer in [0, max]; anything else fails the node.
func (n *node) bounded(name string, max int64) int64 {
	v := int64(n.Int(name))
	if v < 0 || v > max {
		n.fail(name, "expected an unsigned integer up to %d, got %d", max, v)
		return 0
	}
	return v
}

func (n *node) Float(name string) float32 {
	f, _ := n.number(name)
	return float32(f)
}

func (n *node) Bool(name string) bool {
	var b bool
	n.decode(name, &b, "a boolean")
	return b
}

func (n *node) String(name string) string {
	var s string
	n.decode(name, &s, "a string")
	return s
}

// OptionalString returns fallback when the field is absent.
func (n *node) OptionalString(name, fallback string) string {
	if !n.Has(name) {
		return fallback
	}
	return n.String(name)
}

func (n *node) Strings(name string) []string {
	var s []string
	n.decode(name, &s, "an array of strings")
	return s
}

func (n *node) Uints(name string) []uint32 {
	var u []uint32
	n.decode(name, &u, "an array of unsigned integers")
	return u
}

// Floats reads an array of exactly count numbers.
func (n *node) Floats(name string, count int) []float32 {
	var f []float32
	if !n.decode(name, &f, "an array of numbers") {
		return make([]float32, count)
	}
	if len(f) != count {
		n.fail(name, "expected %d numbers, got %d", count, len(f))
		return make([]float32, count)
	}
	return f
}

func (n *node) Object(name string) *node {
	var fields map[string]json.RawMessage
	if !n.decode(name, &fields, "an object") {
		return &node{path: n.path, prefix: n.field(name), err: n.err}
	}
	return &node{path: n.path, prefix: n.field(name), fields: fields, err: n.err}
}

func (n *node) Objects(name string) []*node {
	var items []map[string]json.RawMessage
	if !n.decode(name, &items, "an array of objects") {
		return nil
	}
	nodes := make([]*node, len(items))
	for i, fields := range items {
		nodes[i] = &node{path: n.path, prefix: fmt.Sprintf("%s[%d]", n.field(name), i), fields: fields, err: n.err}
	}
	return nodes
}
