/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package trx

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSegment is one step of a VariablePath: either a named field access
// (Field non-empty) or an indexed array access (IsIndex true).
type PathSegment struct {
	Field   string
	IsIndex bool
	Index   int
}

// VariablePath addresses a location inside a variable's Value, such as
// `customer.address[0].city`. It is produced by the (out-of-scope) parser
// and walked by Get/Set against a Scope.
//
// Root names, like Object field names, are matched case-insensitively; the
// parser is expected to have already uppercased Root and every Field
// segment, matching the uppercasing applied to JSON object keys on ingress
// (§4.1 base).
type VariablePath struct {
	Root     string
	Segments []PathSegment
}

// NewVariablePath builds a VariablePath from a root variable name and
// optional field/index segments.
func NewVariablePath(root string, segments ...PathSegment) VariablePath {
	return VariablePath{Root: strings.ToUpper(root), Segments: segments}
}

// Field appends a field-access segment.
func (p VariablePath) Field(name string) VariablePath {
	p.Segments = append(append([]PathSegment{}, p.Segments...), PathSegment{Field: strings.ToUpper(name)})
	return p
}

// Index appends an index-access segment.
func (p VariablePath) Index(i int) VariablePath {
	p.Segments = append(append([]PathSegment{}, p.Segments...), PathSegment{IsIndex: true, Index: i})
	return p
}

// String renders the path in dotted/bracketed form, for error messages and
// trace output.
func (p VariablePath) String() string {
	var b strings.Builder
	b.WriteString(p.Root)
	for _, seg := range p.Segments {
		if seg.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		} else {
			b.WriteByte('.')
			b.WriteString(seg.Field)
		}
	}
	return b.String()
}

// Resolve walks segments starting from root, returning the addressed Value.
// It reports a NotFoundError when a field segment misses on an Object (an
// index segment on an Array simply yields Null per the Array read
// semantics, matching JsonValue's out-of-range behaviour in the reference
// implementation) and a TypeError when a segment's container kind does not
// match the segment form (e.g. indexing into a Bool).
func Resolve(root Value, segments []PathSegment) (Value, error) {
	cur := root
	for _, seg := range segments {
		if seg.IsIndex {
			if !cur.IsArray() && !cur.IsNull() {
				return Null, &TypeError{Op: "index", Detail: fmt.Sprintf("cannot index into %s", cur.Kind())}
			}
			elem, _ := cur.Index(seg.Index)
			cur = elem
			continue
		}
		if !cur.IsObject() && !cur.IsNull() {
			return Null, &TypeError{Op: "field access", Detail: fmt.Sprintf("cannot access field %q on %s", seg.Field, cur.Kind())}
		}
		field, ok := cur.Field(seg.Field)
		if !ok {
			cur = Null
			continue
		}
		cur = field
	}
	return cur, nil
}

// Assign walks segments starting from root, returning a new root Value with
// the addressed location set to val. Intermediate containers are
// auto-vivified: a missing object field becomes a fresh Object, a
// short array is grown with Null padding, per the VariablePath
// auto-vivification rule (§3/§4.2 base).
func Assign(root Value, segments []PathSegment, val Value) (Value, error) {
	if len(segments) == 0 {
		return val, nil
	}
	seg := segments[0]
	rest := segments[1:]
	if seg.IsIndex {
		if !root.IsArray() && !root.IsNull() {
			return Null, &TypeError{Op: "index assign", Detail: fmt.Sprintf("cannot index into %s", root.Kind())}
		}
		if len(rest) == 0 {
			return root.WithIndex(seg.Index, val), nil
		}
		child, _ := root.Index(seg.Index)
		newChild, err := Assign(child, rest, val)
		if err != nil {
			return Null, err
		}
		return root.WithIndex(seg.Index, newChild), nil
	}
	if !root.IsObject() && !root.IsNull() {
		return Null, &TypeError{Op: "field assign", Detail: fmt.Sprintf("cannot access field %q on %s", seg.Field, root.Kind())}
	}
	if len(rest) == 0 {
		return root.WithField(seg.Field, val), nil
	}
	child, _ := root.Field(seg.Field)
	newChild, err := Assign(child, rest, val)
	if err != nil {
		return Null, err
	}
	return root.WithField(seg.Field, newChild), nil
}
