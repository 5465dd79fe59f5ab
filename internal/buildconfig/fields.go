// uebuild is a configuration-driven Unreal Engine build orchestrator.
// Copyright (C) 2025 Matthew Burns
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package buildconfig

import (
	"bytes"
	"encoding/json"
	"strings"
)

// The field types below never fail to decode. A value of the wrong JSON type
// is recorded as Present but not Valid, which lets Validate report every
// shape problem in one pass instead of aborting on the first one.

// String is an optional JSON string.
type String struct {
	Value   string
	Present bool // key present with a non-null value
	Valid   bool // value was a JSON string
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *String) UnmarshalJSON(b []byte) error {
	*s = String{}
	if isNull(b) {
		return nil
	}
	s.Present = true
	if err := json.Unmarshal(b, &s.Value); err != nil {
		s.Value = ""
		return nil
	}
	s.Valid = true
	return nil
}

// NonBlank reports whether s is a string with non-whitespace content.
func (s String) NonBlank() bool {
	return s.Valid && strings.TrimSpace(s.Value) != ""
}

// Bool is an optional JSON boolean.
type Bool struct {
	Value   bool
	Present bool
	Valid   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Bool) UnmarshalJSON(b []byte) error {
	*v = Bool{}
	if isNull(b) {
		return nil
	}
	v.Present = true
	if err := json.Unmarshal(b, &v.Value); err != nil {
		v.Value = false
		return nil
	}
	v.Valid = true
	return nil
}

// Or returns the value when it was a JSON boolean and def otherwise.
func (v Bool) Or(def bool) bool {
	if v.Valid {
		return v.Value
	}
	return def
}

// Strings is an optional JSON array of strings. Values holds the string
// elements in order; non-string elements are dropped and mark the field
// invalid.
type Strings struct {
	Values  []string
	Present bool
	Valid   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Strings) UnmarshalJSON(b []byte) error {
	*s = Strings{}
	if isNull(b) {
		return nil
	}
	s.Present = true
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	s.Valid = true
	for _, item := range items {
		var v string
		if err := json.Unmarshal(item, &v); err != nil {
			s.Valid = false
			continue
		}
		s.Values = append(s.Values, v)
	}
	return nil
}

// NonBlank returns the string elements that are not empty or whitespace,
// preserving order.
func (s Strings) NonBlank() []string {
	var out []string
	for _, v := range s.Values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

// jsonKind names the JSON type of a well-formed value for error messages.
func jsonKind(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "empty"
	}
	switch b[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
