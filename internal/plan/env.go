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

package plan

import (
	"sort"
	"strings"
)

// Env is an immutable set of environment variables. With returns a modified
// copy, so an Env can be shared between the main run and every hook without
// one stage leaking changes into another.
//
// The zero value is an empty environment.
type Env struct {
	vars      map[string]string
	overrides map[string]struct{}
}

// EnvFrom builds an Env from KEY=VALUE entries as returned by os.Environ.
// Entries without a key are skipped; later entries win.
func EnvFrom(environ []string) Env {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return Env{vars: vars}
}

// With returns a copy of e with key set to value. Keys set through With are
// reported by Overrides.
func (e Env) With(key, value string) Env {
	vars := make(map[string]string, len(e.vars)+1)
	for k, v := range e.vars {
		vars[k] = v
	}
	vars[key] = value

	overrides := make(map[string]struct{}, len(e.overrides)+1)
	for k := range e.overrides {
		overrides[k] = struct{}{}
	}
	overrides[key] = struct{}{}

	return Env{vars: vars, overrides: overrides}
}

// Get returns the value for key.
func (e Env) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Len returns the number of variables.
func (e Env) Len() int { return len(e.vars) }

// Keys returns all variable names in sorted order.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environ renders the variables as sorted KEY=VALUE entries for exec.Cmd.Env.
func (e Env) Environ() []string {
	keys := e.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// Overrides returns the variables that were set with With, or nil if none.
func (e Env) Overrides() map[string]string {
	if len(e.overrides) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.overrides))
	for k := range e.overrides {
		out[k] = e.vars[k]
	}
	return out
}
