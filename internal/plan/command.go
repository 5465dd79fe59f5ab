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

// Package plan holds the resolved form of an external tool invocation: the
// argument vector, working directory and environment handed to a subprocess.
package plan

import (
	"strings"
	"unicode"
)

// Command represents an executable program with arguments, the directory it
// runs in, its environment, and a human-readable description.
//
// Args are passed to the program exactly as written; no shell quoting is
// applied. Quoting is a display concern handled by Shell.
type Command struct {
	Program     string
	Args        []string
	Dir         string
	Env         Env
	Description string
}

// Argv returns the full argument vector with the program as the first element.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Program)
	return append(argv, c.Args...)
}

// Shell renders the command as a single display line.
func (c Command) Shell() string {
	return FormatArgs(c.Argv())
}

// View is the serializable projection of a Command used for plan output.
// Only environment variables added on top of the inherited environment are
// included.
type View struct {
	Program     string            `json:"program" yaml:"program"`
	Args        []string          `json:"args" yaml:"args"`
	Dir         string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Shell       string            `json:"shell" yaml:"shell"`
}

// View returns the serializable projection of c.
func (c Command) View() View {
	args := c.Args
	if args == nil {
		args = []string{}
	}
	return View{
		Program:     c.Program,
		Args:        args,
		Dir:         c.Dir,
		Env:         c.Env.Overrides(),
		Description: c.Description,
		Shell:       c.Shell(),
	}
}

// FormatArgs joins argv into a line that can be pasted into a shell.
func FormatArgs(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Quote wraps arg in double quotes if it contains whitespace or a double
// quote, escaping embedded double quotes with a backslash. Empty arguments
// render as "".
func Quote(arg string) string {
	if arg == "" {
		return `""`
	}
	if strings.IndexFunc(arg, needsQuoting) == -1 {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
}

func needsQuoting(r rune) bool {
	return r == '"' || unicode.IsSpace(r)
}
