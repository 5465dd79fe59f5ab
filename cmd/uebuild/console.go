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

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// console prints bracketed status lines. Colors are only emitted when the
// writer is a terminal.
type console struct {
	w    io.Writer
	info lipgloss.Style
	ok   lipgloss.Style
	warn lipgloss.Style
	err  lipgloss.Style
	next lipgloss.Style
}

func newConsole(w io.Writer) *console {
	r := lipgloss.NewRenderer(w)
	return &console{
		w:    w,
		info: r.NewStyle().Foreground(lipgloss.Color("12")),
		ok:   r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warn: r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		err:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		next: r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

func (c *console) line(style lipgloss.Style, tag, msg string) {
	fmt.Fprintf(c.w, "%s %s\n", style.Render("["+tag+"]"), msg)
}

func (c *console) Info(msg string)  { c.line(c.info, "info", msg) }
func (c *console) OK(msg string)    { c.line(c.ok, "ok", msg) }
func (c *console) Warn(msg string)  { c.line(c.warn, "warn", msg) }
func (c *console) Error(msg string) { c.line(c.err, "error", msg) }
func (c *console) Next(msg string)  { c.line(c.next, "next", msg) }
