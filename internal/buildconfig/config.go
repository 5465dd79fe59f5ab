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

// Package buildconfig loads the JSON build description
// (<ProjectRoot>/Config/BuildSystem/BuildConfig.json) into a typed value.
//
// A Config is read fresh for every invocation and treated as read-only once
// Load returns.
package buildconfig

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrNotFound indicates the config file does not exist.
	ErrNotFound = errors.New("config not found")
)

// ParseError reports content that is not well-formed JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON: %s (%v)", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError reports well-formed JSON whose top-level value is not an object.
type ShapeError struct {
	Path string
	Kind string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("top-level JSON must be an object: %s (got %s)", e.Path, e.Kind)
}

// Config is the build description. Keys are matched the way encoding/json
// matches struct fields.
type Config struct {
	EngineRoot   String    `json:"EngineRoot"`
	ProjectName  String    `json:"ProjectName"`
	ProjectRoot  String    `json:"ProjectRoot"`
	ArtifactsDir String    `json:"ArtifactsDir"`
	SharedDDC    String    `json:"SharedDDC"`
	UBA          UBA       `json:"UBA"`
	Platforms    Platforms `json:"Platforms"`
	UAT          UAT       `json:"UAT"`

	path   string
	digest [blake2b.Size256]byte
}

// UBA configures Unreal Build Accelerator distribution.
type UBA struct {
	Enabled       Bool   `json:"Enabled"`
	CoordinatorIP String `json:"CoordinatorIP"`
}

// UnmarshalJSON treats a non-object value as an empty section.
func (u *UBA) UnmarshalJSON(b []byte) error {
	type plain UBA
	*u = UBA{}
	if !isObject(b) {
		return nil
	}
	return json.Unmarshal(b, (*plain)(u))
}

// On reports whether UBA is enabled. Anything but JSON true is off.
func (u UBA) On() bool { return u.Enabled.Or(false) }

// Platforms maps a platform name to its settings.
type Platforms map[string]Platform

// UnmarshalJSON treats a non-object value as no platforms.
func (p *Platforms) UnmarshalJSON(b []byte) error {
	*p = nil
	if !isObject(b) {
		return nil
	}
	var m map[string]Platform
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*p = m
	return nil
}

// Platform holds per-platform overrides.
type Platform struct {
	ExtraUATArgs Strings `json:"ExtraUATArgs"`
}

// UnmarshalJSON treats a non-object value as an empty platform entry.
func (p *Platform) UnmarshalJSON(b []byte) error {
	type plain Platform
	*p = Platform{}
	if !isObject(b) {
		return nil
	}
	return json.Unmarshal(b, (*plain)(p))
}

// UAT configures the automation tool invocation.
type UAT struct {
	ExtraArgs    Strings      `json:"ExtraArgs"`
	BuildCookRun BuildCookRun `json:"BuildCookRun"`
}

// UnmarshalJSON treats a non-object value as an empty section.
func (u *UAT) UnmarshalJSON(b []byte) error {
	type plain UAT
	*u = UAT{}
	if !isObject(b) {
		return nil
	}
	return json.Unmarshal(b, (*plain)(u))
}

// BuildCookRun selects the BuildCookRun steps. Every step is on unless
// explicitly set to false.
type BuildCookRun struct {
	Cook    Bool `json:"Cook"`
	Stage   Bool `json:"Stage"`
	Package Bool `json:"Package"`
	Archive Bool `json:"Archive"`
	Pak     Bool `json:"Pak"`
}

// UnmarshalJSON treats a non-object value as an empty section.
func (s *BuildCookRun) UnmarshalJSON(b []byte) error {
	type plain BuildCookRun
	*s = BuildCookRun{}
	if !isObject(b) {
		return nil
	}
	return json.Unmarshal(b, (*plain)(s))
}

// Path returns the file the config was loaded from.
func (c Config) Path() string { return c.path }

// Digest returns the hex blake2b-256 digest of the raw config bytes.
func (c Config) Digest() string { return hex.EncodeToString(c.digest[:]) }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and decodes the config at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes config bytes. path is used for error messages and Path.
func Parse(path string, data []byte) (Config, error) {
	body := bytes.TrimPrefix(data, utf8BOM)

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}
	if kind := jsonKind(raw); kind != "object" {
		return Config{}, &ShapeError{Path: path, Kind: kind}
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}
	cfg.path = path
	cfg.digest = blake2b.Sum256(data)
	return cfg, nil
}
