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


// Package ubaconfig writes the Unreal Build Accelerator coordinator address
// into UnrealBuildTool's per-user BuildConfiguration.xml.
package ubaconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// Namespace is the XML namespace of BuildConfiguration.xml.
const Namespace = "https://www.unrealengine.com/BuildConfiguration"

// DefaultPath returns the per-user BuildConfiguration.xml location for goos.
// Windows reads %APPDATA%; other hosts resolve under home.
func DefaultPath(goos string, getenv func(string) string, home string) (string, error) {
	switch goos {
	case "windows":
		appdata := getenv("APPDATA")
		if appdata == "" {
			return "", errors.New("APPDATA is not set")
		}
		return filepath.Join(appdata, "Unreal Engine", "UnrealBuildTool", "BuildConfiguration.xml"), nil
	case "darwin":
		if home == "" {
			return "", errors.New("home directory is unknown")
		}
		return filepath.Join(home, "Library", "Application Support", "Epic", "UnrealBuildTool", "BuildConfiguration.xml"), nil
	default:
		if home == "" {
			return "", errors.New("home directory is unknown")
		}
		return filepath.Join(home, ".config", "Epic", "UnrealBuildTool", "BuildConfiguration.xml"), nil
	}
}

// Inject sets Configuration/UnrealBuildAccelerator/Coordinator to ip in the
// XML file at path, creating the file and any missing elements. Other
// settings in an existing file are preserved.
func Inject(path, ip string) error {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return errors.New("coordinator address is empty")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc = newDocument()
	}
	root := doc.Root()
	if root == nil {
		doc = newDocument()
		root = doc.Root()
	}

	uba := findOrCreate(root, "UnrealBuildAccelerator")
	findOrCreate(uba, "Coordinator").SetText(ip)

	doc.Indent(2)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Coordinator returns the coordinator currently configured in the file.
func Coordinator(path string) (string, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return "", false, nil
	}
	uba := root.SelectElement("UnrealBuildAccelerator")
	if uba == nil {
		return "", false, nil
	}
	c := uba.SelectElement("Coordinator")
	if c == nil {
		return "", false, nil
	}
	return strings.TrimSpace(c.Text()), true, nil
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("Configuration")
	root.CreateAttr("xmlns", Namespace)
	return doc
}

func findOrCreate(parent *etree.Element, tag string) *etree.Element {
	if el := parent.SelectElement(tag); el != nil {
		return el
	}
	return parent.CreateElement(tag)
}
