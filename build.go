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

/*
uebuild Build Automation

Builds, tests and packages the uebuild SDK.

Usage:
    go run build.go                    # Full validation pipeline
    go run build.go test               # Run tests only
    go run build.go coverage           # Run tests with coverage
    go run build.go fmt                # Check formatting (gofmt -l)
    go run build.go vet                # Static analysis
    go run build.go build              # Build uebuild for the host
    go run build.go build-all          # Build for every supported platform
    go run build.go sdk                # Stage a drop-in Build/ directory
    go run build.go clean              # Remove build artifacts
    go run build.go --platform windows/amd64 sdk
*/

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorBlue   = "\033[94m"
	colorCyan   = "\033[96m"
)

// SupportedPlatform is a GOOS/GOARCH pair the SDK ships for. Build machines
// running UE are Windows, macOS (iOS signing) and Linux.
type SupportedPlatform struct {
	GOOS   string
	GOARCH string
}

var supportedPlatforms = []SupportedPlatform{
	{"windows", "amd64"},
	{"linux", "amd64"},
	{"darwin", "arm64"},
	{"darwin", "amd64"},
}

// BuildInfo is written next to staged binaries.
type BuildInfo struct {
	Timestamp string `json:"timestamp"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit"`
	GitDirty  bool   `json:"git_dirty"`
	Target    string `json:"target"`
}

// BuildRunner manages the build process
type BuildRunner struct {
	rootDir   string
	buildDir  string
	startTime time.Time
}

func NewBuildRunner() (*BuildRunner, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return &BuildRunner{
		rootDir:   wd,
		buildDir:  filepath.Join(wd, "dist"),
		startTime: time.Now(),
	}, nil
}

func (br *BuildRunner) printHeader(title string) {
	fmt.Printf("\n%s%s%s%s\n", colorBold, colorBlue, strings.Repeat("=", 60), colorReset)
	fmt.Printf("%s%s %s%s\n", colorBold, colorBlue, title, colorReset)
	fmt.Printf("%s%s%s%s\n\n", colorBold, colorBlue, strings.Repeat("=", 60), colorReset)
}

func (br *BuildRunner) printStep(step string) {
	fmt.Printf("%s%s→%s %s\n", colorBold, colorCyan, colorReset, step)
}

func (br *BuildRunner) printSuccess(message string) {
	fmt.Printf("%s%s✓%s %s\n", colorBold, colorGreen, colorReset, message)
}

func (br *BuildRunner) printError(message string) {
	fmt.Printf("%s%s✗%s %s\n", colorBold, colorRed, colorReset, message)
}

func (br *BuildRunner) printWarning(message string) {
	fmt.Printf("%s%s⚠%s %s\n", colorBold, colorYellow, colorReset, message)
}

// runCommand executes a command and returns exit code, stdout, and stderr.
// extraEnv is appended to the inherited environment.
func (br *BuildRunner) runCommand(name string, args []string, extraEnv []string, check bool) (int, string, string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = br.rootDir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return 1, "", "", fmt.Errorf("command failed: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	if check && exitCode != 0 {
		br.printError(fmt.Sprintf("Command failed: %s %s", name, strings.Join(args, " ")))
		if stdout.Len() > 0 {
			fmt.Printf("STDOUT:\n%s\n", stdout.String())
		}
		if stderr.Len() > 0 {
			fmt.Printf("STDERR:\n%s\n", stderr.String())
		}
	}
	return exitCode, stdout.String(), stderr.String(), nil
}

func (br *BuildRunner) CheckPrerequisites() bool {
	br.printStep("Checking prerequisites")

	exitCode, stdout, _, err := br.runCommand("go", []string{"version"}, nil, false)
	if err != nil || exitCode != 0 {
		br.printError("Go is not installed or not in PATH")
		return false
	}
	br.printSuccess(fmt.Sprintf("Found %s", strings.TrimSpace(stdout)))

	if _, err := os.Stat(filepath.Join(br.rootDir, "go.mod")); os.IsNotExist(err) {
		br.printError("go.mod not found - not in a Go module directory")
		return false
	}
	return true
}

func (br *BuildRunner) Clean() bool {
	br.printStep("Cleaning build artifacts")
	for _, path := range []string{br.buildDir, "coverage.out", "coverage.html"} {
		if !filepath.IsAbs(path) {
			path = filepath.Join(br.rootDir, path)
		}
		if err := os.RemoveAll(path); err != nil {
			br.printError(fmt.Sprintf("Failed to remove %s: %v", path, err))
			return false
		}
	}
	br.printSuccess("Clean complete")
	return true
}

// CheckFormat fails when gofmt would change any file.
func (br *BuildRunner) CheckFormat() bool {
	br.printStep("Checking formatting")
	exitCode, stdout, _, _ := br.runCommand("gofmt", []string{"-l", "cmd", "internal"}, nil, true)
	if exitCode != 0 {
		return false
	}
	if files := strings.TrimSpace(stdout); files != "" {
		br.printError("Files need gofmt:\n" + files)
		return false
	}
	br.printSuccess("Formatting OK")
	return true
}

func (br *BuildRunner) Vet() bool {
	br.printStep("Running go vet")
	if exitCode, _, _, _ := br.runCommand("go", []string{"vet", "./..."}, nil, true); exitCode != 0 {
		return false
	}
	br.printSuccess("Static analysis passed (go vet)")
	return true
}

func (br *BuildRunner) RunTests(withCoverage bool) bool {
	br.printStep("Running tests")

	args := []string{"test"}
	if withCoverage {
		args = append(args, "-coverprofile=coverage.out")
	}
	args = append(args, "./...")

	if exitCode, _, _, _ := br.runCommand("go", args, nil, true); exitCode != 0 {
		return false
	}
	br.printSuccess("All tests passed")

	if withCoverage {
		exitCode, stdout, _, _ := br.runCommand("go", []string{"tool", "cover", "-func=coverage.out"}, nil, false)
		if exitCode == 0 {
			for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
				if strings.HasPrefix(line, "total:") {
					fields := strings.Fields(line)
					br.printSuccess("Test coverage: " + fields[len(fields)-1])
				}
			}
		}
	}
	return true
}

func binaryName(goos string) string {
	if goos == "windows" {
		return "uebuild.exe"
	}
	return "uebuild"
}

// BuildBinary builds cmd/uebuild for goos/goarch into outPath.
func (br *BuildRunner) BuildBinary(goos, goarch, outPath string) bool {
	br.printStep(fmt.Sprintf("Building uebuild for %s/%s", goos, goarch))

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		br.printError(fmt.Sprintf("Failed to create output directory: %v", err))
		return false
	}
	args := []string{"build", "-trimpath", "-ldflags", "-s -w", "-o", outPath, "./cmd/uebuild"}
	env := []string{"GOOS=" + goos, "GOARCH=" + goarch, "CGO_ENABLED=0"}
	if exitCode, _, _, _ := br.runCommand("go", args, env, true); exitCode != 0 {
		return false
	}

	info, err := os.Stat(outPath)
	if err != nil {
		br.printError("Binary was not created")
		return false
	}
	br.printSuccess(fmt.Sprintf("Built: %s (%.1f MB)", outPath, float64(info.Size())/(1024*1024)))
	return true
}

func (br *BuildRunner) BuildAllPlatforms() bool {
	br.printHeader("Building for all supported platforms")
	ok := true
	for _, p := range supportedPlatforms {
		out := filepath.Join(br.buildDir, fmt.Sprintf("uebuild-%s-%s", p.GOOS, p.GOARCH), binaryName(p.GOOS))
		if !br.BuildBinary(p.GOOS, p.GOARCH, out) {
			ok = false
		}
	}
	return ok
}

// StageSDK lays out dist/<target>/Build the way a project expects it:
// Tools/uebuild, Templates/BuildConfig.template.json and an empty Hooks
// directory. The result can be copied into a project root as-is.
func (br *BuildRunner) StageSDK(goos, goarch string) bool {
	target := goos + "-" + goarch
	br.printHeader("Staging SDK for " + target)

	sdk := filepath.Join(br.buildDir, target, "Build")
	if err := os.RemoveAll(sdk); err != nil {
		br.printError(fmt.Sprintf("Failed to reset %s: %v", sdk, err))
		return false
	}
	if !br.BuildBinary(goos, goarch, filepath.Join(sdk, "Tools", binaryName(goos))) {
		return false
	}

	template := filepath.Join(br.rootDir, "internal", "assets", "templates", "BuildConfig.template.json")
	if err := copyFile(template, filepath.Join(sdk, "Templates", "BuildConfig.template.json")); err != nil {
		br.printError(fmt.Sprintf("Failed to copy config template: %v", err))
		return false
	}
	if err := os.MkdirAll(filepath.Join(sdk, "Hooks"), 0o755); err != nil {
		br.printError(fmt.Sprintf("Failed to create Hooks directory: %v", err))
		return false
	}

	br.writeBuildInfo(filepath.Join(sdk, "Tools", "build-info.json"), target)
	br.printSuccess("SDK staged: " + sdk)
	return true
}

func (br *BuildRunner) writeBuildInfo(path, target string) {
	info := BuildInfo{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		GoVersion: runtime.Version(),
		GitCommit: "unknown",
		Target:    target,
	}
	if exitCode, stdout, _, _ := br.runCommand("git", []string{"rev-parse", "--short=8", "HEAD"}, nil, false); exitCode == 0 {
		info.GitCommit = strings.TrimSpace(stdout)
	}
	if exitCode, stdout, _, _ := br.runCommand("git", []string{"status", "--porcelain"}, nil, false); exitCode == 0 {
		info.GitDirty = strings.TrimSpace(stdout) != ""
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		br.printWarning(fmt.Sprintf("Failed to write build info: %v", err))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (br *BuildRunner) Validate() bool {
	br.printHeader("uebuild Build & Test Validation")

	steps := []struct {
		name string
		fn   func() bool
	}{
		{"Prerequisites", br.CheckPrerequisites},
		{"Format", br.CheckFormat},
		{"Vet", br.Vet},
		{"Tests", func() bool { return br.RunTests(true) }},
		{"Build", func() bool {
			return br.BuildBinary(runtime.GOOS, runtime.GOARCH, filepath.Join(br.buildDir, binaryName(runtime.GOOS)))
		}},
	}
	for _, step := range steps {
		if !step.fn() {
			br.printError(fmt.Sprintf("Step '%s' failed", step.name))
			return false
		}
	}
	return true
}

func (br *BuildRunner) PrintSummary(success bool) {
	br.printHeader("Build Summary")

	status, color := "SUCCESS", colorGreen
	if !success {
		status, color = "FAILED", colorRed
	}
	fmt.Printf("Status: %s%s%s%s\n", colorBold, color, status, colorReset)
	fmt.Printf("Time: %.1fs\n", time.Since(br.startTime).Seconds())
}

func main() {
	var platformFlag string
	flag.StringVar(&platformFlag, "platform", "", "Target platform in the form os/arch (e.g., windows/amd64)")
	flag.Parse()

	command := "validate"
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
	}

	goos, goarch := runtime.GOOS, runtime.GOARCH
	if platformFlag != "" {
		parts := strings.Split(platformFlag, "/")
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "--platform must be in the form os/arch, e.g., windows/amd64\n")
			os.Exit(1)
		}
		goos, goarch = parts[0], parts[1]
	}

	runner, err := NewBuildRunner()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize build runner: %v\n", err)
		os.Exit(1)
	}

	var success bool
	switch command {
	case "clean":
		success = runner.Clean()
	case "fmt":
		success = runner.CheckFormat()
	case "vet":
		success = runner.CheckPrerequisites() && runner.Vet()
	case "test":
		success = runner.CheckPrerequisites() && runner.RunTests(false)
	case "coverage":
		success = runner.CheckPrerequisites() && runner.RunTests(true)
	case "build":
		success = runner.CheckPrerequisites() &&
			runner.BuildBinary(goos, goarch, filepath.Join(runner.buildDir, binaryName(goos)))
	case "build-all":
		success = runner.CheckPrerequisites() && runner.BuildAllPlatforms()
	case "sdk":
		success = runner.CheckPrerequisites() && runner.StageSDK(goos, goarch)
	case "validate":
		success = runner.Validate()
	default:
		fmt.Fprintf(os.Stderr, "Invalid command: %s\n", command)
		fmt.Fprintf(os.Stderr, "Valid commands: build, build-all, sdk, test, coverage, fmt, vet, clean, validate\n")
		os.Exit(1)
	}

	runner.PrintSummary(success)
	if !success {
		os.Exit(1)
	}
}
