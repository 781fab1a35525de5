// Package preflight checks the host before the server starts: Go runtime
// version, model weights, detection runtime, and the storage directories.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/mod/semver"

	"inspector/internal/common/fsutil"
	"inspector/internal/config"
	"inspector/internal/detector"
)

// Check is the outcome of one preflight step.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Options control a preflight run. Zero-valued hooks use the real environment.
type Options struct {
	Config config.Config
	Out    io.Writer
	// AssumeYes runs the install command without asking.
	AssumeYes bool
	// GoVersion overrides runtime.Version().
	GoVersion string
	// Confirm asks the operator a yes/no question.
	Confirm func(prompt string) (bool, error)
	// RunCommand executes the install command.
	RunCommand func(ctx context.Context, command string, out io.Writer) error
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✔")
	failMark = color.New(color.FgRed).Sprint("✘")
	warnMark = color.New(color.FgYellow).Sprint("!")
)

// Run performs every check in order and creates the storage directories.
// It returns an error describing the first blocking failure.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config.WithDefaults()
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	goVersion := opts.GoVersion
	if goVersion == "" {
		goVersion = runtime.Version()
	}

	color.New(color.Bold).Fprintln(out, "inspector preflight")
	gv := CheckGoVersion(goVersion, cfg.MinGoVersion)
	report(out, gv)
	if !gv.OK {
		return errors.New(gv.Detail)
	}
	fmt.Fprintf(out, "  system: %s/%s, %d CPUs\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

	model := CheckModel(cfg)
	report(out, model)
	if !model.OK {
		return errors.New(model.Detail)
	}

	missing := MissingDependencies(cfg)
	for _, m := range missing {
		report(out, Check{Name: "dependency", Detail: m})
	}
	if len(missing) > 0 {
		if err := install(ctx, cfg, opts, out, missing); err != nil {
			return err
		}
		if still := MissingDependencies(cfg); len(still) > 0 {
			return fmt.Errorf("missing dependencies: %s", strings.Join(still, "; "))
		}
	} else {
		report(out, Check{Name: "dependencies", OK: true, Detail: detector.CanonicalBackend(cfg.Backend) + " runtime available"})
	}

	if err := fsutil.EnsureDirs(cfg.UploadsDir, cfg.ResultsDir); err != nil {
		return err
	}
	report(out, Check{Name: "directories", OK: true, Detail: cfg.UploadsDir + "/, " + cfg.ResultsDir + "/"})
	return nil
}

// CheckGoVersion compares a runtime.Version() string against min (e.g. "go1.21").
// Development toolchains always pass.
func CheckGoVersion(version, min string) Check {
	c := Check{Name: "go version"}
	v := toSemver(version)
	if v == "" {
		c.OK = true
		c.Detail = version + " (unversioned toolchain)"
		return c
	}
	m := toSemver(min)
	if m != "" && semver.Compare(v, m) < 0 {
		c.Detail = fmt.Sprintf("%s is older than required %s", version, min)
		return c
	}
	c.OK = true
	c.Detail = version
	return c
}

// CheckModel reports whether the weights (and optional classes file) are present.
func CheckModel(cfg config.Config) Check {
	r := detector.SanityCheck(detectorConfig(cfg))
	c := Check{Name: "model file"}
	if !r.ModelFound {
		c.Detail = r.Error
		return c
	}
	if cfg.ClassesPath != "" && !r.ClassesFound {
		c.Detail = r.Error
		return c
	}
	c.OK = true
	c.Detail = fmt.Sprintf("%s (%.1fMB)", r.ModelPath, float64(r.ModelSizeBytes)/(1<<20))
	return c
}

// MissingDependencies lists what the configured backend needs but cannot find.
func MissingDependencies(cfg config.Config) []string {
	var missing []string
	name := detector.CanonicalBackend(cfg.Backend)
	switch {
	case name == "":
		missing = append(missing, "unknown backend "+cfg.Backend)
	case !detector.BackendBuilt(name):
		missing = append(missing, name+" support not compiled in (rebuild with -tags="+buildTag(name)+")")
	}
	if name == detector.BackendONNXRuntime && cfg.ONNXRuntimeLib != "" && !fsutil.PathExists(cfg.ONNXRuntimeLib) {
		missing = append(missing, "onnxruntime library not found at "+cfg.ONNXRuntimeLib)
	}
	return missing
}

// LocalIP returns the address used for outbound traffic, or "localhost".
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()
	if a, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return a.IP.String()
	}
	return "localhost"
}

// PrintAccessInfo prints where the server can be reached.
func PrintAccessInfo(out io.Writer, addr string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		port = addr
	}
	line := strings.Repeat("=", 60)
	fmt.Fprintln(out, line)
	fmt.Fprintf(out, "  local:   http://localhost:%s\n", port)
	fmt.Fprintf(out, "  network: http://%s:%s\n", LocalIP(), port)
	fmt.Fprintln(out, "  press Ctrl+C to stop")
	fmt.Fprintln(out, line)
}

func install(ctx context.Context, cfg config.Config, opts Options, out io.Writer, missing []string) error {
	if cfg.InstallCommand == "" {
		return fmt.Errorf("missing dependencies: %s (no install_command configured)", strings.Join(missing, "; "))
	}
	ok := opts.AssumeYes
	if !ok {
		confirm := opts.Confirm
		if confirm == nil {
			confirm = terminalConfirm
		}
		var err error
		ok, err = confirm(fmt.Sprintf("Run %q to install missing dependencies?", cfg.InstallCommand))
		if err != nil {
			return fmt.Errorf("confirm install: %w", err)
		}
	}
	if !ok {
		return fmt.Errorf("missing dependencies: %s", strings.Join(missing, "; "))
	}
	run := opts.RunCommand
	if run == nil {
		run = shellCommand
	}
	fmt.Fprintf(out, "  %s running %s\n", warnMark, cfg.InstallCommand)
	if err := run(ctx, cfg.InstallCommand, out); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	report(out, Check{Name: "install", OK: true, Detail: "completed"})
	return nil
}

// terminalConfirm prompts on an interactive terminal and declines otherwise.
func terminalConfirm(prompt string) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, nil
	}
	var ok bool
	err := huh.NewConfirm().Title(prompt).Affirmative("Yes").Negative("No").Value(&ok).Run()
	return ok, err
}

func shellCommand(ctx context.Context, command string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

func report(out io.Writer, c Check) {
	mark := failMark
	if c.OK {
		mark = okMark
	}
	fmt.Fprintf(out, "  %s %-13s %s\n", mark, c.Name, c.Detail)
}

func toSemver(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "go")
	if v == "" || !(v[0] >= '0' && v[0] <= '9') {
		return ""
	}
	// drop prerelease suffixes like "1.22rc1" that semver cannot order the Go way
	if i := strings.IndexAny(v, "abcdefghijklmnopqrstuvwxyz "); i >= 0 {
		v = v[:i]
	}
	sv := "v" + v
	if !semver.IsValid(sv) {
		return ""
	}
	return sv
}

func buildTag(backend string) string {
	if backend == detector.BackendOpenCV {
		return "opencv"
	}
	return "onnx"
}

func detectorConfig(cfg config.Config) detector.Config {
	return detector.Config{
		ModelPath:   cfg.ModelPath,
		ClassesPath: cfg.ClassesPath,
		Backend:     cfg.Backend,
		LibraryPath: cfg.ONNXRuntimeLib,
	}
}
