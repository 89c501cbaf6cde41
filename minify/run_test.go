package minify

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"csscover/common"
	"csscover/config"
	"csscover/state"
)

func runOptimize(t *testing.T, env func(*state.LocalEnv), stdin string, args ...string) (string, *state.LocalEnv, error) {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	e := state.EnvFromContext(ctx)
	e.Cfg = testConfig(1)
	e.Log = zaptest.NewLogger(t)
	if env != nil {
		env(e)
	}

	var stdout bytes.Buffer
	cmd := &cli.Command{
		Name:      "optimize",
		Reader:    strings.NewReader(stdin),
		Writer:    &stdout,
		ErrWriter: io.Discard,
		Flags:     Flags(),
		Action:    Run,
	}
	err := cmd.Run(ctx, append([]string{"optimize"}, args...))
	return stdout.String(), e, err
}

func TestRun_FileToFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "site.css"), "a { color: red }\nb { color: red }\n")
	out := filepath.Join(dir, "out", "site.min.css")

	stdout, _, err := runOptimize(t, nil, "", "-o", out, in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout != "" {
		t.Errorf("unexpected output on stdout: %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("destination was not written: %v", err)
	}
	if string(data) != "a,b{color:red}\n" {
		t.Errorf("result = %q", data)
	}
}

func TestRun_StdinToStdout(t *testing.T) {
	stdout, _, err := runOptimize(t, nil, "a{x:1}\na{y:2}\n", StdinSource)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout != "a{x:1;y:2}\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_NoSources(t *testing.T) {
	if _, _, err := runOptimize(t, nil, ""); err == nil || !strings.Contains(err.Error(), "no input sources") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRun_MissingSource(t *testing.T) {
	_, _, err := runOptimize(t, nil, "", filepath.Join(t.TempDir(), "missing.css"))
	if err == nil || !strings.Contains(err.Error(), "unable to load stylesheets") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRun_Overrides(t *testing.T) {
	_, env, err := runOptimize(t, nil, "a{x:1}",
		"--gzip", "5", "--compressor", "S2", "--seed", "42", "--generations", "3",
		"--population", "10", "--workers", "2", "--time-limit", "1m", StdinSource)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	opt, cost := env.Cfg.Optimizer, env.Cfg.Cost
	if cost.Level != 5 || cost.Compressor != common.CompressorS2 {
		t.Errorf("cost = %+v", cost)
	}
	if opt.Seed != 42 || opt.MaxGenerations != 3 || opt.PopulationSize != 10 || opt.Workers != 2 || opt.TimeLimit != time.Minute {
		t.Errorf("optimizer = %+v", opt)
	}
}

func TestRun_UnlimitedGenerations(t *testing.T) {
	stdout, env, err := runOptimize(t, nil, "a{color:red}\nb{color:red}\n", "--generations", "0", StdinSource)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.Cfg.Optimizer.MaxGenerations != 0 {
		t.Errorf("MaxGenerations = %d, want 0", env.Cfg.Optimizer.MaxGenerations)
	}
	if stdout != "a,b{color:red}\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_PopulationClampsElite(t *testing.T) {
	_, env, err := runOptimize(t, nil, "a{x:1}", "--population", "2", StdinSource)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.Cfg.Optimizer.EliteCount != 2 {
		t.Errorf("EliteCount = %d, want 2", env.Cfg.Optimizer.EliteCount)
	}
}

func TestRun_BadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--gzip", "10", StdinSource},
		{"--compressor", "lzma", StdinSource},
	} {
		if _, _, err := runOptimize(t, nil, "a{x:1}", args...); err == nil {
			t.Errorf("Run(%q) expected error", args)
		}
	}
}

func TestRun_Charset(t *testing.T) {
	raw, err := charmap.Windows1251.NewEncoder().String("a{content:\"ж\"}\nb{content:\"ж\"}\n")
	if err != nil {
		t.Fatal(err)
	}

	stdout, env, err := runOptimize(t, nil, raw, "--charset", "windows-1251", StdinSource)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.CodePage != charmap.Windows1251 {
		t.Errorf("CodePage = %v", env.CodePage)
	}
	if stdout != "a,b{content:\"ж\"}\n" {
		t.Errorf("stdout = %q", stdout)
	}

	_, env, err = runOptimize(t, nil, "a{x:1}", "--charset", "no-such-charset", StdinSource)
	if err != nil || env.CodePage != nil {
		t.Errorf("unknown charset: CodePage = %v, error = %v", env.CodePage, err)
	}
}

func TestRun_Report(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "site.css"), "a{color:red}\nb{color:red}\nc{color red}\n")
	dst := filepath.Join(dir, "report.zip")

	rpt, err := (&config.ReporterConfig{Destination: dst}).Prepare("run-1")
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = runOptimize(t, func(e *state.LocalEnv) { e.Rpt = rpt }, "", "-o", filepath.Join(dir, "out.css"), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	found := make(map[string]bool)
	for _, f := range zr.File {
		found[f.Name] = true
	}
	for _, name := range []string{"MANIFEST", "input/000-site.css", "result.css", "parsed.css", "covering.txt", "warnings.txt"} {
		if !found[name] {
			t.Errorf("report is missing %s, has %v", name, found)
		}
	}
}
