package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nimble-go/nimble/internal/config"
	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/internal/fetch"
	"github.com/nimble-go/nimble/pkg/route"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func errorCode(err error) string {
	var ne *errors.Error
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := out.String(); got != version+"\n" {
		t.Errorf("version --short = %q, want %q", got, version+"\n")
	}

	out.Reset()
	cmd = rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"nimble", "Version:", "Go version:", "OS/Arch:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("version output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDiffDocument(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "live.html", `<html><body><p id="a">old</p><span>gone</span></body></html>`)
	source := writeFile(t, dir, "fresh.html", `<html><body><p id="a" class="x">new</p></body></html>`)

	var out, errOut bytes.Buffer
	err := runDiff(context.Background(), &out, &errOut, fetch.New(), target, source, diffOptions{stats: true})
	if err != nil {
		t.Fatalf("runDiff() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, `class="x"`) || !strings.Contains(got, ">new</p>") {
		t.Errorf("result not patched:\n%s", got)
	}
	if strings.Contains(got, "gone") {
		t.Errorf("surplus node kept:\n%s", got)
	}
	if !strings.Contains(errOut.String(), "total") {
		t.Errorf("stats missing:\n%s", errOut.String())
	}
}

func TestDiffFragmentToFile(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "live.html", `<p>a</p>`)
	source := writeFile(t, dir, "fresh.html", `<p>b</p>`)
	dest := filepath.Join(dir, "out", "result.html")

	var out, errOut bytes.Buffer
	err := runDiff(context.Background(), &out, &errOut, fetch.New(), target, source, diffOptions{out: dest, fragment: true})
	if err != nil {
		t.Fatalf("runDiff() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<p>b</p>" {
		t.Errorf("stored = %q, want %q", data, "<p>b</p>")
	}
}

func TestDiffEqualTrees(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "a.html", `<ul><li>1</li></ul>`)
	source := writeFile(t, dir, "b.html", `<ul><li>1</li></ul>`)

	var out, errOut bytes.Buffer
	err := runDiff(context.Background(), &out, &errOut, fetch.New(), target, source, diffOptions{fragment: true, stats: true})
	if err != nil {
		t.Fatalf("runDiff() error = %v", err)
	}
	if !strings.Contains(errOut.String(), "already equal") {
		t.Errorf("stats = %q, want no mutations", errOut.String())
	}
}

func TestDiffMerge(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "a.html", `<p>x</p>`)
	source := writeFile(t, dir, "b.html", `<div>y</div>`)

	var out, errOut bytes.Buffer
	err := runDiff(context.Background(), &out, &errOut, fetch.New(), target, source, diffOptions{fragment: true, merge: true})
	if err != nil {
		t.Fatalf("runDiff() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "<div>y</div>" {
		t.Errorf("merge result = %q, want %q", got, "<div>y</div>")
	}
}

func TestDiffMissingInput(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "b.html", `<p>b</p>`)

	var out, errOut bytes.Buffer
	err := runDiff(context.Background(), &out, &errOut, fetch.New(), filepath.Join(dir, "missing.html"), source, diffOptions{})
	if code := errorCode(err); code != "N080" {
		t.Errorf("error code = %q (%v), want N080", code, err)
	}
}

func TestDiffArgs(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"diff", "only-one.html"})
	if err := cmd.Execute(); err == nil {
		t.Error("diff with one argument should fail")
	}
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"", "", false},
		{"debug", "json", false},
		{"warn", "text", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		err := setupLogging(&buf, tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("setupLogging(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
		if err != nil && errorCode(err) != "N100" {
			t.Errorf("setupLogging(%q, %q) code = %q, want N100", tt.level, tt.format, errorCode(err))
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := loadConfig(filepath.Join(dir, "nimble.yaml"))
	if code := errorCode(err); code != "N060" {
		t.Errorf("missing config code = %q, want N060", code)
	}

	bad := writeFile(t, dir, "bad.yaml", "routes:\n  - path: /\n    page: nowhere\n")
	_, err = loadConfig(bad)
	if code := errorCode(err); code != "N060" {
		t.Errorf("invalid config code = %q, want N060", code)
	}

	good := writeFile(t, dir, "nimble.yaml", "pages:\n  home:\n    template: home.html\nroutes:\n  - path: /\n    page: home\n")
	cfg, err := loadConfig(good)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Path() != good {
		t.Errorf("Path() = %q, want %q", cfg.Path(), good)
	}
}

func TestLoginGuard(t *testing.T) {
	g := loginGuard(config.AuthConfig{LoginPath: "/login", HomePath: "/", Cookie: "sid"})

	anon := httptest.NewRequest("GET", "/", nil)
	ok, redirect := g.DoActivate(route.WithRequest(context.Background(), anon), "", "/")
	if ok || redirect != "/login" {
		t.Errorf("anonymous = (%v, %q), want (false, /login)", ok, redirect)
	}

	signed := httptest.NewRequest("GET", "/", nil)
	signed.Header.Set("Cookie", "sid=abc")
	ok, _ = g.DoActivate(route.WithRequest(context.Background(), signed), "", "/")
	if !ok {
		t.Error("signed-in visitor refused")
	}

	ok, _ = g.DoActivate(context.Background(), "", "/")
	if ok {
		t.Error("visitor without request admitted")
	}
}
