package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLookupPlugin(t *testing.T) {
	tmp := t.TempDir()
	script := writeScript(t, tmp, "pix-dedupe", "exit 0", 0755)
	writeScript(t, tmp, "pix-index", "exit 0", 0755)
	t.Setenv("PATH", tmp+string(os.PathListSeparator)+os.Getenv("PATH"))

	root := NewRootCmd("dev", testApp())

	p, ok := lookupPlugin(root, []string{"dedupe", "--dry-run"})
	if !ok {
		t.Fatal("expected pix-dedupe to be found")
	}
	if p.name != "dedupe" || p.path != script {
		t.Errorf("unexpected plugin %+v", p)
	}

	for _, args := range [][]string{
		{"index", "."},
		{"help"},
		{"--json"},
		{"nonexistent-plugin-12345"},
		nil,
	} {
		if _, ok := lookupPlugin(root, args); ok {
			t.Errorf("lookupPlugin(%q) should not resolve a plugin", args)
		}
	}
}

func TestPluginRunPassesEnv(t *testing.T) {
	tmp := t.TempDir()
	outFile := filepath.Join(tmp, "out")
	script := writeScript(t, tmp, "pix-env", `echo "$PIX_VERSION $PIX_CONFIG $1" > "$2"`, 0755)
	t.Setenv("PIX_CONFIG", "/etc/pix.yaml")

	p := plugin{name: "env", path: script}
	if err := p.run(context.Background(), []string{"hello", outFile}, "1.2.3"); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "1.2.3 /etc/pix.yaml hello" {
		t.Errorf("unexpected plugin output %q", got)
	}
}

func TestPluginEnvSetsConfigPath(t *testing.T) {
	t.Setenv("PIX_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var version, config string
	for _, e := range pluginEnv("9.9.9") {
		if v, ok := strings.CutPrefix(e, "PIX_VERSION="); ok {
			version = v
		}
		if v, ok := strings.CutPrefix(e, "PIX_CONFIG="); ok && v != "" {
			config = v
		}
	}

	if version != "9.9.9" {
		t.Errorf("expected PIX_VERSION=9.9.9, got %q", version)
	}
	if filepath.Base(config) != "config.yaml" {
		t.Errorf("expected resolved config path, got %q", config)
	}
}

func TestPluginsCmd(t *testing.T) {
	tmp := t.TempDir()
	writeScript(t, tmp, "pix-zeta", "exit 0", 0755)
	writeScript(t, tmp, "pix-alpha", "exit 0", 0755)
	writeScript(t, tmp, "pix-noexec", "exit 0", 0644)
	writeScript(t, tmp, "other-tool", "exit 0", 0755)
	t.Setenv("PATH", tmp)

	out, err := execute(t, testApp(), "plugins")
	if err != nil {
		t.Fatalf("plugins: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two plugins, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "alpha\t") || !strings.HasPrefix(lines[1], "zeta\t") {
		t.Errorf("expected sorted plugin list, got:\n%s", out)
	}
}

func TestPluginsCmdNone(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	out, err := execute(t, testApp(), "plugins")
	if err != nil {
		t.Fatalf("plugins: %v", err)
	}
	if !strings.Contains(out, "No pix-* plugins") {
		t.Errorf("unexpected output %q", out)
	}
}
