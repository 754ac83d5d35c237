package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sysdream/fino/macro"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[server]
addr = ":9000"
codec = "json"

[macros]
dir = "store"
allowed-kinds = ["script"]
denied-digests = ["abc"]

[log]
verbosity = 2
file = "fino.log"
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Server.Addr != ":9000" {
		t.Errorf("server addr = %q, want :9000", c.Server.Addr)
	}
	codec, err := c.Codec()
	if err != nil || codec.Name() != "json" {
		t.Errorf("codec = %v, %v, want json", codec, err)
	}
	if got := c.MacroDir(); got != filepath.Join(c.Dir, "store") {
		t.Errorf("macro dir = %q", got)
	}
	if c.Log.Verbosity != 2 || c.Log.File != "fino.log" {
		t.Errorf("log = %+v", c.Log)
	}

	p, err := c.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if err := p.Check(macro.Unit{Kind: macro.KindScript, Digest: "def"}); err != nil {
		t.Errorf("script unit rejected: %v", err)
	}
	if err := p.Check(macro.Unit{Kind: macro.KindPlugin, Digest: "def"}); !errors.Is(err, macro.ErrUntrusted) {
		t.Errorf("plugin unit: err = %v, want ErrUntrusted", err)
	}
	if err := p.Check(macro.Unit{Kind: macro.KindScript, Digest: "abc"}); !errors.Is(err, macro.ErrUntrusted) {
		t.Errorf("denied digest: err = %v, want ErrUntrusted", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Server.Addr != "127.0.0.1:7700" {
		t.Errorf("server addr = %q", c.Server.Addr)
	}
	if c.Server.Codec != "cbor" {
		t.Errorf("codec = %q, want cbor", c.Server.Codec)
	}
	if got := c.MacroDir(); got != filepath.Join(c.Dir, ".fino", "macros") {
		t.Errorf("macro dir = %q", got)
	}
	p, err := c.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if err := p.Check(macro.Unit{Kind: macro.KindPlugin}); err != nil {
		t.Errorf("default policy should allow everything: %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing fino.toml")
	}

	dir := t.TempDir()
	writeConfig(t, dir, "[server\naddr =")
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}

	dir = t.TempDir()
	writeConfig(t, dir, "[macros]\nallowed-kinds = [\"binary\"]\n")
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := c.Policy(); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[server]\naddr = \":1234\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c == nil || c.Server.Addr != ":1234" {
		t.Fatalf("FindAndLoad = %+v", c)
	}
	abs, _ := filepath.Abs(root)
	if c.Dir != abs {
		t.Errorf("dir = %q, want %q", c.Dir, abs)
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Dir != "" {
		t.Errorf("dir = %q, want empty", c.Dir)
	}
	if got := c.MacroDir(); got != filepath.Join(".fino", "macros") {
		t.Errorf("macro dir = %q", got)
	}
}
