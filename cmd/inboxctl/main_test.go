package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "inboxctl dev") {
		t.Errorf("expected output to contain 'inboxctl dev', got: %s", out)
	}
}

func TestTemplatesVars(t *testing.T) {
	out, err := run(t, "templates", "vars", "Hi {{name}}, {{name}} owes {{amount}}")
	if err != nil {
		t.Fatalf("vars command failed: %v", err)
	}
	if out != "name\nname\namount\n" {
		t.Errorf("unexpected vars output: %q", out)
	}

	out, err = run(t, "templates", "vars", "--unique", "Hi {{name}}, {{name}} owes {{amount}}")
	if err != nil {
		t.Fatalf("vars --unique command failed: %v", err)
	}
	if out != "name\namount\n" {
		t.Errorf("unexpected unique vars output: %q", out)
	}
}

func TestTemplatesRender(t *testing.T) {
	out, err := run(t, "templates", "render", "--id", "5", "--var", "customerName=Ana")
	if err != nil {
		t.Fatalf("render command failed: %v", err)
	}
	if !strings.HasPrefix(out, "Hi Ana! Thanks for reaching out.") {
		t.Errorf("unexpected render output: %q", out)
	}
}

func TestTemplatesRenderUnknownID(t *testing.T) {
	if _, err := run(t, "templates", "render", "--id", "99"); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestParseVars(t *testing.T) {
	values, err := parseVars([]string{"a=1", "b=x=y", "c="})
	if err != nil {
		t.Fatalf("parseVars: %v", err)
	}
	if values["a"] != "1" || values["b"] != "x=y" || values["c"] != "" {
		t.Errorf("unexpected values: %v", values)
	}

	if _, err := parseVars([]string{"novalue"}); err == nil {
		t.Error("expected error for pair without '='")
	}
	if _, err := parseVars([]string{"=1"}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestSeedCheckBuiltIn(t *testing.T) {
	out, err := run(t, "seed", "check")
	if err != nil {
		t.Fatalf("seed check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok: 4 conversations, 5 templates") {
		t.Errorf("unexpected seed check output: %s", out)
	}
}

func TestSnapshotSeedAndShow(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "inbox.db")

	out, err := run(t, "snapshot", "seed", "--dsn", dsn)
	if err != nil {
		t.Fatalf("snapshot seed failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "saved 4 conversations, 5 templates") {
		t.Errorf("unexpected snapshot seed output: %s", out)
	}

	out, err = run(t, "snapshot", "show", "--dsn", dsn)
	if err != nil {
		t.Fatalf("snapshot show failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Sarah Johnson") || !strings.Contains(out, "template 5") {
		t.Errorf("unexpected snapshot show output: %s", out)
	}
}
