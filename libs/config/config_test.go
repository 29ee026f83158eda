package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIntFallbacks(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	if got := Int("CFG_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("CFG_TEST_INT", "nope")
	if got := Int("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("CFG_TEST_INT", "-3")
	if got := PositiveInt("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7 for negative value, got %d", got)
	}
}

func TestSecondsAndList(t *testing.T) {
	t.Setenv("CFG_TEST_SECONDS", "15")
	if got := Seconds("CFG_TEST_SECONDS", time.Second); got != 15*time.Second {
		t.Fatalf("expected 15s, got %s", got)
	}
	t.Setenv("CFG_TEST_LIST", " a, ,b ,c")
	got := List("CFG_TEST_LIST", "")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestPortValidation(t *testing.T) {
	t.Setenv("CFG_TEST_PORT", "70000")
	if _, err := Port("CFG_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CFG_TEST_DOTENV=from-file\nCFG_TEST_PRESET=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFG_TEST_PRESET", "from-env")
	// t.Setenv restores the value afterwards; unset the loaded key the same way.
	t.Setenv("CFG_TEST_DOTENV", "")
	_ = os.Unsetenv("CFG_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("CFG_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CFG_TEST_PRESET"); got != "from-env" {
		t.Fatalf("existing env must win, got %q", got)
	}
}
