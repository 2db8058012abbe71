package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
KEY1=value1
KEY2="quoted value"
KEY3='single quoted'
# Comment
KEY4=value4
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{"KEY1", "KEY2", "KEY3", "KEY4"} {
		os.Unsetenv(k)
		defer os.Unsetenv(k)
	}

	if err := loadEnvFile(envFile); err != nil {
		t.Fatalf("loadEnvFile failed: %v", err)
	}

	if os.Getenv("KEY1") != "value1" {
		t.Errorf("KEY1 not set correctly: %s", os.Getenv("KEY1"))
	}
	if os.Getenv("KEY2") != "quoted value" {
		t.Errorf("KEY2 not set correctly: %s", os.Getenv("KEY2"))
	}
	if os.Getenv("KEY3") != "single quoted" {
		t.Errorf("KEY3 not set correctly: %s", os.Getenv("KEY3"))
	}
	if os.Getenv("KEY4") != "value4" {
		t.Errorf("KEY4 not set correctly: %s", os.Getenv("KEY4"))
	}
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	if err := os.WriteFile(envFile, []byte(`EXISTING_KEY=new_value`), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EXISTING_KEY", "original_value")

	if err := loadEnvFile(envFile); err != nil {
		t.Fatalf("loadEnvFile failed: %v", err)
	}

	if os.Getenv("EXISTING_KEY") != "original_value" {
		t.Error("loadEnvFile should not override existing env vars")
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"PLAIN=value", "PLAIN", "value", true},
		{"export EXPORTED=yes", "EXPORTED", "yes", true},
		{"SPACED = padded ", "SPACED", "padded", true},
		{"COMMENTED=10m # snooze", "COMMENTED", "10m", true},
		{`QUOTED="keep # this"`, "QUOTED", "keep # this", true},
		{"EMPTY=", "EMPTY", "", true},
		{"# comment", "", "", false},
		{"no equals sign", "", "", false},
		{"=orphan", "", "", false},
	}

	for _, tt := range tests {
		key, value, ok := parseEnvLine(tt.line)
		if ok != tt.ok || key != tt.key || value != tt.value {
			t.Errorf("parseEnvLine(%q) = %q, %q, %v; want %q, %q, %v", tt.line, key, value, ok, tt.key, tt.value, tt.ok)
		}
	}
}

func TestLoadEnvFiles_ExplicitFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "custom.env")
	if err := os.WriteFile(envFile, []byte("MEDREMIND_TEST_EXPLICIT=1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDREMIND_ENV_FILE", envFile)
	t.Setenv("MEDREMIND_TEST_EXPLICIT", "")

	if err := LoadEnvFiles(); err != nil {
		t.Fatalf("LoadEnvFiles failed: %v", err)
	}
	if os.Getenv("MEDREMIND_TEST_EXPLICIT") != "1" {
		t.Errorf("explicit env file not loaded")
	}
}

func TestGetEnvDefault(t *testing.T) {
	os.Unsetenv("DEFAULT_KEY")

	if result := GetEnvDefault("DEFAULT_KEY", "fallback"); result != "fallback" {
		t.Errorf("Expected fallback, got %s", result)
	}

	t.Setenv("DEFAULT_KEY", "actual")

	if result := GetEnvDefault("DEFAULT_KEY", "fallback"); result != "actual" {
		t.Errorf("Expected actual, got %s", result)
	}
}

func TestResolveEnvWithAliases(t *testing.T) {
	t.Setenv("MEDREMIND_AUTH_JWT_SECRET", "")
	t.Setenv("MEDREMIND_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	if result := ResolveEnvWithAliases("MEDREMIND_AUTH_JWT_SECRET"); result != "" {
		t.Error("Expected empty when no keys set")
	}

	t.Setenv("JWT_SECRET", "generic")
	if result := ResolveEnvWithAliases("MEDREMIND_AUTH_JWT_SECRET"); result != "generic" {
		t.Errorf("Expected generic from alias, got %s", result)
	}

	t.Setenv("MEDREMIND_JWT_SECRET", "short")
	if result := ResolveEnvWithAliases("MEDREMIND_AUTH_JWT_SECRET"); result != "short" {
		t.Errorf("Expected short from first alias, got %s", result)
	}

	t.Setenv("MEDREMIND_AUTH_JWT_SECRET", "canonical")
	if result := ResolveEnvWithAliases("MEDREMIND_AUTH_JWT_SECRET"); result != "canonical" {
		t.Errorf("Expected canonical, got %s", result)
	}
}

func BenchmarkLoadEnvFile(b *testing.B) {
	tmpDir := b.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `KEY1=value1
KEY2=value2
KEY3=value3
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		loadEnvFile(envFile)
	}
}
