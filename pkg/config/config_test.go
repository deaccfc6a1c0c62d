package config

import (
	"os"
	"strings"
	"testing"
)

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}

// TestParseConf Test for success. Ensure we successfully parse a good config file
func TestParseConf(t *testing.T) {
	c, err := ParseConf("testdata/test-config.yml")
	if err != nil {
		t.Fatalf("Parsing config file failed: %v", err)
	}
	if c.Iterations != 25 {
		t.Fatalf("iterations: got %d, want 25", c.Iterations)
	}
	if c.TargetRegion != "us-west-2" {
		t.Fatalf("target region: got %s, want us-west-2", c.TargetRegion)
	}
	if !c.Compare {
		t.Fatal("compare flag not parsed")
	}
}

// TestParseConfDefaults Ensure fields absent from the file keep defaults
func TestParseConfDefaults(t *testing.T) {
	c, err := ParseConf("testdata/test-minimal-config.yml")
	if err != nil {
		t.Fatalf("Parsing config file failed: %v", err)
	}
	if c.Iterations != 5 {
		t.Fatalf("iterations: got %d, want 5", c.Iterations)
	}
	if c.SourceRegion != DefaultSourceRegion {
		t.Fatalf("source region: got %s, want the default", c.SourceRegion)
	}
	if c.Prompt != DefaultPrompt {
		t.Fatal("prompt should keep the default")
	}
}

// TestParseConfBadIterations Testing for failure. Zero iterations must not validate
func TestParseConfBadIterations(t *testing.T) {
	if _, err := ParseConf("testdata/test-bad-iterations-config.yml"); err == nil {
		t.Fatal("Parsing config file should have failed but succeeded")
	}
}

// TestParseConfMalformed Testing for failure. Broken YAML
func TestParseConfMalformed(t *testing.T) {
	if _, err := ParseConf("testdata/test-malformed-config.yml"); err == nil {
		t.Fatal("Parsing config file should have failed but succeeded")
	}
}

// TestParseConfMissing Testing for failure. Nonexistent file
func TestParseConfMissing(t *testing.T) {
	if _, err := ParseConf("testdata/no-such-file.yml"); err == nil {
		t.Fatal("Parsing config file should have failed but succeeded")
	}
}

func TestValidate(t *testing.T) {
	good := Default()
	if err := Validate(good); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	bad := Default()
	bad.ModelID = ""
	if err := Validate(bad); err == nil {
		t.Fatal("empty model id should not validate")
	}
	bad = Default()
	bad.Interval = -1
	if err := Validate(bad); err == nil {
		t.Fatal("negative interval should not validate")
	}
	bad = Default()
	bad.Compare = true
	bad.DirectModelID = ""
	if err := Validate(bad); err == nil {
		t.Fatal("comparing without a direct model id should not validate")
	}
}

func TestResolveAPIKeyFlagWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	key, err := ResolveAPIKey("from-flag")
	if err != nil {
		t.Fatalf("ResolveAPIKey failed: %v", err)
	}
	if key != "from-flag" {
		t.Fatalf("got %q, want the flag value", key)
	}
}

func TestResolveAPIKeyEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	key, err := ResolveAPIKey("")
	if err != nil {
		t.Fatalf("ResolveAPIKey failed: %v", err)
	}
	if key != "from-env" {
		t.Fatalf("got %q, want the environment value", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	chdir(t, t.TempDir()) // no .env here
	_, err := ResolveAPIKey("")
	if err == nil {
		t.Fatal("ResolveAPIKey should have failed with no credential")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("error should name the variable, got: %v", err)
	}
}
