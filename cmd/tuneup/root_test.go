package main

import (
	"testing"

	"github.com/spf13/viper"
)

func TestInitConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/.config")

	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()

	if got := viper.GetString("min_size"); got != "31968B" {
		t.Errorf("min_size default = %q", got)
	}
	if got := viper.GetInt("workers.dir"); got != 4 {
		t.Errorf("workers.dir default = %d", got)
	}
	if got := viper.GetInt("workers.file"); got != 8 {
		t.Errorf("workers.file default = %d", got)
	}
	if !viper.GetBool("manifest.enabled") {
		t.Error("manifest.enabled default should be true")
	}
	if viper.GetBool("use_trash") {
		t.Error("use_trash default should be false")
	}
}

func TestInitConfigEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home+"/.config")
	t.Setenv("TUNEUP_MIN_SIZE", "1M")

	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()

	if got := viper.GetString("min_size"); got != "1M" {
		t.Errorf("min_size with env override = %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this is a long string", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
