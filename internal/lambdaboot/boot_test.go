package lambdaboot

import (
	"testing"
)

func TestLoadThumbnailConfig_Defaults(t *testing.T) {
	for _, name := range []string{EnvResizedBucket, EnvMaxDimension, EnvJPEGQuality, EnvKeyPrefix, EnvObjectTagging} {
		t.Setenv(name, "")
	}

	cfg, err := LoadThumbnailConfig()
	if err != nil {
		t.Fatalf("LoadThumbnailConfig() error = %v", err)
	}
	if cfg.DestinationBucket != "" {
		t.Errorf("DestinationBucket = %q, want empty", cfg.DestinationBucket)
	}
	if cfg.MaxDimension != 128 {
		t.Errorf("MaxDimension = %d, want 128", cfg.MaxDimension)
	}
	if cfg.JPEGQuality != 75 {
		t.Errorf("JPEGQuality = %d, want 75", cfg.JPEGQuality)
	}
	if cfg.KeyPrefix != "resized-" {
		t.Errorf("KeyPrefix = %q, want resized-", cfg.KeyPrefix)
	}
}

func TestLoadThumbnailConfig_Overrides(t *testing.T) {
	t.Setenv(EnvResizedBucket, "thumbs")
	t.Setenv(EnvMaxDimension, "256")
	t.Setenv(EnvJPEGQuality, "90")
	t.Setenv(EnvKeyPrefix, "small/")
	t.Setenv(EnvObjectTagging, "Project=thumbnails")

	cfg, err := LoadThumbnailConfig()
	if err != nil {
		t.Fatalf("LoadThumbnailConfig() error = %v", err)
	}
	if cfg.DestinationBucket != "thumbs" || cfg.MaxDimension != 256 || cfg.JPEGQuality != 90 ||
		cfg.KeyPrefix != "small/" || cfg.Tagging != "Project=thumbnails" {
		t.Errorf("LoadThumbnailConfig() = %+v", cfg)
	}
}

func TestLoadThumbnailConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, env, value string
	}{
		{"non-numeric dimension", EnvMaxDimension, "big"},
		{"zero dimension", EnvMaxDimension, "0"},
		{"quality out of range", EnvJPEGQuality, "150"},
		{"bad tagging", EnvObjectTagging, "a=%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvMaxDimension, "")
			t.Setenv(EnvJPEGQuality, "")
			t.Setenv(EnvObjectTagging, "")
			t.Setenv(tt.env, tt.value)

			if _, err := LoadThumbnailConfig(); err == nil {
				t.Errorf("LoadThumbnailConfig() with %s=%q = nil error", tt.env, tt.value)
			}
		})
	}
}
