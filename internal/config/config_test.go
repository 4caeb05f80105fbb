package config

import "testing"

func TestValidateSettingsRepairsInvalidSampleRate(t *testing.T) {
	t.Parallel()
	s := &Settings{}
	s.Audio.DefaultSampleRate = -1
	s.Render.MinBlockFrames = 64
	s.Render.DefaultBlockFrames = 8192

	if err := ValidateSettings(s); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if s.Audio.DefaultSampleRate != DefaultSampleRate {
		t.Errorf("expected repaired sample rate %d, got %d", DefaultSampleRate, s.Audio.DefaultSampleRate)
	}
}

func TestValidateSettingsFlagsBlockFrameInversion(t *testing.T) {
	t.Parallel()
	s := &Settings{}
	s.Render.MinBlockFrames = 8192
	s.Render.DefaultBlockFrames = 64

	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("expected validation error for inverted block frame bounds")
	}
	if s.Render.DefaultBlockFrames != s.Render.MinBlockFrames {
		t.Errorf("expected default block frames repaired to %d, got %d", s.Render.MinBlockFrames, s.Render.DefaultBlockFrames)
	}
}

func TestGetDefaultConfigPathsNonEmpty(t *testing.T) {
	t.Parallel()
	paths, err := GetDefaultConfigPaths()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) == 0 {
		t.Error("expected at least one default config path")
	}
}
