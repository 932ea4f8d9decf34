package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file must fall back to defaults: %v", err)
	}

	if cfg.Recorder.Binary != "fmedia" {
		t.Errorf("Expected default binary fmedia, got %q", cfg.Recorder.Binary)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("Expected default sample rate 44100, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Encoder != "aac-lc" {
		t.Errorf("Expected default encoder aac-lc, got %q", cfg.Audio.Encoder)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Server.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "record.yaml")
	content := `
recorder:
  binary: /usr/local/bin/fmedia
  pipe_prefix: studio
  not_found_patterns:
    - "no active instance"
audio:
  sample_rate: 48000
  channels: 1
  encoder: flac
output:
  directory: /tmp/recordings
server:
  port: "9090"
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Recorder.Binary != "/usr/local/bin/fmedia" {
		t.Errorf("Expected binary override, got %q", cfg.Recorder.Binary)
	}
	if cfg.Recorder.PipePrefix != "studio" {
		t.Errorf("Expected pipe prefix override, got %q", cfg.Recorder.PipePrefix)
	}
	if len(cfg.Recorder.NotFoundPatterns) != 1 || cfg.Recorder.NotFoundPatterns[0] != "no active instance" {
		t.Errorf("Expected pattern override, got %v", cfg.Recorder.NotFoundPatterns)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 1 || cfg.Audio.Encoder != "flac" {
		t.Errorf("Expected audio overrides, got %+v", cfg.Audio)
	}
	if cfg.Output.Directory != "/tmp/recordings" {
		t.Errorf("Expected output directory override, got %q", cfg.Output.Directory)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port override, got %q", cfg.Server.Port)
	}
}

func TestLoad_PartialFileKeepsRemainingDefaults(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "record.yaml")
	content := `
audio:
  encoder: opus
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audio.Encoder != "opus" {
		t.Errorf("Expected encoder opus, got %q", cfg.Audio.Encoder)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("Expected default sample rate kept, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Recorder.Binary != "fmedia" {
		t.Errorf("Expected default binary kept, got %q", cfg.Recorder.Binary)
	}
}

func TestLoad_RejectsUnsupportedEncoder(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "record.yaml")
	if err := os.WriteFile(configFile, []byte("audio:\n  encoder: mp3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configFile); err == nil {
		t.Fatal("Expected validation error for unsupported encoder")
	}
}

func TestLoad_RejectsBadChannelCount(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "record.yaml")
	if err := os.WriteFile(configFile, []byte("audio:\n  channels: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configFile); err == nil {
		t.Fatal("Expected validation error for unsupported channel count")
	}
}

func TestValidate_SampleRate(t *testing.T) {
	cfg := defaultConfig
	cfg.Audio.SampleRate = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation error for zero sample rate")
	}
}

func TestStartConfig_MirrorsAudioSettings(t *testing.T) {
	cfg := defaultConfig
	cfg.Audio.Device = "2"

	sc := cfg.StartConfig()
	if string(sc.Encoder) != cfg.Audio.Encoder {
		t.Errorf("Expected encoder %q, got %q", cfg.Audio.Encoder, sc.Encoder)
	}
	if sc.SampleRate != cfg.Audio.SampleRate || sc.Channels != cfg.Audio.Channels {
		t.Errorf("Expected audio settings carried over, got %+v", sc)
	}
	if sc.Device != "2" {
		t.Errorf("Expected device carried over, got %q", sc.Device)
	}
}
