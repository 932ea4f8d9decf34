package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/kiwis08/record/internal/recorder"
)

// Config is the resolved runtime configuration.
type Config struct {
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Audio    AudioConfig    `mapstructure:"audio" yaml:"audio"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// RecorderConfig configures the external recorder binary boundary.
type RecorderConfig struct {
	Binary     string `mapstructure:"binary" yaml:"binary"`
	PipePrefix string `mapstructure:"pipe_prefix" yaml:"pipe_prefix"`
	// NotFoundPatterns are the output substrings that mark a control command
	// addressing a non-running instance. Overridable because the exact text
	// varies across recorder-binary versions.
	NotFoundPatterns []string `mapstructure:"not_found_patterns" yaml:"not_found_patterns"`
}

// AudioConfig holds the recording parameters passed to the binary.
type AudioConfig struct {
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
	Device     string `mapstructure:"device" yaml:"device"`   // capture device id, empty for default
	Encoder    string `mapstructure:"encoder" yaml:"encoder"` // aac-lc, aac-he, flac, opus, wav
	Bitrate    int    `mapstructure:"bitrate" yaml:"bitrate"` // bits per second, 0 for encoder default
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

var defaultConfig = Config{
	Recorder: RecorderConfig{
		Binary:     "fmedia",
		PipePrefix: "record",
	},
	Audio: AudioConfig{
		SampleRate: 44100,
		Channels:   2,
		Encoder:    string(recorder.EncoderAACLC),
		Bitrate:    128000,
	},
	Output: OutputConfig{
		Directory: filepath.Join(os.Getenv("HOME"), "Audio", "Recordings"),
	},
	Server: ServerConfig{
		Port: "8080",
	},
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/record.yaml")
}

// Load reads configuration from the given file, layering it over the
// defaults. A missing file is not an error; defaults apply. RECORD_*
// environment variables override file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("RECORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaultConfig

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configFile); statErr == nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
			// No file at the default location: run on defaults.
		} else if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("error unmarshaling config: %w", err)
		}
	}

	cfg.Output.Directory = expandPath(cfg.Output.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the recorder would reject.
func (c *Config) Validate() error {
	if c.Recorder.Binary == "" {
		return fmt.Errorf("recorder.binary must not be empty")
	}
	if c.Recorder.PipePrefix == "" {
		return fmt.Errorf("recorder.pipe_prefix must not be empty")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0, got: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 (mono) or 2 (stereo), got: %d", c.Audio.Channels)
	}
	if !recorder.IsEncoderSupported(recorder.Encoder(c.Audio.Encoder)) {
		return fmt.Errorf("audio.encoder '%s' is not supported (aac-lc, aac-he, flac, opus, wav)", c.Audio.Encoder)
	}
	if c.Audio.Bitrate < 0 {
		return fmt.Errorf("audio.bitrate must be >= 0, got: %d", c.Audio.Bitrate)
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory must not be empty")
	}
	return nil
}

// StartConfig converts the audio settings into a per-recording start request.
func (c *Config) StartConfig() recorder.StartConfig {
	return recorder.StartConfig{
		Encoder:    recorder.Encoder(c.Audio.Encoder),
		SampleRate: c.Audio.SampleRate,
		Channels:   c.Audio.Channels,
		Device:     c.Audio.Device,
		Bitrate:    c.Audio.Bitrate,
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
