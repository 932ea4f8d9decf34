package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// lastRecordingConfig is the small marker file kept beside the recordings,
// pointing at the most recently finished one.
type lastRecordingConfig struct {
	LastRecording string `yaml:"last_recording"`
	UpdatedAt     string `yaml:"updated_at"`
}

func (s *Server) lastRecordingConfigPath() string {
	return filepath.Join(s.cfg.Output.Directory, "conf.yaml")
}

func (s *Server) loadLastRecording() (string, error) {
	s.fileLock.RLock()
	defer s.fileLock.RUnlock()

	data, err := os.ReadFile(s.lastRecordingConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read last-recording config: %w", err)
	}

	var cfg lastRecordingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("failed to parse last-recording config: %w", err)
	}
	return cfg.LastRecording, nil
}

func (s *Server) saveLastRecording(path string) error {
	s.fileLock.Lock()
	defer s.fileLock.Unlock()

	configPath := s.lastRecordingConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&lastRecordingConfig{
		LastRecording: path,
		UpdatedAt:     time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal last-recording config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write last-recording config: %w", err)
	}
	return nil
}
