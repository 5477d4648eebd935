package config

import (
	"github.com/audiobookroom/audiobookroom/pkg/version"
)

// PlayerSettings is the subset of the config that clients need to drive a
// player. Nothing secret belongs here.
type PlayerSettings struct {
	ProgressThresholdSeconds  float64 `json:"progress_threshold_seconds"`
	SleepCheckIntervalSeconds int     `json:"sleep_check_interval_seconds"`
	Version                   string  `json:"version"`
}

type Service struct {
	config *Config
}

func NewService(cfg *Config) *Service {
	return &Service{config: cfg}
}

func (s *Service) RetrievePlayerSettings() *PlayerSettings {
	return &PlayerSettings{
		ProgressThresholdSeconds:  s.config.ProgressThresholdSeconds,
		SleepCheckIntervalSeconds: s.config.SleepCheckIntervalSeconds,
		Version:                   version.Version,
	}
}
