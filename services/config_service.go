package services

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/open-teleop/waypoint-recorder/pkg/config"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
)

// ErrInvalidConfig wraps parse and validation failures of a submitted config.
var ErrInvalidConfig = errors.New("invalid topic configuration")

// ErrReadOnlyConfig is returned when updating the built-in configuration.
var ErrReadOnlyConfig = errors.New("topic configuration has no backing file")

// ConfigPublisher announces the topic configuration to gateways.
type ConfigPublisher interface {
	PublishConfigUpdate(cfg *config.Config) error
}

// TopicConfigService defines the interface for managing the topic configuration.
type TopicConfigService interface {
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	SetPublisher(p ConfigPublisher)
}

// topicConfigService implements the TopicConfigService interface.
type topicConfigService struct {
	path            string
	logger          customlog.Logger
	configPublisher ConfigPublisher
	currentConfig   *config.Config
	mu              sync.RWMutex
}

// NewTopicConfigService serves cfg, the configuration loaded at startup.
// When path is empty the configuration is the built-in one and cannot be
// updated.
func NewTopicConfigService(path string, cfg *config.Config, logger customlog.Logger) (TopicConfigService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("topic configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	if path == "" {
		logger.Infof("Using built-in topic configuration (ID: %s)", cfg.ConfigID)
	} else {
		logger.Infof("Topic configuration service initialized for path: %s", path)
	}

	return &topicConfigService{
		path:          path,
		logger:        logger,
		currentConfig: cfg,
	}, nil
}

// GetCurrentConfig returns the active configuration. Callers must not modify it.
func (s *topicConfigService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConfig
}

// GetCurrentConfigYAML returns the config file contents, or the active
// configuration rendered as YAML when there is no file.
func (s *topicConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	path := s.path
	cfg := s.currentConfig
	s.mu.RUnlock()

	if path == "" {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("error rendering topic configuration: %w", err)
		}
		return data, nil
	}

	s.logger.Debugf("Reading raw topic configuration YAML from: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading topic config file '%s': %w", path, err)
	}
	return data, nil
}

// UpdateConfig validates and persists a new configuration, then announces it.
// Topic routing is fixed at startup; the new mapping takes effect on restart.
func (s *topicConfigService) UpdateConfig(newConfigYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return ErrReadOnlyConfig
	}

	var newCfg config.Config
	if err := yaml.Unmarshal(newConfigYAML, &newCfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := newCfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.logger.Infof("Persisting topic configuration to: %s", s.path)
	if err := os.WriteFile(s.path, newConfigYAML, 0o644); err != nil {
		return fmt.Errorf("error writing topic config file '%s': %w", s.path, err)
	}

	oldID := s.currentConfig.ConfigID
	s.currentConfig = &newCfg
	s.logger.Infof("Updated topic configuration. ID %s -> %s, Version: %s", oldID, newCfg.ConfigID, newCfg.Version)

	if s.configPublisher != nil {
		go func(publisher ConfigPublisher, cfg *config.Config) {
			if err := publisher.PublishConfigUpdate(cfg); err != nil {
				s.logger.Warnf("Failed to publish topic configuration: %v", err)
			}
		}(s.configPublisher, s.currentConfig)
	}
	return nil
}

// SetPublisher allows injecting the ConfigPublisher after initialization.
func (s *topicConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPublisher = p
}
