// Package base provides the pieces shared by every broker implementation:
// naming, structured logging, message conversion and handler error logging.
package base

import (
	"fmt"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

// BaseBroker provides common functionality for all broker implementations.
type BaseBroker struct {
	name   string
	logger logging.Logger
	config brokers.BrokerConfig
}

// NewBaseBroker validates config and sets up a logger tagged with the
// broker name and its (credential free) connection string.
func NewBaseBroker(name string, config brokers.BrokerConfig) (*BaseBroker, error) {
	if config == nil {
		return nil, errors.ConfigError(fmt.Sprintf("%s config is required", name))
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid %s config: %v", name, err))
	}

	logger := logging.GetGlobalLogger().WithFields(
		logging.Field{Key: "broker", Value: name},
		logging.Field{Key: "connection", Value: config.GetConnectionString()},
	)

	return &BaseBroker{
		name:   name,
		config: config,
		logger: logger,
	}, nil
}

func (b *BaseBroker) Name() string {
	return b.name
}

func (b *BaseBroker) GetLogger() logging.Logger {
	return b.logger
}

func (b *BaseBroker) GetConfig() brokers.BrokerConfig {
	return b.config
}

// GetBrokerInfo returns the source descriptor attached to incoming messages.
func (b *BaseBroker) GetBrokerInfo() brokers.BrokerInfo {
	return brokers.BrokerInfo{
		Name: b.name,
		Type: b.config.GetType(),
		URL:  b.config.GetConnectionString(),
	}
}
