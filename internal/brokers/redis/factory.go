package redis

import (
	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/factory"
)

func GetFactory() brokers.BrokerFactory {
	return factory.NewBrokerFactory[*Config]("redis", func(config *Config) (brokers.Broker, error) {
		return NewBroker(config)
	})
}
