package kafka

import (
	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/factory"
)

func GetFactory() brokers.BrokerFactory {
	return factory.NewBrokerFactory[*Config]("kafka", func(config *Config) (brokers.Broker, error) {
		return NewBroker(config)
	})
}
