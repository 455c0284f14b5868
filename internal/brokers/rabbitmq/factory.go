package rabbitmq

import (
	"integration-gateway/internal/brokers"
	"integration-gateway/internal/common/factory"
)

func GetFactory() brokers.BrokerFactory {
	return factory.NewBrokerFactory[*Config]("rabbitmq", func(config *Config) (brokers.Broker, error) {
		return NewBroker(config)
	})
}
