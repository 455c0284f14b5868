// Package aws provides AWS SQS and SNS implementations of the broker interface.
// Publishing goes to the SQS queue when one is configured and to the SNS topic
// otherwise; subscribing always polls SQS.
package aws

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/brokers/base"
	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
)

const (
	headerPrefix  = "Header_"
	errorBackoff  = 5 * time.Second
	attrMessageID = "MessageID"
	attrTimestamp = "Timestamp"
	attrKey       = "Key"
)

// SQSAPI is the subset of the SQS client used by the broker.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// SNSAPI is the subset of the SNS client used by the broker.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	GetTopicAttributes(ctx context.Context, params *sns.GetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error)
}

type Broker struct {
	*base.BaseBroker
	config    *Config
	sqsClient SQSAPI
	snsClient SNSAPI
}

func NewBroker(config *Config) (*Broker, error) {
	if _, err := base.NewBaseBroker("aws", config); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			config.SessionToken,
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.ConnectionError("failed to load AWS config", err)
	}

	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})
	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})

	return NewBrokerWithClients(config, sqsClient, snsClient)
}

// NewBrokerWithClients creates a broker on injected service clients.
func NewBrokerWithClients(config *Config, sqsClient SQSAPI, snsClient SNSAPI) (*Broker, error) {
	baseBroker, err := base.NewBaseBroker("aws", config)
	if err != nil {
		return nil, err
	}

	return &Broker{
		BaseBroker: baseBroker,
		config:     config,
		sqsClient:  sqsClient,
		snsClient:  snsClient,
	}, nil
}

// Publish sends the message to SQS or SNS. A topic that is itself a queue URL
// or topic ARN overrides the configured destination.
func (b *Broker) Publish(ctx context.Context, message *brokers.Message) error {
	queueURL, topicArn := b.destination(message.Topic)

	switch {
	case queueURL != "":
		return b.publishToSQS(ctx, message, queueURL)
	case topicArn != "":
		return b.publishToSNS(ctx, message, topicArn)
	default:
		return errors.ConfigError("no queue URL or topic ARN configured")
	}
}

func (b *Broker) destination(topic string) (queueURL, topicArn string) {
	switch {
	case strings.HasPrefix(topic, "https://") || strings.HasPrefix(topic, "http://"):
		return topic, ""
	case strings.HasPrefix(topic, "arn:"):
		return "", topic
	}
	return b.config.QueueURL, b.config.TopicArn
}

func timestampOf(message *brokers.Message) string {
	ts := message.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return strconv.FormatInt(ts.UnixNano(), 10)
}

func (b *Broker) publishToSQS(ctx context.Context, message *brokers.Message, queueURL string) error {
	attributes := make(map[string]types.MessageAttributeValue)
	str := func(name, value string) {
		attributes[name] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(value)}
	}

	if message.MessageID != "" {
		str(attrMessageID, message.MessageID)
	}
	if message.Key != "" {
		str(attrKey, message.Key)
	}
	for key, value := range message.Headers {
		str(headerPrefix+key, value)
	}
	attributes[attrTimestamp] = types.MessageAttributeValue{
		DataType:    aws.String("Number"),
		StringValue: aws.String(timestampOf(message)),
	}

	result, err := b.sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(string(message.Body)),
		MessageAttributes: attributes,
	})
	if err != nil {
		return errors.ConnectionError("failed to send message to SQS", err)
	}

	b.GetLogger().Debug("Message sent to SQS",
		logging.Field{Key: "sqs_message_id", Value: aws.ToString(result.MessageId)},
		logging.Field{Key: "queue_url", Value: queueURL},
	)
	return nil
}

func (b *Broker) publishToSNS(ctx context.Context, message *brokers.Message, topicArn string) error {
	attributes := make(map[string]snstypes.MessageAttributeValue)
	str := func(name, value string) {
		attributes[name] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(value)}
	}

	if message.MessageID != "" {
		str(attrMessageID, message.MessageID)
	}
	if message.Key != "" {
		str(attrKey, message.Key)
	}
	for key, value := range message.Headers {
		str(headerPrefix+key, value)
	}
	attributes[attrTimestamp] = snstypes.MessageAttributeValue{
		DataType:    aws.String("Number"),
		StringValue: aws.String(timestampOf(message)),
	}

	result, err := b.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(topicArn),
		Message:           aws.String(string(message.Body)),
		MessageAttributes: attributes,
	})
	if err != nil {
		return errors.ConnectionError("failed to publish message to SNS", err)
	}

	b.GetLogger().Debug("Message published to SNS",
		logging.Field{Key: "sns_message_id", Value: aws.ToString(result.MessageId)},
		logging.Field{Key: "topic_arn", Value: topicArn},
	)
	return nil
}

// Subscribe polls the SQS queue until ctx is cancelled. A topic that is a
// queue URL overrides the configured queue. Handled messages are deleted;
// failed ones become visible again after the visibility timeout.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler brokers.MessageHandler) error {
	queueURL, _ := b.destination(topic)
	if queueURL == "" {
		return errors.ConfigError("queue URL not configured for subscription")
	}

	messageHandler := base.NewMessageHandler(handler, b.GetLogger(), "aws", topic)
	logger := b.GetLogger().WithFields(logging.Field{Key: "queue_url", Value: queueURL})

	for {
		if ctx.Err() != nil {
			logger.Info("AWS SQS subscription cancelled")
			return nil
		}

		result, err := b.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(queueURL),
			MaxNumberOfMessages:   b.config.MaxMessages,
			VisibilityTimeout:     b.config.VisibilityTimeout,
			WaitTimeSeconds:       b.config.WaitTimeSeconds,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error("AWS SQS consumer error", err)
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, message := range result.Messages {
			incoming := b.convert(queueURL, message)
			if !messageHandler.Handle(ctx, incoming) {
				continue
			}

			_, err := b.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(queueURL),
				ReceiptHandle: message.ReceiptHandle,
			})
			if err != nil {
				logger.Error("Failed to delete SQS message", err, logging.Field{Key: "message_id", Value: incoming.ID})
			}
		}
	}
}

func (b *Broker) convert(queueURL string, message types.Message) *brokers.IncomingMessage {
	headers := make(map[string]string)
	id := aws.ToString(message.MessageId)
	var timestamp time.Time

	for key, attr := range message.MessageAttributes {
		if attr.StringValue == nil {
			continue
		}
		value := *attr.StringValue
		switch {
		case key == attrMessageID:
			id = value
		case key == attrTimestamp:
			if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
				timestamp = time.Unix(0, ts)
			}
		case strings.HasPrefix(key, headerPrefix):
			headers[strings.TrimPrefix(key, headerPrefix)] = value
		}
	}

	return base.ConvertToIncomingMessage(b.GetBrokerInfo(), base.MessageData{
		ID:        id,
		Headers:   headers,
		Body:      []byte(aws.ToString(message.Body)),
		Timestamp: timestamp,
		Metadata: map[string]interface{}{
			"queue_url":      queueURL,
			"sqs_message_id": aws.ToString(message.MessageId),
			"receipt_handle": aws.ToString(message.ReceiptHandle),
		},
	})
}

// Health reads the queue or topic attributes.
func (b *Broker) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	if b.config.QueueURL != "" {
		_, err := b.sqsClient.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       aws.String(b.config.QueueURL),
			AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
		})
		if err != nil {
			return errors.ConnectionError("SQS health check failed", err)
		}
		return nil
	}

	_, err := b.snsClient.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(b.config.TopicArn),
	})
	if err != nil {
		return errors.ConnectionError("SNS health check failed", err)
	}
	return nil
}

// Close is a no-op; SDK clients hold no resources that need releasing.
func (b *Broker) Close() error {
	return nil
}
