package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"quadruped-gateway/internal/config"
	"quadruped-gateway/internal/infra/mq"
)

// ErrNoTopic Topic 由分发器给出 (message_queue.topic), 为空时拒绝发送
var ErrNoTopic = errors.New("kafka topic is empty")

type KafkaProducer struct {
	writer   *kafka.Writer
	logger   *zap.Logger
	encoding mq.Encoding
}

// Ensure KafkaProducer implements mq.Producer
var _ mq.Producer = (*KafkaProducer)(nil)

func NewKafkaProducer(cfg config.KafkaConfig, encoding mq.Encoding, logger *zap.Logger) (*KafkaProducer, error) {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{}, // 同一台机器人的状态进入同一分区, 保持顺序
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
	}

	logger.Info("Initialized Kafka producer",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("encoding", string(encoding)))

	return &KafkaProducer{
		writer:   w,
		logger:   logger,
		encoding: encoding,
	}, nil
}

// Produce key 为机器人序列号
func (p *KafkaProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	msg, err := p.message(topic, key, data)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to produce message to Kafka", zap.Error(err), zap.String("topic", msg.Topic))
		return err
	}

	p.logger.Debug("Produced message to Kafka", zap.String("topic", msg.Topic), zap.String("key", key))
	return nil
}

// message 构建消息, 每条消息自带 topic
func (p *KafkaProducer) message(topic string, key string, data interface{}) (kafka.Message, error) {
	if topic == "" {
		return kafka.Message{}, ErrNoTopic
	}
	body, err := p.encoding.Marshal(data)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(p.encoding.ContentType())},
		},
	}, nil
}

func (p *KafkaProducer) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
