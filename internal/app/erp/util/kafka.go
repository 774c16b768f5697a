package util

import (
	"context"
	"fmt"
	"time"

	"cedarworks/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer - обертка над Kafka writer для событий изменения цен
// События PRICE_SUPERSEDED уходят в топик price_events при каждой
// замене текущей записи
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer создает новый Kafka producer
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// Настройки батчирования для production
		BatchSize:    100,
		BatchTimeout: 10 * time.Second,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage отправляет сообщение в Kafka
// key - product_code: порядок событий одного продукта сохраняется
// за счет партиционирования по ключу
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer("erp", p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

// Close закрывает writer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
