package notify

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"foodbridge/internal/metrics"
)

// KafkaDispatcher publishes events asynchronously; producer errors are drained
// and logged by the producer owner, never surfaced here.
type KafkaDispatcher struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger
}

func NewKafkaDispatcher(producer sarama.AsyncProducer, topic string, log *zap.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{producer: producer, topic: topic, log: log}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, e := range events {
		bytes, err := json.Marshal(e)
		if err != nil {
			metrics.NotificationsDroppedTotal.Inc()
			d.log.Warn("notification marshal failed", zap.Error(err))
			continue
		}
		d.producer.Input() <- &sarama.ProducerMessage{
			Topic: d.topic,
			Key:   sarama.StringEncoder(e.RecipientID),
			Value: sarama.ByteEncoder(bytes),
		}
	}
}
