// Kafka async producer initialization for the notification dispatcher.
package infra

import (
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

func NewKafkaProducer(brokers string, log *zap.Logger) (sarama.AsyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	go func() {
		for perr := range producer.Errors() {
			log.Warn("kafka produce failed", zap.Error(perr))
		}
	}()

	return producer, nil
}
