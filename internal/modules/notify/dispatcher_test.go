package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"
)

func TestKafkaDispatcherPublishesEvents(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, nil)

	checker := func(value []byte) error {
		var e Event
		return json.Unmarshal(value, &e)
	}
	producer.ExpectInputWithCheckerFunctionAndSucceed(checker)
	producer.ExpectInputWithCheckerFunctionAndSucceed(checker)

	d := NewKafkaDispatcher(producer, "foodbridge.notifications", zap.NewNop())
	d.Dispatch(context.Background(), []Event{
		{RecipientID: "seller-1", Type: EventOrderCreated, ReferenceID: "f1", Message: "claimed"},
		{RecipientID: "buyer-1", Type: EventOrderCreated, ReferenceID: "f1", Message: "pending"},
	})

	if err := producer.Close(); err != nil {
		t.Fatalf("close producer: %v", err)
	}
}

func TestLogDispatcherIgnoresEmptyBatch(t *testing.T) {
	d := NewLogDispatcher(zap.NewNop())
	d.Dispatch(context.Background(), nil)
}
