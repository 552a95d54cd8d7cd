package outcomes

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// KafkaNotifier publishes delivered RecoItems to a topic, per
// SPEC_FULL.md section 7's supplemented outbound contract.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier builds a notifier writing to topic over the given
// brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

type notificationPayload struct {
	CustomerCode string             `json:"customer_code"`
	RunID        string             `json:"run_id"`
	ProductCode  string             `json:"product_code"`
	Scenario     schema.Scenario    `json:"scenario"`
	FinalScore   float64            `json:"final_score"`
}

// Notify implements NotificationPort.
func (n *KafkaNotifier) Notify(ctx context.Context, customerCode string, item schema.RecoItem) error {
	payload, err := json.Marshal(notificationPayload{
		CustomerCode: customerCode,
		RunID:        item.RunID,
		ProductCode:  item.ProductCode,
		Scenario:     item.Scenario,
		FinalScore:   item.FinalScore,
	})
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(customerCode),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
