//go:generate mockgen -source=publisher.go -destination=../mock/publisher_mock.go -package=mock

package events

import "context"

const (
	TopicUsers        = "user_events"
	TopicProducts     = "product_events"
	TopicTransactions = "transaction_events"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

// Noop drops every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
func (Noop) Close() error                                       { return nil }
