package queue

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"k1:9092", "k2:9092"}, "loan-events", nil)
	defer w.Close()

	if w.Topic != "loan-events" || !w.Async {
		t.Fatalf("writer = %+v", w)
	}
	if w.Addr == nil || w.RequiredAcks != kafka.RequireOne {
		t.Fatalf("addr=%v acks=%v", w.Addr, w.RequiredAcks)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("messages must be partitioned by key, balancer = %T", w.Balancer)
	}
}
