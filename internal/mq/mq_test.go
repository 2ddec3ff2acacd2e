package mq

import (
	"context"
	"testing"
)

func TestProducerConfigValidate(t *testing.T) {
	cases := map[string]struct {
		cfg     ProducerConfig
		wantErr bool
	}{
		"valid":          {ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "events"}, false},
		"no brokers":     {ProducerConfig{Topic: "events"}, true},
		"blank brokers":  {ProducerConfig{Brokers: []string{"  ", ""}, Topic: "events"}, true},
		"missing topic":  {ProducerConfig{Brokers: []string{"localhost:9092"}}, true},
		"whitespace all": {ProducerConfig{Brokers: []string{" "}, Topic: " "}, true},
	}

	for name, tc := range cases {
		err := tc.cfg.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
	}
}

func TestConsumerConfigValidate(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"localhost:9092"}, Topic: "events", GroupID: "workers"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noGroup := valid
	noGroup.GroupID = " "
	if err := noGroup.Validate(); err == nil {
		t.Fatalf("missing group id accepted")
	}
}

func TestNewConsumerRequiresHandler(t *testing.T) {
	cfg := ConsumerConfig{Brokers: []string{"localhost:9092"}, Topic: "events", GroupID: "workers"}
	if _, err := NewConsumer(cfg, nil); err == nil {
		t.Fatalf("nil handler accepted")
	}
}

func TestNilProducerPublishIsNoOp(t *testing.T) {
	var p *Producer
	if err := p.Publish(context.Background(), Event{Key: "k"}); err != nil {
		t.Fatalf("nil producer publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("nil producer close: %v", err)
	}
}
