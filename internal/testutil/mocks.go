// Package testutil provides in-memory collaborators and builders shared by
// package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/models"
)

// StoreEntry is a value recorded by MockStore.
type StoreEntry struct {
	Envelope *models.ResponseEnvelope
	TTL      time.Duration
}

// MockStore is an in-memory cache.Store that records every call and never
// expires entries.
type MockStore struct {
	mu       sync.Mutex
	entries  map[string]StoreEntry
	getCalls int
	setCalls int
	// SetHook runs before each Set with the write context
	SetHook func(ctx context.Context, key string)

	// Control error injection
	ErrorOnMethod map[string]error
}

func NewMockStore() *MockStore {
	return &MockStore{
		entries:       make(map[string]StoreEntry),
		ErrorOnMethod: make(map[string]error),
	}
}

func (s *MockStore) Get(ctx context.Context, key string) (*models.ResponseEnvelope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls++
	if err := s.ErrorOnMethod["Get"]; err != nil {
		return nil, false, err
	}

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return entry.Envelope, true, nil
}

func (s *MockStore) Set(ctx context.Context, key string, env *models.ResponseEnvelope, ttl time.Duration) error {
	if s.SetHook != nil {
		s.SetHook(ctx, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setCalls++
	if err := s.ErrorOnMethod["Set"]; err != nil {
		return err
	}

	s.entries[key] = StoreEntry{Envelope: env, TTL: ttl}
	return nil
}

func (s *MockStore) Health(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ErrorOnMethod["Health"]
}

func (s *MockStore) Close() error {
	return nil
}

// Put seeds an entry without counting it as a Set call.
func (s *MockStore) Put(key string, env *models.ResponseEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = StoreEntry{Envelope: env}
}

func (s *MockStore) Entry(key string) (StoreEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *MockStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MockStore) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

func (s *MockStore) SetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

var _ brokers.Broker = (*MockBroker)(nil)

// MockBroker is an in-memory broker. Published messages are recorded and
// delivered to handlers subscribed to the same topic.
type MockBroker struct {
	mu        sync.Mutex
	published []*brokers.Message
	handlers  map[string][]brokers.MessageHandler
	acked     []string
	nacked    []string

	PublishError error
	HealthError  error
}

func NewMockBroker() *MockBroker {
	return &MockBroker{
		handlers: make(map[string][]brokers.MessageHandler),
	}
}

func (b *MockBroker) Name() string {
	return "mock"
}

func (b *MockBroker) Publish(ctx context.Context, message *brokers.Message) error {
	b.mu.Lock()
	if b.PublishError != nil {
		b.mu.Unlock()
		return b.PublishError
	}
	b.published = append(b.published, message)
	handlers := append([]brokers.MessageHandler(nil), b.handlers[message.Topic]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		b.deliver(ctx, handler, message)
	}
	return nil
}

// Subscribe registers handler and blocks until ctx is cancelled.
func (b *MockBroker) Subscribe(ctx context.Context, topic string, handler brokers.MessageHandler) error {
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	b.mu.Unlock()

	<-ctx.Done()
	return nil
}

// Deliver sends a message straight to the subscribed handlers of its topic
// without recording it as published.
func (b *MockBroker) Deliver(ctx context.Context, message *brokers.Message) {
	b.mu.Lock()
	handlers := append([]brokers.MessageHandler(nil), b.handlers[message.Topic]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		b.deliver(ctx, handler, message)
	}
}

func (b *MockBroker) deliver(ctx context.Context, handler brokers.MessageHandler, message *brokers.Message) {
	incoming := NewIncomingMessageBuilder().
		WithID(message.MessageID).
		WithBody(message.Body).
		Build()
	for k, v := range message.Headers {
		incoming.Headers[k] = v
	}

	err := handler(ctx, incoming)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.nacked = append(b.nacked, message.MessageID)
	} else {
		b.acked = append(b.acked, message.MessageID)
	}
}

// Subscribed reports whether a handler is registered for topic.
func (b *MockBroker) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[topic]) > 0
}

func (b *MockBroker) Health() error {
	return b.HealthError
}

func (b *MockBroker) Close() error {
	return nil
}

func (b *MockBroker) GetPublishedMessages() []*brokers.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*brokers.Message(nil), b.published...)
}

func (b *MockBroker) Acked() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.acked...)
}

func (b *MockBroker) Nacked() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.nacked...)
}
