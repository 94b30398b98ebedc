package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
)

// mockBlobStore keeps uploaded blobs in memory.
type mockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	err   error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) PutBlob(ctx context.Context, container, name string, r io.Reader, size int64, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[container+"/"+name] = data
	return fmt.Sprintf("http://blobs.local/%s/%s", container, name), nil
}

func (m *mockBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// brokenShare rejects every write.
type brokenShare struct{}

func (brokenShare) WriteFile(ctx context.Context, dir, name string, data []byte) error {
	return errors.New("share unavailable")
}

// mockNotifier records published events and can fail on demand.
type mockNotifier struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	failOn string
}

func (m *mockNotifier) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	if event.OrderID == m.failOn {
		return errors.New("broker down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockNotifier) Close() error { return nil }
