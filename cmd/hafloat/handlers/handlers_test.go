package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/hafloat/internal/config"
	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/platform/s3"
	"github.com/imamik/hafloat/internal/state"
	testutil "github.com/imamik/hafloat/internal/testing"
	"github.com/imamik/hafloat/internal/util/retry"
)

// saveAndRestoreFactories restores every factory variable after the test.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoad := loadConfigFile
	origProvider := newProvider
	origObjects := newObjectStore
	origRead := readFile
	origMetrics := writeMetrics
	t.Cleanup(func() {
		loadConfigFile = origLoad
		newProvider = origProvider
		newObjectStore = origObjects
		readFile = origRead
		writeMetrics = origMetrics
	})
}

// testConfig moves FailoverAddress from nic-b to nic-a.
func testConfig() *config.Config {
	cfg := &config.Config{
		Provider:   config.ProviderHCloud,
		InstanceID: "nva-a",
		Addresses: []failover.Address{
			{IP: testutil.LocalAddress, Role: failover.RoleLocal},
			{IP: testutil.FailoverAddress, Role: failover.RoleFailover},
		},
		Interfaces: config.InterfacesConfig{
			Tags:    map[string]string{"role": "external"},
			Pairing: testutil.TagPairing(),
		},
		Retry:   retry.Budget{MaxRetries: 0, Interval: time.Millisecond},
		Confirm: retry.Budget{MaxRetries: 2, Interval: time.Millisecond},
	}
	return cfg
}

// withFixture wires loadConfigFile and newProvider to cfg and a fake
// provider holding the external NIC pair.
func withFixture(t *testing.T, cfg *config.Config) *testutil.FakeProvider {
	t.Helper()
	saveAndRestoreFactories(t)

	local, peer := testutil.ExternalPair()
	fake := testutil.NewFakeProvider().WithInterfaces(local, peer)

	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
	newProvider = func(context.Context, *config.Config, logr.Logger) (failover.Provider, error) {
		return testutil.RouteUpdating{FakeProvider: fake}, nil
	}
	return fake
}

// memoryObjects is an in-memory state.ObjectStore.
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, s3.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryObjects) PutObject(_ context.Context, bucket, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = body
	return nil
}

func (m *memoryObjects) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memoryObjects) document(t *testing.T, location string) state.Document {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var doc state.Document
	if data, ok := m.objects[location]; ok {
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("decode state: %v", err)
		}
	}
	return doc
}

// withState enables the state bucket on cfg and backs it with objects.
func withState(cfg *config.Config, objects *memoryObjects) {
	cfg.State = config.StateConfig{Bucket: "hafloat", Key: "nva-a/state.json", StaleAfter: time.Minute}
	newObjectStore = func(context.Context, config.StateConfig) (state.ObjectStore, error) {
		return objects, nil
	}
}
