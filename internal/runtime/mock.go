package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/errors"
)

// MockProvider is a mock implementation of Provider for testing
type MockProvider struct {
	mu sync.RWMutex

	// Containers tracks the state of mock containers
	Containers map[string]*Info

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// CallLog records all method calls for verification
	CallLog []MockCall

	// AvailableValue is returned by Available
	AvailableValue bool

	// Bootstrapped tracks containers that have been bootstrapped
	Bootstrapped map[string]bool

	nextIP int
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Containers:     make(map[string]*Info),
		Errors:         make(map[string]error),
		CallLog:        make([]MockCall, 0),
		AvailableValue: true,
		Bootstrapped:   make(map[string]bool),
	}
}

func (m *MockProvider) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockProvider) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// AddContainer adds a container to the mock
func (m *MockProvider) AddContainer(name string, status devenv.Status, ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers[name] = &Info{Status: status, IP: ip, Distro: "mock:latest"}
}

// RemoveContainer deletes a container behind the manager's back
func (m *MockProvider) RemoveContainer(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Containers, name)
}

// HasContainer reports whether a container exists
func (m *MockProvider) HasContainer(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Containers[name]
	return ok
}

// GetCalls returns all recorded calls
func (m *MockProvider) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.CallLog))
	copy(calls, m.CallLog)
	return calls
}

// GetCallsFor returns all calls for a specific method
func (m *MockProvider) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// ClearCalls resets the call log but keeps containers
func (m *MockProvider) ClearCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = make([]MockCall, 0)
}

// Kind returns the provider identifier
func (m *MockProvider) Kind() devenv.ProviderKind {
	return devenv.ProviderDocker
}

// Available returns AvailableValue
func (m *MockProvider) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Available")
	return m.AvailableValue
}

// Info returns a copy of the container state, or nil if it does not exist
func (m *MockProvider) Info(ctx context.Context, name string) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Info", name)

	if err := m.Errors["Info"]; err != nil {
		return nil, err
	}
	info, ok := m.Containers[name]
	if !ok {
		return nil, nil
	}
	copied := *info
	return &copied, nil
}

// Create creates a running container, or starts an existing one
func (m *MockProvider) Create(ctx context.Context, input CreateInput) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create", input)

	if err := m.Errors["Create"]; err != nil {
		return nil, err
	}
	if info, ok := m.Containers[input.Name]; ok {
		info.Status = devenv.StatusRunning
		copied := *info
		return &copied, nil
	}

	m.nextIP++
	info := &Info{
		Status: devenv.StatusRunning,
		IP:     fmt.Sprintf("172.17.0.%d", m.nextIP+1),
		Distro: input.Distro,
	}
	m.Containers[input.Name] = info
	copied := *info
	return &copied, nil
}

// Rename moves a container to a new name
func (m *MockProvider) Rename(ctx context.Context, current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Rename", current, next)

	if err := m.Errors["Rename"]; err != nil {
		return err
	}
	if current == next {
		return nil
	}
	info, ok := m.Containers[current]
	if !ok {
		return errors.ContainerFailed(fmt.Sprintf("Failed to rename Docker container '%s' to '%s': No such container", current, next), nil)
	}
	delete(m.Containers, current)
	m.Containers[next] = info
	if m.Bootstrapped[current] {
		delete(m.Bootstrapped, current)
		m.Bootstrapped[next] = true
	}
	return nil
}

// Bootstrap marks a container as bootstrapped
func (m *MockProvider) Bootstrap(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Bootstrap", name)

	if err := m.Errors["Bootstrap"]; err != nil {
		return err
	}
	m.Bootstrapped[name] = true
	return nil
}

// Destroy removes a container; a missing container is not an error
func (m *MockProvider) Destroy(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Destroy", name)

	if err := m.Errors["Destroy"]; err != nil {
		return err
	}
	delete(m.Containers, name)
	delete(m.Bootstrapped, name)
	return nil
}

// ResolveProxyTarget returns the container's current IP
func (m *MockProvider) ResolveProxyTarget(ctx context.Context, record devenv.Record, port int) (ProxyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ResolveProxyTarget", record.ID, port)

	if err := m.Errors["ResolveProxyTarget"]; err != nil {
		return ProxyTarget{}, err
	}
	info, ok := m.Containers[record.ID]
	if !ok || info.IP == "" {
		return ProxyTarget{}, errors.NoProxyAddress(record.ID)
	}
	return ProxyTarget{Host: info.IP, Port: port}, nil
}
