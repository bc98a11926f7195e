package httpapi

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shipdesk/intake/internal/intake"
	"github.com/shipdesk/intake/internal/workflow"
	"github.com/sirupsen/logrus"
)

// Registry holds the active intake sessions, one workflow machine each.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*workflow.Machine
	client   workflow.RateClient
	observer workflow.Observer
	logger   *logrus.Logger
}

func NewRegistry(client workflow.RateClient, observer workflow.Observer, logger *logrus.Logger) *Registry {
	return &Registry{
		machines: make(map[string]*workflow.Machine),
		client:   client,
		observer: observer,
		logger:   logger,
	}
}

// Create starts a fresh session with an empty form and returns its machine.
func (r *Registry) Create() *workflow.Machine {
	id := uuid.New().String()
	m := workflow.New(id, intake.NewForm(), r.client, r.logger)
	if r.observer != nil {
		m.SetObserver(r.observer)
	}

	r.mu.Lock()
	r.machines[id] = m
	r.mu.Unlock()

	r.logger.WithField("session_id", id).Info("Intake session created")
	return m
}

func (r *Registry) Get(id string) (*workflow.Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[id]
	return m, ok
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[id]; !ok {
		return false
	}
	delete(r.machines, id)
	r.logger.WithField("session_id", id).Info("Intake session deleted")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}
