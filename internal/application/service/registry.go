package service

import (
	"sort"
	"sync"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"
)

var _ output.StepRegistry = (*StepRegistryImpl)(nil)

type StepRegistryImpl struct {
	mu       sync.RWMutex
	handlers map[entity.StepKind]output.StepHandler
}

func NewStepRegistry() *StepRegistryImpl {
	return &StepRegistryImpl{
		handlers: make(map[entity.StepKind]output.StepHandler),
	}
}

func (r *StepRegistryImpl) Register(handler output.StepHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.Kind()] = handler
}

func (r *StepRegistryImpl) Get(kind entity.StepKind) (output.StepHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[kind]
	return handler, ok
}

func (r *StepRegistryImpl) Kinds() []entity.StepKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]entity.StepKind, 0, len(r.handlers))
	for kind := range r.handlers {
		result = append(result, kind)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
