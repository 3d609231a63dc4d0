package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 5 * time.Second

// Service is a component which can report its own health.
type Service interface {
	IsAlive(ctx context.Context) bool
}

// Prober aggregates the health of the watched services.
type Prober interface {
	Watch(services ...Service)
	IsAlive() bool
}

type Probe struct {
	mu       sync.RWMutex
	timeout  time.Duration
	services []Service
}

// NewProbe creates a probe which gives every service at most timeout to answer.
func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{timeout: timeout}
}

func (p *Probe) Watch(services ...Service) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.services = append(p.services, services...)
}

// IsAlive is true when every watched service is alive (and when nothing is watched yet).
func (p *Probe) IsAlive() bool {
	p.mu.RLock()
	services := p.services
	p.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	for _, service := range services {
		if !service.IsAlive(ctx) {
			log.Warn().Msgf("[liveness] %T is not alive", service)
			return false
		}
	}
	return true
}
