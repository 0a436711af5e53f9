// Package inference - Forward pass backends.
package inference

import (
	"sync"
	"time"

	"github.com/nvr-ai/go-bev/inference/providers"
	"gorgonia.org/tensor"
)

// Forwarder runs one model forward pass.
//
// Outputs are keyed by the node names the model family declares.
type Forwarder interface {
	Forward(input *tensor.Dense) (map[string]*tensor.Dense, error)
	Close() error
}

// sessionForwarder adapts an ONNX Runtime session.
type sessionForwarder struct {
	session *providers.Session
}

func (f sessionForwarder) Forward(input *tensor.Dense) (map[string]*tensor.Dense, error) {
	return f.session.Run(input)
}

func (f sessionForwarder) Close() error {
	return f.session.Close()
}

// Metrics holds forward pass statistics.
type Metrics struct {
	// Forwards is the number of completed forward passes.
	Forwards int64
	// Failures is the number of forward passes that returned an error.
	Failures int64
	// Total is the cumulative forward time of completed passes.
	Total time.Duration
}

// Average returns the mean forward time, or zero before the first pass.
func (m Metrics) Average() time.Duration {
	if m.Forwards == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Forwards)
}

// profiledForwarder wraps a Forwarder with timing.
type profiledForwarder struct {
	forwarder Forwarder
	mu        sync.RWMutex
	metrics   Metrics
}

func newProfiledForwarder(f Forwarder) *profiledForwarder {
	return &profiledForwarder{forwarder: f}
}

func (p *profiledForwarder) Forward(input *tensor.Dense) (map[string]*tensor.Dense, error) {
	start := time.Now()
	out, err := p.forwarder.Forward(input)
	elapsed := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.metrics.Failures++
		return nil, err
	}
	p.metrics.Forwards++
	p.metrics.Total += elapsed
	return out, nil
}

func (p *profiledForwarder) Close() error {
	return p.forwarder.Close()
}

// Metrics returns a snapshot of the counters.
func (p *profiledForwarder) Metrics() Metrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metrics
}

// ResetMetrics clears all counters.
func (p *profiledForwarder) ResetMetrics() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = Metrics{}
}
