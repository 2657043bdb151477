// Package metrics provides the pipeline's metric recording abstraction and
// its Prometheus implementation.
package metrics

import "time"

// Recorder receives measurements from the pipeline stages. Implementations
// must be safe for use from a single goroutine; the pipeline is sequential.
type Recorder interface {
	// IncProviderRequest counts one request to an upstream provider.
	IncProviderRequest(provider string)
	// IncPageFetched counts one time-series page retrieved from OpenAQ.
	IncPageFetched()
	// IncQuotaWait counts one quota-exhaustion wait and its duration.
	IncQuotaWait(d time.Duration)
	// ObserveStage records the duration of one pipeline stage.
	ObserveStage(stage string, d time.Duration)
	// AddRows counts rows produced by a stage.
	AddRows(stage string, n int)
}

// Noop is a Recorder that discards all measurements.
type Noop struct{}

func (Noop) IncProviderRequest(string)           {}
func (Noop) IncPageFetched()                     {}
func (Noop) IncQuotaWait(time.Duration)          {}
func (Noop) ObserveStage(string, time.Duration)  {}
func (Noop) AddRows(string, int)                 {}

var _ Recorder = Noop{}
