package unfurl

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Domain is failing
	stateHalfOpen                     // Testing if domain recovered
)

// circuitBreaker tracks failures per domain and stops fetching from failing ones
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	logger           *slog.Logger
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

// newCircuitBreaker creates a circuit breaker with default settings
func newCircuitBreaker(logger *slog.Logger) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 3,               // Open after 3 consecutive failures
		openDuration:     5 * time.Minute, // Keep open for 5 minutes
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		logger:           logger,
	}
}

// canAttempt reports whether a fetch from domain may proceed.
// An open circuit moves to half-open once openDuration has passed.
func (cb *circuitBreaker) canAttempt(domain string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state[domain] != stateOpen {
		return nil
	}

	lastFail := cb.lastFailure[domain]
	if time.Since(lastFail) > cb.openDuration {
		cb.state[domain] = stateHalfOpen
		cb.logger.Info("unfurl circuit half-open", "domain", domain)
		return nil
	}
	return fmt.Errorf("%w for %s (failures: %d, next retry: %s)",
		ErrCircuitOpen, domain, cb.failures[domain], lastFail.Add(cb.openDuration).Format("15:04:05"))
}

// recordSuccess resets failure tracking for domain
func (cb *circuitBreaker) recordSuccess(domain string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state[domain] != stateClosed {
		cb.logger.Info("unfurl circuit closed", "domain", domain)
	}
	delete(cb.failures, domain)
	delete(cb.lastFailure, domain)
	delete(cb.state, domain)
}

// recordFailure counts a failed fetch and opens the circuit at the threshold
func (cb *circuitBreaker) recordFailure(domain string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[domain]++
	cb.lastFailure[domain] = time.Now()
	failCount := cb.failures[domain]

	// A failed probe while half-open reopens immediately.
	if failCount >= cb.failureThreshold || cb.state[domain] == stateHalfOpen {
		if cb.state[domain] != stateOpen {
			cb.logger.Warn("unfurl circuit opened",
				"domain", domain, "failures", failCount, "error", err)
		}
		cb.state[domain] = stateOpen
		return
	}
	cb.logger.Debug("unfurl failure",
		"domain", domain, "failures", failCount, "threshold", cb.failureThreshold, "error", err)
}
