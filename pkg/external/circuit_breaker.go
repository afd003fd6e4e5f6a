package external

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/biomarker-range-server/internal/domain"
)

// defaultBreakerConfig mirrors the thresholds used for every upstream data source.
var defaultBreakerConfig = domain.BreakerConfig{
	MaxRequests:  5,
	Interval:     30 * time.Second,
	Timeout:      60 * time.Second,
	MinRequests:  3,
	FailureRatio: 0.6,
}

// newCircuitBreaker builds a breaker for one upstream source. Zero fields fall back to the
// defaults.
func newCircuitBreaker(name string, config domain.BreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = defaultBreakerConfig.MaxRequests
	}
	if config.Interval == 0 {
		config.Interval = defaultBreakerConfig.Interval
	}
	if config.Timeout == 0 {
		config.Timeout = defaultBreakerConfig.Timeout
	}
	if config.MinRequests == 0 {
		config.MinRequests = defaultBreakerConfig.MinRequests
	}
	if config.FailureRatio == 0 {
		config.FailureRatio = defaultBreakerConfig.FailureRatio
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}
