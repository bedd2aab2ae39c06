package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	// Zero disables the breaker.
	MaxFailures int
	Interval    time.Duration
	Timeout     time.Duration
	// IsFailure decides whether an error counts against the breaker; nil counts every error.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to string)
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		return &CircuitBreaker{}
	}

	st := gobreaker.Settings{
		Name:     settings.Name,
		Interval: settings.Interval,
		Timeout:  settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(settings.MaxFailures)
		},
	}
	if settings.IsFailure != nil {
		st.IsSuccessful = func(err error) bool {
			return err == nil || !settings.IsFailure(err)
		}
	}
	if settings.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			settings.OnStateChange(name, from.String(), to.String())
		}
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *CircuitBreaker) Execute(fn func() error) error {
	if b.cb == nil {
		return fn()
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// State reports "closed", "half-open" or "open".
func (b *CircuitBreaker) State() string {
	if b.cb == nil {
		return gobreaker.StateClosed.String()
	}
	return b.cb.State().String()
}
