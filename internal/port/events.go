package port

import "github.com/swimhack/ezedit-gateway/internal/domain"

// Publisher broadcasts mutation events to interested observers.
// Publishing is fire-and-forget: implementations must never block the
// calling handler and may drop events for slow subscribers.
type Publisher interface {
	Publish(event domain.MutationEvent)
}
