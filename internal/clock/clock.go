// Package clock abstracts the time source so window and due-date rules
// stay testable.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns the wall clock, normalized to UTC.
func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
