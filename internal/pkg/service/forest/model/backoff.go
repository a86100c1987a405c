package model

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

func newUpdateBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Millisecond
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	b.Reset()
	return b
}

// timeAfter is replaceable in tests.
var timeAfter = time.After // nolint: gochecknoglobals
