package health

import (
	"context"
	"errors"
	"fmt"
)

// HubSession reports readiness based on whether a hub is currently connected
// and past the handshake. connected is read on every probe; it must be safe
// for concurrent use.
func HubSession(connected func() bool) Checker {
	return Checker{
		Name: "hub",
		Check: func(_ context.Context) error {
			if !connected() {
				return errors.New("no hub session established")
			}
			return nil
		},
	}
}

// AudioQueue fails once the capture queue has evicted chunks under
// backpressure, which means the engine loop stopped draining audio. dropped
// must be safe for concurrent use.
func AudioQueue(dropped func() uint64) Checker {
	var last uint64
	return Checker{
		Name: "audio",
		Check: func(_ context.Context) error {
			d := dropped()
			defer func() { last = d }()
			if d > last {
				return fmt.Errorf("%d audio chunks dropped since last probe", d-last)
			}
			return nil
		},
	}
}

// WakeWords fails when no wake word is active, since the satellite cannot be
// triggered by voice in that state.
func WakeWords(active func() []string) Checker {
	return Checker{
		Name: "wake_words",
		Check: func(_ context.Context) error {
			if len(active()) == 0 {
				return errors.New("no active wake words")
			}
			return nil
		},
	}
}
