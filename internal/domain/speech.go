package domain

import "context"

// Speaker reads card text aloud. Speech is device-specific, so the engine only
// depends on this capability and callers inject an implementation.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// NoopSpeaker discards everything it is asked to say.
type NoopSpeaker struct{}

func (NoopSpeaker) Speak(context.Context, string) error { return nil }
