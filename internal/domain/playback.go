package domain

import (
	"context"
	"time"
)

// PlayerSurface renders media. It receives a resolved URL and transport commands;
// decoding and projection are its own business.
type PlayerSurface interface {
	Load(ctx context.Context, url string) error
	Play(at time.Duration) error
	Pause() error
	Seek(to time.Duration) error
}
