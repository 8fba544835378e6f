package faults

import (
	"context"
	"time"
)

// Store persists fault records.
type Store interface {
	Record(ctx context.Context, fault *Fault) error
	Recent(ctx context.Context, limit int) ([]Fault, error)
	Close() error
}

// Fault is one non-fatal failure observed by the sampling loop.
type Fault struct {
	Timestamp time.Time
	Code      string
	Message   string
	Source    string
}
