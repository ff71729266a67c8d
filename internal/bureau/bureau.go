// Package bureau holds the credit bureau gateway port and a simulated
// implementation. The real bureau is an external, latency-bearing service;
// the simulator reproduces its shape (delay, verdict, score) so the
// application lifecycle can run end to end without it.
package bureau

import (
	"context"
	"strings"
	"time"
)

// Verdict status values returned by the bureau.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPending  = "pending"
)

// Verdict is the creditworthiness check result for a client.
type Verdict struct {
	Status    string    `json:"status"`
	Score     int       `json:"score"`
	CheckedAt time.Time `json:"checked_at"`
}

// CreditBureau is the gateway port consumed by the preliminary lifecycle.
type CreditBureau interface {
	CheckStatus(ctx context.Context, clientDNI string) (Verdict, error)
}

// SimulatedBureau answers deterministically from the national id so the same
// client always gets the same verdict: ids ending in 8 are rejected, ids
// ending in 9 come back pending, everything else is approved.
type SimulatedBureau struct {
	latency time.Duration
}

// NewSimulatedBureau returns a simulator that waits the given latency before
// answering, honoring context cancellation during the wait.
func NewSimulatedBureau(latency time.Duration) *SimulatedBureau {
	return &SimulatedBureau{latency: latency}
}

func (b *SimulatedBureau) CheckStatus(ctx context.Context, clientDNI string) (Verdict, error) {
	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case <-timer.C:
		}
	}

	v := Verdict{CheckedAt: time.Now()}
	switch {
	case strings.HasSuffix(clientDNI, "8"):
		v.Status = StatusRejected
		v.Score = scoreFor(clientDNI) % 400 // rejected clients always score low
	case strings.HasSuffix(clientDNI, "9"):
		v.Status = StatusPending
		v.Score = 0
	default:
		v.Status = StatusApproved
		v.Score = 500 + scoreFor(clientDNI)%400
	}
	return v, nil
}

// scoreFor derives a stable pseudo-score from the id digits.
func scoreFor(dni string) int {
	sum := 0
	for _, r := range dni {
		sum = sum*7 + int(r)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum
}
