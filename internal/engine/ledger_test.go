package engine

import (
	"context"
	"errors"
	"testing"
)

func TestBalanceMoveRejectsNonPositiveAmounts(t *testing.T) {
	s := testService(1)
	ctx := context.Background()
	// The guard fires before any storage access, so a bare service is fine.
	for _, amount := range []int64{0, -5} {
		if _, err := s.Deposit(ctx, "alice", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("deposit of %d: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := s.Withdraw(ctx, "alice", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("withdraw of %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}
