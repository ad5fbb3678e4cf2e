package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Vumbi2018/lgis-sub001/internal/audit"
)

// Manual smoke test for the audit publisher: emits events synchronously,
// then floods a small async buffer to observe drop behavior.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(
		store,
		audit.WithAsyncBuffer(10), // Small buffer to test backpressure
		audit.WithPublisherLogger(logger),
	)

	ctx := context.Background()
	requestID := "bg_" + uuid.NewString()

	fmt.Println("\n=== Audit Publisher Test ===")

	fmt.Println("1. Emitting 5 lifecycle events...")
	for i := 0; i < 5; i++ {
		event := audit.Event{
			ActorID:   "smoke-test",
			RequestID: requestID,
			Action:    audit.ActionBreakGlassCreated,
			Status:    "pending",
			Reason:    fmt.Sprintf("test event %d", i+1),
		}
		if err := publisher.Emit(ctx, event); err != nil {
			fmt.Printf("   Event %d failed: %v\n", i+1, err)
		} else {
			fmt.Printf("   Event %d emitted\n", i+1)
		}
		time.Sleep(50 * time.Millisecond) // Small delay to let worker process
	}

	time.Sleep(200 * time.Millisecond)

	// Drops are logged, not returned, so the store count tells the story.
	fmt.Println("\n2. Flooding buffer with 50 events (buffer size is 10)...")
	for i := 0; i < 50; i++ {
		event := audit.Event{
			ActorID:   "smoke-test",
			RequestID: requestID,
			Action:    audit.ActionBreakGlassExpired,
			Status:    "expired",
			Reason:    fmt.Sprintf("flood event %d", i+1),
		}
		publisher.Emit(ctx, event) //nolint:errcheck // async path never errors
	}

	publisher.Close()

	events, err := publisher.List(ctx, requestID)
	if err != nil {
		fmt.Printf("   List failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n3. Store holds %d of 55 emitted events (%d dropped under backpressure)\n",
		len(events), 55-len(events))
}
