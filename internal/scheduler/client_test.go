package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type fakeSchedulerConfig struct {
	redisURL string
}

func (f fakeSchedulerConfig) GetRedisURL() string       { return f.redisURL }
func (f fakeSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (f fakeSchedulerConfig) GetAsynqQueueName() string { return "test" }
func (f fakeSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestClientSchedulesTasks(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(fakeSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	runAt := time.Now().Add(time.Hour)
	check := ConfirmationCheckPayload{TaskID: uuid.NewString(), TeamID: uuid.NewString()}

	if err := client.ScheduleConfirmationDue(ctx, check, runAt); err != nil {
		t.Fatalf("failed to schedule due check: %v", err)
	}
	if err := client.ScheduleConfirmationOverdue(ctx, check, runAt.Add(15*time.Minute)); err != nil {
		t.Fatalf("failed to schedule overdue check: %v", err)
	}

	delayed := DelayedTriggerPayload{
		TeamID:       uuid.NewString(),
		Trigger:      "time_delay",
		EventPayload: map[string]any{"leadId": uuid.NewString()},
	}
	if err := client.ScheduleDelayedTrigger(ctx, delayed, runAt); err != nil {
		t.Fatalf("failed to schedule delayed trigger: %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client

	if err := client.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := client.ScheduleConfirmationDue(context.Background(), ConfirmationCheckPayload{}, time.Now()); err != nil {
		t.Fatalf("nil client must no-op: %v", err)
	}
}
