package domain

import (
	"testing"
	"time"

	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

func testConfig(teamID uuid.UUID) []StepConfig {
	return []StepConfig{
		{ID: uuid.New(), TeamID: teamID, Sequence: 1, HoursBefore: 24, Label: "day before", AssignedRole: RoleSetter, Enabled: true},
		{ID: uuid.New(), TeamID: teamID, Sequence: 2, HoursBefore: 4, Label: "morning of", AssignedRole: RoleSetter, Enabled: true},
		{ID: uuid.New(), TeamID: teamID, Sequence: 3, HoursBefore: 0.5, Label: "final check", AssignedRole: RoleCloser, Enabled: true},
	}
}

func TestGenerateTasksDueTimes(t *testing.T) {
	teamID := uuid.New()
	appointmentID := uuid.New()
	startAt := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)

	tasks := GenerateTasks(appointmentID, teamID, startAt, testConfig(teamID), time.Now())

	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	wantDue := []time.Time{
		time.Date(2025, 1, 9, 18, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 10, 17, 30, 0, 0, time.UTC),
	}
	for i, task := range tasks {
		if !task.DueAt.Equal(wantDue[i]) {
			t.Fatalf("task %d: due at %v, want %v", i, task.DueAt, wantDue[i])
		}
		if task.RequiredConfirmations != 3 {
			t.Fatalf("task %d: required %d, want 3", i, task.RequiredConfirmations)
		}
		if task.CompletedConfirmations != 0 {
			t.Fatalf("task %d: completed %d, want 0", i, task.CompletedConfirmations)
		}
		if len(task.Attempts) != 0 {
			t.Fatalf("task %d: expected empty attempts", i)
		}
		if task.Sequence != i+1 {
			t.Fatalf("task %d: sequence %d, want %d", i, task.Sequence, i+1)
		}
	}
}

func TestGenerateTasksExcludesDisabledAndOffEntries(t *testing.T) {
	teamID := uuid.New()
	config := testConfig(teamID)
	config[0].Enabled = false
	config[2].AssignedRole = RoleOff

	tasks := GenerateTasks(uuid.New(), teamID, time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), config, time.Now())

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Sequence != 2 {
		t.Fatalf("expected surviving sequence 2, got %d", tasks[0].Sequence)
	}
	if tasks[0].RequiredConfirmations != 1 {
		t.Fatalf("required must count surviving entries only, got %d", tasks[0].RequiredConfirmations)
	}
}

func TestGenerateTasksEmptyConfig(t *testing.T) {
	tasks := GenerateTasks(uuid.New(), uuid.New(), time.Now(), nil, time.Now())
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

func TestRecordAttemptUntilDone(t *testing.T) {
	teamID := uuid.New()
	tasks := GenerateTasks(uuid.New(), teamID, time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), testConfig(teamID), time.Now())
	task := tasks[0]

	var err error
	for i := 0; i < task.RequiredConfirmations; i++ {
		task, err = RecordAttempt(task, Attempt{Timestamp: time.Now(), ConfirmedBy: "ops", Sequence: task.Sequence})
		if err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i+1, err)
		}
	}

	if !task.IsDone() {
		t.Fatal("expected task to be done after required attempts")
	}

	_, err = RecordAttempt(task, Attempt{Timestamp: time.Now(), ConfirmedBy: "ops"})
	if err == nil {
		t.Fatal("expected conflict on attempt past done")
	}
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", apperr.GetKind(err))
	}
	if len(task.Attempts) != task.RequiredConfirmations {
		t.Fatalf("attempts grew past required: %d", len(task.Attempts))
	}
}

func TestIsOverdueDerivedFromClock(t *testing.T) {
	due := time.Date(2025, 1, 10, 17, 30, 0, 0, time.UTC)
	task := Task{DueAt: due, RequiredConfirmations: 1}

	if task.IsOverdue(due.Add(-time.Minute)) {
		t.Fatal("task must not be overdue before its due time")
	}
	if !task.IsOverdue(due.Add(time.Minute)) {
		t.Fatal("task must be overdue after its due time")
	}

	done, err := RecordAttempt(task, Attempt{Timestamp: due, ConfirmedBy: "ops"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.IsOverdue(due.Add(time.Hour)) {
		t.Fatal("done task is never overdue")
	}
}

func TestUrgencyBuckets(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  time.Time
		want Urgency
	}{
		{"past due", now.Add(-time.Minute), UrgencyOverdue},
		{"under ten minutes", now.Add(5 * time.Minute), UrgencyUnder10m},
		{"under one hour", now.Add(30 * time.Minute), UrgencyUnder1h},
		{"under a day", now.Add(12 * time.Hour), UrgencyUnder24h},
		{"beyond a day", now.Add(48 * time.Hour), UrgencyScheduled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := Task{DueAt: tc.due, RequiredConfirmations: 1}
			got := UrgencyFor(task, now)
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
			if tc.want == UrgencyScheduled && got.IsUrgent() {
				t.Fatal("scheduled bucket must not be urgent")
			}
			if tc.want != UrgencyScheduled && !got.IsUrgent() {
				t.Fatal("non-scheduled buckets must be urgent")
			}
		})
	}
}

func TestUrgencyDoneTaskNeverEscalates(t *testing.T) {
	now := time.Now()
	task := Task{DueAt: now.Add(-time.Hour), RequiredConfirmations: 1, CompletedConfirmations: 1}
	if got := UrgencyFor(task, now); got != UrgencyScheduled {
		t.Fatalf("done task bucketed as %s", got)
	}
}

func TestTimelineOrderSortsByDueTime(t *testing.T) {
	teamID := uuid.New()
	tasks := GenerateTasks(uuid.New(), teamID, time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), testConfig(teamID), time.Now())

	ordered := TimelineOrder(tasks)
	for i := 1; i < len(ordered); i++ {
		if ordered[i].DueAt.Before(ordered[i-1].DueAt) {
			t.Fatal("timeline must be ordered by ascending due time")
		}
	}

	// Stored sequence order is untouched.
	for i, task := range tasks {
		if task.Sequence != i+1 {
			t.Fatalf("generation order mutated at %d", i)
		}
	}
}

func TestRenumberRestoresContiguity(t *testing.T) {
	teamID := uuid.New()
	config := testConfig(teamID)

	// Remove the middle entry.
	edited := []StepConfig{config[0], config[2]}
	renumbered := Renumber(edited)

	if len(renumbered) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(renumbered))
	}
	if renumbered[0].Sequence != 1 || renumbered[1].Sequence != 2 {
		t.Fatalf("sequences not contiguous: %d, %d", renumbered[0].Sequence, renumbered[1].Sequence)
	}
	if renumbered[1].Label != "final check" {
		t.Fatal("relative order must be preserved")
	}
}
