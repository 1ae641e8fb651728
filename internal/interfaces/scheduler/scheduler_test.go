package scheduler

import (
	"testing"
	"time"
)

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{"02:00", ScheduleTime{Hour: 2, Minute: 0}, false},
		{"23:59", ScheduleTime{Hour: 23, Minute: 59}, false},
		{"0:5", ScheduleTime{Hour: 0, Minute: 5}, false},
		{"24:00", ScheduleTime{}, true},
		{"12:60", ScheduleTime{}, true},
		{"noon", ScheduleTime{}, true},
		{"", ScheduleTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScheduleTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseScheduleTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestShouldRunFiresOncePerMinute(t *testing.T) {
	sched, err := New(Config{
		ScheduleTimes: []string{"02:00"},
		WorkerCount:   1,
		QueueSize:     1,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	at := time.Date(2026, 3, 1, 2, 0, 30, 0, time.UTC)
	if !sched.shouldRun(at) {
		t.Error("expected first check at schedule time to fire")
	}
	if sched.shouldRun(at.Add(10 * time.Second)) {
		t.Error("expected second check in the same minute not to fire")
	}
	if sched.shouldRun(time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)) {
		t.Error("expected off-schedule minute not to fire")
	}
	if !sched.shouldRun(at.Add(24 * time.Hour)) {
		t.Error("expected the same schedule time next day to fire")
	}
}
