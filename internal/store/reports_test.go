package store

import (
	"errors"
	"testing"
	"time"
)

func TestSaveReport_Upsert(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetReport(1); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("GetReport err = %v, want ErrReportNotFound", err)
	}

	first := &StoredReport{WorkoutID: 1, ReportID: "a", SchemaVersion: 1, Payload: []byte(`{"v":1}`)}
	if err := db.SaveReport(first); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	second := &StoredReport{
		WorkoutID:     1,
		ReportID:      "b",
		SchemaVersion: 1,
		Payload:       []byte(`{"v":2}`),
		ComputedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := db.SaveReport(second); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	got, err := db.GetReport(1)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got.ReportID != "b" {
		t.Errorf("ReportID = %q, want %q", got.ReportID, "b")
	}
	if string(got.Payload) != `{"v":2}` {
		t.Errorf("Payload = %s, want {\"v\":2}", got.Payload)
	}
	if !got.ComputedAt.Equal(second.ComputedAt) {
		t.Errorf("ComputedAt = %v, want %v", got.ComputedAt, second.ComputedAt)
	}
}

func TestListReportsSince(t *testing.T) {
	db := setupTestDB(t)

	for _, id := range []int64{1, 2} {
		if err := db.SaveReport(&StoredReport{WorkoutID: id, ReportID: "r", SchemaVersion: 1, Payload: []byte(`{}`)}); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	all, err := db.ListReportsSince(time.Time{})
	if err != nil {
		t.Fatalf("ListReportsSince failed: %v", err)
	}
	if len(all) != 2 || all[0].WorkoutID != 1 {
		t.Errorf("ListReportsSince = %+v, want workouts 1 then 2", all)
	}

	recent, _ := db.ListReportsSince(time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC))
	if len(recent) != 1 || recent[0].WorkoutID != 2 {
		t.Errorf("recent = %+v, want workout 2", recent)
	}

	if err := db.DeleteWorkout(2); err != nil {
		t.Fatalf("DeleteWorkout failed: %v", err)
	}
	if _, err := db.GetReport(2); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("report survived workout delete: %v", err)
	}
}
