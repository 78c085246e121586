package store

import (
	"errors"
	"testing"
	"time"
)

// setupTestDB creates an in-memory database with two workouts (IDs 1 and 2)
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	for i, start := range []time.Time{
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
	} {
		w := &Workout{
			FileName:     "run" + string(rune('a'+i)) + ".tcx",
			Sport:        "Running",
			StartTime:    start,
			TotalTimeSec: 1500,
			DistanceM:    5000,
		}
		if _, err := db.InsertWorkout(w, nil); err != nil {
			t.Fatalf("Failed to insert test workout: %v", err)
		}
	}

	return db
}

func TestUpsertPersonalRecord_CreateNew(t *testing.T) {
	db := setupTestDB(t)

	pace := 300.0
	avgHR := 155.0
	pr := &PersonalRecord{
		Category:        "record_5k",
		WorkoutID:       1,
		DistanceMeters:  5000,
		DurationSeconds: 1500,
		PaceSecKm:       &pace,
		AvgHeartrate:    &avgHR,
		Segment:         "0.00–5.00 km",
		AchievedAt:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		StartIndex:      0,
		EndIndex:        1500,
	}

	updated, err := db.UpsertPersonalRecord(pr)
	if err != nil {
		t.Fatalf("UpsertPersonalRecord failed: %v", err)
	}
	if !updated {
		t.Error("Expected updated=true for new record")
	}

	fetched, err := db.GetPersonalRecordByCategory("record_5k")
	if err != nil {
		t.Fatalf("GetPersonalRecordByCategory failed: %v", err)
	}
	if fetched.DurationSeconds != 1500 {
		t.Errorf("DurationSeconds = %v, want 1500", fetched.DurationSeconds)
	}
	if fetched.Segment != "0.00–5.00 km" {
		t.Errorf("Segment = %q, want %q", fetched.Segment, "0.00–5.00 km")
	}
	if fetched.EndIndex != 1500 {
		t.Errorf("EndIndex = %d, want 1500", fetched.EndIndex)
	}
	if fetched.PaceSecKm == nil || *fetched.PaceSecKm != 300 {
		t.Errorf("PaceSecKm = %v, want 300", fetched.PaceSecKm)
	}
}

func TestUpsertPersonalRecord_UpdateOnlyIfFaster(t *testing.T) {
	db := setupTestDB(t)

	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_5k", WorkoutID: 1, DistanceMeters: 5000, DurationSeconds: 1500,
		AchievedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})

	updated, err := db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_5k", WorkoutID: 2, DistanceMeters: 5000, DurationSeconds: 1600,
		AchievedAt: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("UpsertPersonalRecord failed: %v", err)
	}
	if updated {
		t.Error("Expected updated=false for slower time")
	}

	fetched, _ := db.GetPersonalRecordByCategory("record_5k")
	if fetched.DurationSeconds != 1500 {
		t.Errorf("DurationSeconds = %v, want 1500", fetched.DurationSeconds)
	}
	if fetched.WorkoutID != 1 {
		t.Errorf("WorkoutID = %d, want 1", fetched.WorkoutID)
	}
}

func TestUpsertPersonalRecord_UpdateWhenFaster(t *testing.T) {
	db := setupTestDB(t)

	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_5k", WorkoutID: 1, DistanceMeters: 5000, DurationSeconds: 1500,
		AchievedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})

	updated, err := db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_5k", WorkoutID: 2, DistanceMeters: 5000, DurationSeconds: 1400.5,
		AchievedAt: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("UpsertPersonalRecord failed: %v", err)
	}
	if !updated {
		t.Error("Expected updated=true for faster time")
	}

	fetched, _ := db.GetPersonalRecordByCategory("record_5k")
	if fetched.DurationSeconds != 1400.5 {
		t.Errorf("DurationSeconds = %v, want 1400.5", fetched.DurationSeconds)
	}
	if fetched.WorkoutID != 2 {
		t.Errorf("WorkoutID = %d, want 2", fetched.WorkoutID)
	}
}

func TestGetAllPersonalRecords_OrderedByDistance(t *testing.T) {
	db := setupTestDB(t)

	for _, pr := range []*PersonalRecord{
		{Category: "record_10k", WorkoutID: 2, DistanceMeters: 10000, DurationSeconds: 3100, AchievedAt: time.Now()},
		{Category: "record_1k", WorkoutID: 1, DistanceMeters: 1000, DurationSeconds: 270, AchievedAt: time.Now()},
		{Category: "record_5k", WorkoutID: 1, DistanceMeters: 5000, DurationSeconds: 1500, AchievedAt: time.Now()},
	} {
		if _, err := db.UpsertPersonalRecord(pr); err != nil {
			t.Fatalf("UpsertPersonalRecord failed: %v", err)
		}
	}

	all, err := db.GetAllPersonalRecords()
	if err != nil {
		t.Fatalf("GetAllPersonalRecords failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].Category != "record_1k" || all[2].Category != "record_10k" {
		t.Errorf("order = %s, %s, %s; want record_1k first and record_10k last",
			all[0].Category, all[1].Category, all[2].Category)
	}
}

func TestGetPersonalRecordsForWorkout(t *testing.T) {
	db := setupTestDB(t)

	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_5k", WorkoutID: 1, DistanceMeters: 5000, DurationSeconds: 1500, AchievedAt: time.Now(),
	})
	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_1k", WorkoutID: 1, DistanceMeters: 1000, DurationSeconds: 280, AchievedAt: time.Now(),
	})
	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_3k", WorkoutID: 2, DistanceMeters: 3000, DurationSeconds: 880, AchievedAt: time.Now(),
	})

	records, err := db.GetPersonalRecordsForWorkout(1)
	if err != nil {
		t.Fatalf("GetPersonalRecordsForWorkout failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestGetPersonalRecordByCategory_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetPersonalRecordByCategory("nonexistent")
	if !errors.Is(err, ErrPersonalRecordNotFound) {
		t.Errorf("err = %v, want ErrPersonalRecordNotFound", err)
	}
}

func TestPersonalRecords_CascadeOnWorkoutDelete(t *testing.T) {
	db := setupTestDB(t)

	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_5k", WorkoutID: 1, DistanceMeters: 5000, DurationSeconds: 1500, AchievedAt: time.Now(),
	})
	db.UpsertPersonalRecord(&PersonalRecord{
		Category: "record_3k", WorkoutID: 2, DistanceMeters: 3000, DurationSeconds: 880, AchievedAt: time.Now(),
	})

	if err := db.DeleteWorkout(1); err != nil {
		t.Fatalf("DeleteWorkout failed: %v", err)
	}

	all, _ := db.GetAllPersonalRecords()
	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want 1", len(all))
	}
	if all[0].WorkoutID != 2 {
		t.Errorf("WorkoutID = %d, want 2", all[0].WorkoutID)
	}

	if err := db.DeleteAllPersonalRecords(); err != nil {
		t.Fatalf("DeleteAllPersonalRecords failed: %v", err)
	}
	all, _ = db.GetAllPersonalRecords()
	if len(all) != 0 {
		t.Errorf("len(all) = %d after delete, want 0", len(all))
	}
}
