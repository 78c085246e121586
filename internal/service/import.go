package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"runlog/internal/analysis"
	"runlog/internal/ingest"
	"runlog/internal/store"
)

// ImportStatus describes what happened to one file
type ImportStatus string

const (
	StatusImported  ImportStatus = "imported"
	StatusDuplicate ImportStatus = "duplicate"
	StatusFailed    ImportStatus = "failed"
)

// ImportService turns activity files into stored workouts, reports and records
type ImportService struct {
	store  *store.DB
	cfg    analysis.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewImportService creates an import service. A nil logger uses slog.Default.
func NewImportService(db *store.DB, cfg analysis.Config, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{store: db, cfg: cfg, logger: logger, now: time.Now}
}

// ImportResult is the outcome of importing a single file
type ImportResult struct {
	Path       string
	Status     ImportStatus
	WorkoutID  int64
	ReportID   string
	Sport      string
	DistanceM  float64
	Points     int
	NewRecords []string // categories improved by this workout
	Err        error
}

// ImportSummary counts import results by status
type ImportSummary struct {
	Imported   int
	Duplicates int
	Failed     int
	Errors     []error
}

// Summarize counts a batch of import results
func Summarize(results []ImportResult) ImportSummary {
	var s ImportSummary
	for _, r := range results {
		switch r.Status {
		case StatusImported:
			s.Imported++
		case StatusDuplicate:
			s.Duplicates++
		case StatusFailed:
			s.Failed++
			if r.Err != nil {
				s.Errors = append(s.Errors, r.Err)
			}
		}
	}
	return s
}

// ImportFile parses, stores and analyzes one activity file. Files already
// imported come back with StatusDuplicate and no error. Structurally invalid
// files are rejected before anything is stored.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { importDuration.Observe(time.Since(start).Seconds()) }()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	result := &ImportResult{Path: path}

	fail := func(err error) (*ImportResult, error) {
		importsTotal.WithLabelValues(format, string(StatusFailed)).Inc()
		result.Status = StatusFailed
		result.Err = err
		s.logger.Error("import failed", "file", filepath.Base(path), "error", err)
		return result, err
	}

	parsed, err := ingest.ParseFile(path)
	if err != nil {
		return fail(err)
	}
	result.Sport = parsed.Workout.Sport
	result.DistanceM = parsed.Workout.DistanceM
	result.Points = len(parsed.Points)

	report, err := s.analyze(parsed.Workout, parsed.Points)
	if err != nil {
		return fail(fmt.Errorf("analyzing %s: %w", filepath.Base(path), err))
	}

	id, err := s.store.InsertWorkout(&parsed.Workout, parsed.Points)
	if errors.Is(err, store.ErrDuplicateWorkout) {
		importsTotal.WithLabelValues(format, string(StatusDuplicate)).Inc()
		result.Status = StatusDuplicate
		s.logger.Info("already imported", "file", filepath.Base(path))
		return result, nil
	}
	if err != nil {
		return fail(fmt.Errorf("storing %s: %w", filepath.Base(path), err))
	}
	result.WorkoutID = id

	reportID, err := s.saveReport(id, report)
	if err != nil {
		result.WorkoutID = 0
		return fail(s.discard(id, false, err))
	}
	result.ReportID = reportID

	improved, err := s.updateRecords(id, report)
	if err != nil {
		result.WorkoutID, result.ReportID = 0, ""
		return fail(s.discard(id, true, err))
	}
	result.NewRecords = improved

	importsTotal.WithLabelValues(format, string(StatusImported)).Inc()
	trackpointsImported.Add(float64(len(parsed.Points)))
	result.Status = StatusImported

	s.logger.Info("imported workout",
		"file", filepath.Base(path),
		"workout_id", id,
		"sport", parsed.Workout.Sport,
		"distance_km", round3(metersToKm(parsed.Workout.DistanceM)),
		"points", len(parsed.Points),
		"new_records", len(improved),
	)
	return result, nil
}

// ImportPath imports a single file or every supported file below a directory,
// in lexical order. Per-file failures are reported in the results; the
// returned error is reserved for an unreadable path or a cancelled context.
func (s *ImportService) ImportPath(ctx context.Context, path string) ([]ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var files []string
	if !info.IsDir() {
		files = []string{path}
	} else {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && ingest.IsSupported(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
		slices.Sort(files)
	}

	results := make([]ImportResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := s.ImportFile(ctx, f)
		if r == nil {
			return results, err
		}
		results = append(results, *r)
	}
	return results, nil
}

// ReanalyzeProgress reports progress during a reanalysis
type ReanalyzeProgress struct {
	Total     int
	Completed int
	WorkoutID int64
	Error     error
}

// ReanalyzeResult contains the results of a reanalysis
type ReanalyzeResult struct {
	Workouts int
	Reports  int
	Records  int
	Errors   []error
}

type analyzed struct {
	id     int64
	report *analysis.Report
	err    error
}

// Reanalyze rebuilds every stored report with the current configuration using
// a pool of workers, then rebuilds the all-time records from the new reports.
// Workers only read and compute; reports are written from the calling goroutine.
func (s *ImportService) Reanalyze(ctx context.Context, workers int, progress chan<- ReanalyzeProgress) (*ReanalyzeResult, error) {
	if progress != nil {
		defer close(progress)
	}
	if workers <= 0 {
		workers = DefaultReanalyzeWorkers
	}

	ids, err := s.store.AllWorkoutIDs()
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	result := &ReanalyzeResult{Workouts: len(ids)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int64)
	out := make(chan analyzed)

	var wg sync.WaitGroup
	for range min(workers, max(len(ids), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				report, err := s.analyzeStored(id)
				select {
				case out <- analyzed{id: id, report: report, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	completed := 0
	for a := range out {
		completed++
		err := a.err
		if err == nil {
			_, err = s.saveReport(a.id, a.report)
		}
		if err != nil {
			err = fmt.Errorf("workout %d: %w", a.id, err)
			result.Errors = append(result.Errors, err)
			s.logger.Error("reanalysis failed", "workout_id", a.id, "error", err)
		} else {
			result.Reports++
		}
		if progress != nil {
			progress <- ReanalyzeProgress{Total: len(ids), Completed: completed, WorkoutID: a.id, Error: err}
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	records, err := s.RebuildRecords()
	if err != nil {
		return result, fmt.Errorf("rebuilding records: %w", err)
	}
	result.Records = records

	s.logger.Info("reanalysis complete",
		"workouts", result.Workouts,
		"reports", result.Reports,
		"records", result.Records,
		"errors", len(result.Errors),
	)
	return result, nil
}

// DeleteWorkout removes a workout with its trackpoints and report, then
// rebuilds the all-time records so none points at the deleted workout.
func (s *ImportService) DeleteWorkout(id int64) error {
	if err := s.store.DeleteWorkout(id); err != nil {
		return err
	}
	if _, err := s.RebuildRecords(); err != nil {
		return fmt.Errorf("rebuilding records: %w", err)
	}
	s.logger.Info("deleted workout", "workout_id", id)
	return nil
}

// RebuildRecords recomputes the all-time records from the stored reports,
// oldest workout first, so the earliest of two equal times is kept.
// Returns the number of categories holding a record.
func (s *ImportService) RebuildRecords() (int, error) {
	if err := s.store.DeleteAllPersonalRecords(); err != nil {
		return 0, err
	}

	stored, err := s.store.ListReportsSince(time.Time{})
	if err != nil {
		return 0, fmt.Errorf("listing reports: %w", err)
	}

	categories := make(map[string]bool)
	for _, sr := range stored {
		report, err := analysis.UnmarshalReport(sr.Payload)
		if err != nil {
			s.logger.Warn("skipping unreadable report", "workout_id", sr.WorkoutID, "error", err)
			continue
		}
		for _, rec := range report.Records {
			if _, err := s.store.UpsertPersonalRecord(recordFromAnalysis(sr.WorkoutID, rec)); err != nil {
				return 0, fmt.Errorf("storing record %s: %w", rec.Category(), err)
			}
			categories[rec.Category()] = true
		}
	}
	return len(categories), nil
}

// discard removes a workout whose report or records could not be stored, so
// the next import of the file starts over instead of finding a duplicate.
// Records are rebuilt when some may already point at the workout.
func (s *ImportService) discard(id int64, rebuildRecords bool, cause error) error {
	remove := s.store.DeleteWorkout
	if rebuildRecords {
		remove = s.DeleteWorkout
	}
	if err := remove(id); err != nil {
		return errors.Join(cause, fmt.Errorf("removing workout %d: %w", id, err))
	}
	return cause
}

// analyze builds a report and times it
func (s *ImportService) analyze(w store.Workout, points []store.Trackpoint) (*analysis.Report, error) {
	start := time.Now()
	report, err := analysis.Analyze(w, points, s.cfg)
	analysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		analysisFailures.Inc()
		return nil, err
	}
	return report, nil
}

// analyzeStored loads a workout with its trackpoints and analyzes it
func (s *ImportService) analyzeStored(id int64) (*analysis.Report, error) {
	w, err := s.store.GetWorkout(id)
	if err != nil {
		return nil, err
	}
	points, err := s.store.GetTrackpoints(id)
	if err != nil {
		return nil, fmt.Errorf("loading trackpoints: %w", err)
	}
	return s.analyze(*w, points)
}

// saveReport stores a report under a fresh report ID
func (s *ImportService) saveReport(workoutID int64, report *analysis.Report) (string, error) {
	payload, err := analysis.MarshalReport(report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	reportID := uuid.NewString()
	err = s.store.SaveReport(&store.StoredReport{
		WorkoutID:     workoutID,
		ReportID:      reportID,
		SchemaVersion: report.SchemaVersion,
		Payload:       payload,
		ComputedAt:    s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}
	return reportID, nil
}

// updateRecords offers every record in the report to the all-time table
func (s *ImportService) updateRecords(workoutID int64, report *analysis.Report) ([]string, error) {
	var improved []string
	for _, rec := range report.Records {
		updated, err := s.store.UpsertPersonalRecord(recordFromAnalysis(workoutID, rec))
		if err != nil {
			return improved, fmt.Errorf("storing record %s: %w", rec.Category(), err)
		}
		if updated {
			improved = append(improved, rec.Category())
			recordsSet.WithLabelValues(rec.Category()).Inc()
		}
	}
	return improved, nil
}

func recordFromAnalysis(workoutID int64, rec analysis.Record) *store.PersonalRecord {
	pace := rec.PaceSecPerKm()
	return &store.PersonalRecord{
		Category:        rec.Category(),
		WorkoutID:       workoutID,
		DistanceMeters:  rec.Distance,
		DurationSeconds: rec.ExactDuration,
		PaceSecKm:       &pace,
		AvgHeartrate:    rec.AvgHR,
		Segment:         rec.Segment,
		AchievedAt:      rec.AchievedOn,
		StartIndex:      rec.StartIndex,
		EndIndex:        rec.EndIndex,
	}
}
