package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"runlog/internal/analysis"
	"runlog/internal/service"
	"runlog/internal/store"
)

// WorkoutView is the API form of a stored workout
type WorkoutView struct {
	ID         int64    `json:"id"`
	FileName   string   `json:"file_name"`
	Sport      string   `json:"sport"`
	StartTime  string   `json:"start_time"`
	Date       string   `json:"date"`
	DurationS  float64  `json:"duration_s"`
	Time       string   `json:"time"`
	DistanceKm float64  `json:"dist_km"`
	Calories   *int     `json:"calories"`
	AvgHR      *float64 `json:"avg_hr"`
	MaxHR      *int     `json:"max_hr"`
	Pace       *string  `json:"pace"`
	AvgCadence *float64 `json:"avg_cadence"`
}

// ListWorkoutsResponse is one page of workouts, newest first
type ListWorkoutsResponse struct {
	Items  []WorkoutView `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// WorkoutResponse is a workout with its report and the records it holds
type WorkoutResponse struct {
	Workout  WorkoutView      `json:"workout"`
	ReportID *string          `json:"report_id"`
	Report   *analysis.Report `json:"report"`
	Records  []RecordView     `json:"records"`
}

// SummaryResponse holds the dashboard headline numbers
type SummaryResponse struct {
	TotalWorkouts int          `json:"total_workouts"`
	TotalKm       float64      `json:"total_km"`
	TotalTimeH    float64      `json:"total_time_h"`
	TotalCal      int          `json:"total_cal"`
	KmThisMonth   float64      `json:"km_this_month"`
	RunsThisMonth int          `json:"runs_this_month"`
	StreakWeeks   int          `json:"streak_weeks"`
	Last          *WorkoutView `json:"last"`
}

// WeekView is one week of the weekly volume chart
type WeekView struct {
	Week    string   `json:"week"`
	Start   string   `json:"start"`
	Runs    int      `json:"runs"`
	Km      float64  `json:"km"`
	Minutes float64  `json:"minutes"`
	AvgHR   *float64 `json:"avg_hr"`
}

// RecordView is an all-time record
type RecordView struct {
	Category  string   `json:"category"`
	Label     string   `json:"label"`
	DistanceM float64  `json:"distance_m"`
	Time      string   `json:"time"`
	DurationS float64  `json:"duration_s"`
	Pace      string   `json:"pace"`
	AvgHR     string   `json:"avg_hr"`
	Date      string   `json:"date"`
	Segment   string   `json:"segment"`
	WorkoutID int64    `json:"workout_id"`
	File      string   `json:"file,omitempty"`
	PaceSecKm *float64 `json:"pace_sec_km"`
}

// DayView is one day of the activity heatmap
type DayView struct {
	Day  string  `json:"day"`
	Runs int     `json:"runs"`
	Km   float64 `json:"km"`
}

// healthz reports a simple OK status
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.query.Summary()
	if err != nil {
		s.serverError(w, err)
		return
	}

	resp := SummaryResponse{
		TotalWorkouts: sum.TotalWorkouts,
		TotalKm:       round(sum.TotalDistance/service.MetersPerKm, 1),
		TotalTimeH:    round(sum.TotalTime/3600, 1),
		TotalCal:      sum.TotalCalories,
		KmThisMonth:   round(sum.MonthDistance/service.MetersPerKm, 1),
		RunsThisMonth: sum.MonthWorkouts,
		StreakWeeks:   sum.StreakWeeks,
	}
	if sum.Last != nil {
		v := toWorkoutView(*sum.Last)
		resp.Last = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listWorkouts(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", service.DefaultListLimit)
	if !ok {
		return
	}
	offset, ok := intParam(w, r, "offset", 0)
	if !ok {
		return
	}
	limit = min(max(limit, 1), service.MaxListLimit)
	offset = max(offset, 0)

	workouts, err := s.query.ListWorkouts(limit, offset)
	if err != nil {
		s.serverError(w, err)
		return
	}
	total, err := s.query.TotalWorkoutCount()
	if err != nil {
		s.serverError(w, err)
		return
	}

	items := make([]WorkoutView, 0, len(workouts))
	for _, wk := range workouts {
		items = append(items, toWorkoutView(wk))
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) workout(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	detail, err := s.query.WorkoutDetail(id)
	if err != nil {
		s.lookupError(w, err)
		return
	}

	resp := WorkoutResponse{
		Workout: toWorkoutView(detail.Workout),
		Report:  detail.Report,
		Records: make([]RecordView, 0, len(detail.Records)),
	}
	if detail.ReportID != "" {
		resp.ReportID = &detail.ReportID
	}
	records, err := s.query.WorkoutRecords(id)
	if err != nil {
		s.serverError(w, err)
		return
	}
	for _, pr := range records {
		resp.Records = append(resp.Records, toRecordView(pr))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) workoutReport(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	report, err := s.query.WorkoutReport(id)
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) efficiency(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", service.EfficiencyHistoryDays)
	if !ok {
		return
	}
	trend, err := s.query.EfficiencyTrend(days)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if trend == nil {
		trend = []service.EfficiencyPoint{}
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) weekly(w http.ResponseWriter, r *http.Request) {
	weeks, ok := intParam(w, r, "weeks", service.WeeklyPeriods)
	if !ok {
		return
	}
	if weeks <= 0 || weeks > 520 {
		writeError(w, http.StatusBadRequest, "invalid_request", "weeks must be between 1 and 520")
		return
	}

	periods, err := s.query.PeriodStats(service.PeriodWeekly, weeks)
	if err != nil {
		s.serverError(w, err)
		return
	}

	resp := make([]WeekView, 0, len(periods))
	for _, p := range periods {
		v := WeekView{
			Week:    p.PeriodLabel,
			Start:   p.PeriodStart.Format(time.DateOnly),
			Runs:    p.WorkoutCount,
			Km:      round(p.TotalDistance/service.MetersPerKm, 2),
			Minutes: round(p.TotalTime/service.SecondsPerMinute, 1),
		}
		if p.AvgHR > 0 {
			hr := round(p.AvgHR, 1)
			v.AvgHR = &hr
		}
		resp = append(resp, v)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) zones(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", service.ZoneHistoryDays)
	if !ok {
		return
	}
	totals, err := s.query.ZoneTotals(days)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	records, err := s.query.PersonalRecords()
	if err != nil {
		s.serverError(w, err)
		return
	}
	resp := make([]RecordView, 0, len(records))
	for _, pr := range records {
		resp = append(resp, toRecordView(pr))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) heatmap(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", service.HeatmapDays)
	if !ok {
		return
	}
	activity, err := s.query.Heatmap(days)
	if err != nil {
		s.serverError(w, err)
		return
	}
	resp := make([]DayView, 0, len(activity))
	for _, d := range activity {
		resp = append(resp, DayView{Day: d.Date, Runs: d.Count, Km: round(d.DistanceM/service.MetersPerKm, 2)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toWorkoutView(w store.Workout) WorkoutView {
	v := WorkoutView{
		ID:         w.ID,
		FileName:   w.FileName,
		Sport:      w.Sport,
		StartTime:  w.StartTime.UTC().Format(time.RFC3339),
		Date:       w.StartTime.UTC().Format(time.DateOnly),
		DurationS:  w.TotalTimeSec,
		Time:       service.FormatDuration(w.TotalTimeSec),
		DistanceKm: round(w.DistanceM/service.MetersPerKm, 2),
		Calories:   w.Calories,
		MaxHR:      w.MaxHR,
		AvgCadence: w.AvgCadence,
	}
	if w.AvgHR != nil {
		hr := round(*w.AvgHR, 1)
		v.AvgHR = &hr
	}
	if w.AvgPaceSecKm != nil {
		pace := service.FormatPace(*w.AvgPaceSecKm)
		v.Pace = &pace
	}
	return v
}

func toRecordView(pr service.PersonalRecordDisplay) RecordView {
	return RecordView{
		Category:  pr.Category,
		Label:     pr.CategoryLabel,
		DistanceM: pr.DistanceMeters,
		Time:      pr.Time,
		DurationS: pr.DurationSeconds,
		Pace:      pr.Pace,
		AvgHR:     pr.AvgHR,
		Date:      pr.Date,
		Segment:   pr.Segment,
		WorkoutID: pr.WorkoutID,
		File:      pr.WorkoutFile,
		PaceSecKm: pr.PaceSecKm,
	}
}

// workoutID parses the {id} path value, writing a 400 when it is not a positive integer
func workoutID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "workout id must be a positive integer")
		return 0, false
	}
	return id, true
}

// intParam reads an optional integer query parameter, writing a 400 when it is malformed
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" must be an integer")
		return 0, false
	}
	return v, true
}

func (s *Server) lookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, "not_found", "workout not found")
	case errors.Is(err, store.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "not_found", "report not found")
	case errors.Is(err, analysis.ErrUnsupportedSchema):
		writeError(w, http.StatusConflict, "unsupported_schema", err.Error())
	default:
		s.serverError(w, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
