package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"runlog/internal/analysis"
	"runlog/internal/server"
	"runlog/internal/service"
)

// parseArgs parses flags that may appear before or after positional arguments
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one workout id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid workout id %q", args[0])
	}
	return id, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runImport(a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: runlog import <path>")
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := a.importer.ImportPath(ctx, args[0])
	if err != nil {
		return err
	}

	for _, r := range results {
		name := filepath.Base(r.Path)
		switch r.Status {
		case service.StatusImported:
			line := fmt.Sprintf("imported  %-32s #%d %s %s", name, r.WorkoutID, r.Sport, a.units.FormatDistance(r.DistanceM))
			if len(r.NewRecords) > 0 {
				line += fmt.Sprintf("  new records: %s", strings.Join(r.NewRecords, ", "))
			}
			fmt.Println(line)
		case service.StatusDuplicate:
			fmt.Printf("skipped   %-32s already imported\n", name)
		case service.StatusFailed:
			fmt.Printf("failed    %-32s %v\n", name, r.Err)
		}
	}

	s := service.Summarize(results)
	fmt.Printf("\n%d imported, %d duplicates, %d failed\n", s.Imported, s.Duplicates, s.Failed)
	return nil
}

func runWatch(a *app, args []string) error {
	folder := a.cfg.Watch.Folder
	if len(args) > 0 {
		folder = args[0]
	}
	ctx, cancel := signalContext()
	defer cancel()

	w := service.NewWatcher(a.importer, a.db, folder, a.cfg.WatchInterval(), a.logger)
	return w.Run(ctx)
}

func runList(a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of workouts to show")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	workouts, err := a.query.ListWorkouts(*limit, 0)
	if err != nil {
		return err
	}
	total, err := a.query.TotalWorkoutCount()
	if err != nil {
		return err
	}
	if len(workouts) == 0 {
		fmt.Println("No workouts yet. Import some with 'runlog import <path>'.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSPORT\tDISTANCE\tTIME\tPACE\tHR\tFILE\tIMPORTED")
	for _, w := range workouts {
		pace := "-"
		if w.AvgPaceSecKm != nil {
			pace = a.units.FormatPace(*w.AvgPaceSecKm)
		}
		hr := "-"
		if w.AvgHR != nil {
			hr = fmt.Sprintf("%.0f", *w.AvgHR)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			w.ID,
			w.StartTime.Local().Format("2006-01-02 15:04"),
			w.Sport,
			a.units.FormatDistance(w.DistanceM),
			service.FormatDuration(w.TotalTimeSec),
			pace,
			hr,
			w.FileName,
			humanize.Time(w.ImportedAt),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nShowing %d of %s workouts\n", len(workouts), humanize.Comma(int64(total)))
	return nil
}

func runShow(a *app, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	detail, err := a.query.WorkoutDetail(id)
	if err != nil {
		return err
	}

	w := detail.Workout
	fmt.Printf("#%d %s (%s)\n", w.ID, w.FileName, w.Sport)
	fmt.Printf("%s\n", w.StartTime.Local().Format("Monday, January 2, 2006 at 15:04"))
	fmt.Printf("%s in %s\n", a.units.FormatDistance(w.DistanceM), service.FormatDuration(w.TotalTimeSec))

	r := detail.Report
	if r == nil {
		fmt.Println("\nNo analysis report. Run 'runlog reanalyze'.")
		return nil
	}

	fmt.Println()
	if r.Summary.AvgPace != nil {
		fmt.Printf("Avg pace       %s\n", a.units.FormatPaceWithUnit(*r.Summary.AvgPace*60))
	}
	if r.Summary.AvgHR != nil {
		fmt.Printf("Avg HR         %.0f bpm\n", *r.Summary.AvgHR)
	}
	if r.Summary.AvgEfficiency != nil {
		fmt.Printf("Efficiency     %.2f m/beat\n", *r.Summary.AvgEfficiency)
	}
	if d := r.Summary.AerobicDecoupling; d != nil {
		fmt.Printf("Decoupling     %.1f%% (%s)\n", *d, analysis.DecouplingAssessment(*d))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(r.Splits) > 0 {
		fmt.Fprintln(tw, "\nSPLIT\tDISTANCE\tTIME\tPACE\tHR\t")
		for _, s := range r.Splits {
			mark := ""
			switch {
			case s.Fastest:
				mark = "fastest"
			case s.Slowest:
				mark = "slowest"
			case s.Partial:
				mark = "partial"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.Index, a.units.FormatDistance(s.Distance),
				service.FormatDuration(s.Duration), a.units.FormatPaceMinKm(s.Pace), optional(s.AvgHR), mark)
		}
	}

	if total := r.Zones.Total(); total > 0 {
		fmt.Fprintln(tw, "\nZONE\tTIME\tSHARE\t")
		for _, label := range analysis.ZoneLabels {
			fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t\n", label, service.FormatDuration(r.Zones[label]), r.Zones.Percent(label))
		}
	}

	if len(r.Records) > 0 {
		fmt.Fprintln(tw, "\nBEST EFFORT\tTIME\tPACE\tSEGMENT\t")
		for _, rec := range r.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", rec.Label, service.FormatDuration(rec.ExactDuration),
				a.units.FormatPace(rec.PaceSecPerKm()), rec.Segment)
		}
	}

	if ia := r.Intervals; ia != nil {
		fmt.Fprintf(tw, "\nINTERVALS (%s)\tTIME\tDISTANCE\tPACE\tHR\t\n", ia.Signal)
		for _, iv := range ia.Intervals {
			name := string(iv.Phase)
			if iv.Ordinal > 0 {
				name = fmt.Sprintf("%s %d", iv.Phase, iv.Ordinal)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", name, service.FormatDuration(iv.Duration),
				a.units.FormatDistance(iv.Distance), a.units.FormatPaceMinKm(iv.Pace), optional(iv.AvgHR))
		}
		if ia.Progression != nil {
			fmt.Fprintf(tw, "progression\t%s\t\t\t\t\n", *ia.Progression)
		}
	} else if r.IntervalStatus != "" {
		fmt.Fprintf(tw, "\nIntervals: %s\n", strings.ReplaceAll(string(r.IntervalStatus), "_", " "))
	}

	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func runStats(a *app, _ []string) error {
	stats, err := a.query.Stats()
	if err != nil {
		return err
	}
	t := stats.Totals

	fmt.Printf("Workouts   %s\n", humanize.Comma(int64(t.Count)))
	fmt.Printf("Distance   %s\n", a.units.FormatDistance(t.TotalDistance))
	fmt.Printf("Time       %s\n", service.FormatDuration(t.TotalTime))
	fmt.Printf("Calories   %s\n", humanize.Comma(int64(t.TotalCalories)))
	if t.FirstWorkout != nil && t.LastWorkout != nil {
		fmt.Printf("Since      %s (last %s)\n", t.FirstWorkout.Local().Format("2006-01-02"), humanize.Time(*t.LastWorkout))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(stats.Sports) > 0 {
		fmt.Fprintln(tw, "\nSPORT\tWORKOUTS\tDISTANCE\tTIME\t")
		for _, s := range stats.Sports {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", s.Sport, s.Count, a.units.FormatDistance(s.TotalDistance),
				service.FormatDuration(s.TotalTime))
		}
	}

	fmt.Fprintln(tw, "\nMONTH\tWORKOUTS\tDISTANCE\tPACE\tAVG HR\t")
	for _, p := range stats.Monthly {
		hr := "-"
		if p.AvgHR > 0 {
			hr = fmt.Sprintf("%.0f", p.AvgHR)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n", p.PeriodLabel, p.WorkoutCount,
			a.units.FormatDistance(p.TotalDistance), a.units.FormatPace(p.AvgPaceSecKm()), hr)
	}
	return tw.Flush()
}

func runExport(a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("o", "", "output file (default stdout)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := parseID(positional)
	if err != nil {
		return err
	}

	if *output == "" {
		return a.query.ExportWorkoutCSV(os.Stdout, id)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *output, err)
	}
	if err := a.query.ExportWorkoutCSV(f, id); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", *output)
	return nil
}

func runDelete(a *app, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "actually delete")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := parseID(positional)
	if err != nil {
		return err
	}

	detail, err := a.query.WorkoutDetail(id)
	if err != nil {
		return err
	}
	w := detail.Workout
	desc := fmt.Sprintf("#%d %s (%s, %s)", w.ID, w.FileName, w.StartTime.Local().Format("2006-01-02"),
		a.units.FormatDistance(w.DistanceM))

	if !*confirm {
		fmt.Printf("Would delete %s and %d records it holds. Re-run with --confirm.\n", desc, len(detail.Records))
		return nil
	}
	if err := a.importer.DeleteWorkout(id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", desc)
	return nil
}

func runReanalyze(a *app, args []string) error {
	fs := flag.NewFlagSet("reanalyze", flag.ContinueOnError)
	workers := fs.Int("workers", service.DefaultReanalyzeWorkers, "concurrent analysis workers")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	progress := make(chan service.ReanalyzeProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Error != nil {
				fmt.Printf("\nworkout %d: %v\n", p.WorkoutID, p.Error)
			}
			fmt.Printf("\r%d/%d", p.Completed, p.Total)
		}
	}()

	result, err := a.importer.Reanalyze(ctx, *workers, progress)
	<-done
	if err != nil {
		return err
	}
	fmt.Printf("\nReanalyzed %d workouts: %d reports, %d records, %d errors\n",
		result.Workouts, result.Reports, result.Records, len(result.Errors))
	return nil
}

func runServe(a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.Server.Addr, "listen address")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	return server.New(a.query, *addr, a.logger).Run(ctx)
}
