package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"runlog/internal/config"
	"runlog/internal/service"
	"runlog/internal/store"
	"runlog/internal/tui"
)

const usage = `Usage: runlog <command> [arguments]

Commands:
  tui                         Terminal dashboard (default)
  import <path>               Import a file or every activity file under a folder
  watch [folder]              Poll a folder and import new files
  list [-n count]             List workouts, newest first
  show <id>                   Show a workout and its analysis
  stats                       All-time, per-sport and monthly statistics
  export <id> [-o file]       Write a workout's trackpoints as CSV
  delete <id> [--confirm]     Delete a workout and rebuild records
  reanalyze [-workers n]      Recompute every stored report
  serve [-addr host:port]     Serve the JSON API
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// app holds what every command needs
type app struct {
	cfg      *config.Config
	db       *store.DB
	logger   *slog.Logger
	importer *service.ImportService
	query    *service.QueryService
	units    tui.Units
	logFile  io.Closer
}

func run(args []string) error {
	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usage)
		return nil
	}

	handlers := map[string]func(*app, []string) error{
		"tui":       runTUI,
		"import":    runImport,
		"watch":     runWatch,
		"list":      runList,
		"show":      runShow,
		"stats":     runStats,
		"export":    runExport,
		"delete":    runDelete,
		"reanalyze": runReanalyze,
		"serve":     runServe,
	}
	handler, ok := handlers[cmd]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	return handler(a, args)
}

func setup(cmd string) (*app, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Fprintf(os.Stderr, "Wrote default config to %s/config.json\n", configDir)
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("invalid config in %s/config.json: %w", configDir, err)
	}

	analysisCfg, err := cfg.AnalysisConfig()
	if err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}

	a := &app{cfg: cfg, units: tui.NewUnits(cfg.Display)}

	// The watcher logs to stdout and its log file; other commands keep
	// stdout for their output. The TUI owns the terminal, so it logs only
	// to the file.
	var out io.Writer = os.Stderr
	switch cmd {
	case "watch":
		out = os.Stdout
		if f := openLogFile(cfg.Watch.LogFile); f != nil {
			out = io.MultiWriter(os.Stdout, f)
			a.logFile = f
		}
	case "tui":
		out = io.Discard
		if f := openLogFile(cfg.Watch.LogFile); f != nil {
			out = f
			a.logFile = f
		}
	}
	a.logger = slog.New(slog.NewTextHandler(out, nil))
	slog.SetDefault(a.logger)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.importer = service.NewImportService(db, analysisCfg, a.logger)
	a.query = service.NewQueryService(db)

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func openLogFile(path string) *os.File {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("opening log file %s: %v", path, err)
		return nil
	}
	return f
}

func runTUI(a *app, _ []string) error {
	program := tea.NewProgram(tui.NewApp(a.query, a.importer, a.cfg.Watch.Folder, a.units), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
