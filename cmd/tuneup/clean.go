package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jamesainslie/tuneup/pkg/tuneup/config"
	"github.com/jamesainslie/tuneup/pkg/tuneup/engine"
	"github.com/jamesainslie/tuneup/pkg/tuneup/logging"
	"github.com/jamesainslie/tuneup/pkg/tuneup/manifest"
	"github.com/jamesainslie/tuneup/pkg/tuneup/report"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
	"github.com/jamesainslie/tuneup/pkg/tuneup/walker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runClean is the main cleaning command handler.
func runClean(_ *cobra.Command, args []string) error {
	// Determine the library root
	cleanPath := "."
	if len(args) > 0 {
		cleanPath = args[0]
	} else if defaultPath := viper.GetString("default_path"); defaultPath != "" {
		cleanPath = defaultPath
	}

	// Expand ~ in path
	expandedPath, err := config.ExpandPath(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Verify path exists and is accessible
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	// Parse minimum size
	minSizeStr := viper.GetString("min_size")
	if minSizeStr == "" {
		minSizeStr = config.DefaultMinSize
	}

	minSize, err := types.ParseSize(minSizeStr)
	if err != nil {
		return fmt.Errorf("invalid minimum size %q: %w", minSizeStr, err)
	}

	if err := initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	exclude := viper.GetStringSlice("exclude")
	dryRun := viper.GetBool("dry_run")
	jsonOut := viper.GetBool("json")

	opts := engine.Options{
		Root:        absPath,
		MinSize:     minSize,
		Exclude:     exclude,
		DirWorkers:  viper.GetInt("workers.dir"),
		FileWorkers: viper.GetInt("workers.file"),
		DryRun:      dryRun,
	}

	printVerbose("Config: %d dir workers, %d file workers, min size %s",
		opts.DirWorkers, opts.FileWorkers, types.FormatSize(minSize))

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping...")
		cancel()
	}()

	// Pre-walk survey so progress can show a percentage
	showProgress := !getQuiet() && !jsonOut
	var survey walker.SurveyResult
	if showProgress {
		survey, err = walker.Survey(ctx, absPath, exclude)
		if err != nil {
			printVerbose("Survey failed, progress will not show totals: %v", err)
		}
		opts.OnProgress = func(p walker.Progress) {
			fmt.Fprintf(os.Stderr, "\r\033[2K%s", report.StatusLine(p, survey))
			if p.WalkComplete {
				fmt.Fprint(os.Stderr, "\n")
			}
		}
	}

	if !getQuiet() && !jsonOut {
		printInfo("Cleaning %s (min size %s)...", absPath, types.FormatSize(minSize))
	}

	result, err := engine.Clean(ctx, opts)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			printInfo("Cancelled")
			return nil
		}
		return fmt.Errorf("clean failed: %w", err)
	}

	m := openManifest()
	if m != nil && !dryRun {
		logCleanManifest(m, result)
	}

	if jsonOut {
		return finishJSON(result, m)
	}

	report.Summary(os.Stdout, result)

	for _, e := range result.WalkErrors {
		printVerbose("walk error: %s: %s", e.Path, e.Error)
	}
	for _, f := range result.RenameFailures {
		printVerbose("rename failed: %s: %s", f.Op.OldPath, f.Error)
	}

	if result.Run.Deletions.Len() == 0 {
		return nil
	}

	report.Preview(os.Stdout, result)

	if dryRun {
		printInfo("\nDry run: nothing was renamed or deleted.")
		return nil
	}

	if !viper.GetBool("yes") && !report.Confirm(os.Stdin, os.Stdout) {
		printInfo("Cancelled, nothing deleted.")
		return nil
	}

	cr := report.Commit(result, viper.GetBool("use_trash"), m)
	report.CommitSummary(os.Stdout, cr)

	return nil
}

// finishJSON writes the machine-readable report. Deletion is committed
// only when --yes was given; JSON mode never prompts.
func finishJSON(result *engine.Result, m *manifest.Manifest) error {
	var commit *report.CommitResult
	if !result.DryRun && viper.GetBool("yes") && result.Run.Deletions.Len() > 0 {
		cr := report.Commit(result, viper.GetBool("use_trash"), m)
		commit = &cr
	}
	return report.WriteJSON(os.Stdout, result, commit)
}

// logCleanManifest records the applied renames as a manifest entry.
func logCleanManifest(m *manifest.Manifest, result *engine.Result) {
	if len(result.FileRenames) == 0 && len(result.DirRenames) == 0 && len(result.Pruned) == 0 {
		return
	}

	records := make([]manifest.FileRecord, 0, len(result.FileRenames))
	for _, op := range result.FileRenames {
		records = append(records, manifest.FileRecord{
			Path:   op.NewPath,
			Reason: "renamed from " + filepath.Base(op.OldPath),
		})
	}

	if err := m.EnsureDir(); err != nil {
		printVerbose("cannot create manifest directory: %v", err)
		return
	}
	if _, err := m.LogClean(result.Root, records); err != nil {
		printVerbose("cannot write clean manifest: %v", err)
	}
}

// openManifest returns the configured manifest, or nil when manifests are
// disabled or the directory cannot be determined.
func openManifest() *manifest.Manifest {
	if !viper.GetBool("manifest.enabled") {
		return nil
	}

	dir := viper.GetString("manifest.path")
	if dir == "" {
		var err error
		dir, err = config.ManifestDir()
		if err != nil {
			printVerbose("cannot determine manifest directory: %v", err)
			return nil
		}
	}

	m, err := manifest.New(dir)
	if err != nil {
		printVerbose("cannot open manifest: %v", err)
		return nil
	}
	return m
}

// initLogging configures the logging system from viper settings. Verbose
// mode mirrors debug output to stderr.
func initLogging() error {
	logPath := viper.GetString("logging.path")
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}

	maxSize, err := types.ParseSize(viper.GetString("logging.rotation.max_size"))
	if err != nil {
		maxSize = 0
	}

	consoleLevel := ""
	if getVerbose() {
		consoleLevel = "debug"
	}

	return logging.Init(logging.Config{
		Level: viper.GetString("logging.level"),
		Path:  logPath,
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxAge:     viper.GetInt("logging.rotation.max_age"),
			MaxBackups: viper.GetInt("logging.rotation.max_backups"),
			Daily:      viper.GetBool("logging.rotation.daily"),
		},
		Components:   viper.GetStringMapString("logging.components"),
		ConsoleLevel: consoleLevel,
	})
}
