package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tuneup/pkg/tuneup/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tuneup [path]",
		Short: "Deduplicate and normalize an audio library",
		Long: `Tuneup walks an audio library, finds byte-identical duplicate tracks,
normalizes file and directory names, and prunes the empty directories
left behind. Duplicates and undersized stub files are collected into a
deletion set that is only removed after explicit confirmation.

Examples:
  tuneup                     # Clean the current directory
  tuneup ~/Music             # Clean a specific library
  tuneup -d ~/Music          # Preview without touching anything
  tuneup -y -j ~/Music       # Non-interactive JSON output
  tuneup config show         # Show configuration
  tuneup history             # View operation history`,
		Args: cobra.MaximumNArgs(1),
		RunE: runClean,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tuneup/config.yaml)")
	rootCmd.PersistentFlags().StringP("min-size", "s", "", "minimum audio file size (e.g., 31968B, 1M)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolP("dry-run", "d", false, "plan renames and deletions without touching the filesystem")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "delete without prompting for confirmation")
	rootCmd.PersistentFlags().BoolP("trash", "t", false, "move deleted files to the system trash")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "output JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Int("dir-workers", 0, "override directory worker count (0=auto)")
	rootCmd.PersistentFlags().Int("file-workers", 0, "override file worker count (0=auto)")

	// Bind flags to viper
	_ = viper.BindPFlag("min_size", rootCmd.PersistentFlags().Lookup("min-size"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))
	_ = viper.BindPFlag("use_trash", rootCmd.PersistentFlags().Lookup("trash"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("workers.dir", rootCmd.PersistentFlags().Lookup("dir-workers"))
	_ = viper.BindPFlag("workers.file", rootCmd.PersistentFlags().Lookup("file-workers"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Set config name and type
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "tuneup"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "tuneup"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("TUNEUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("min_size", config.DefaultMinSize)
	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("use_trash", false)
	viper.SetDefault("workers.dir", config.DefaultDirWorkers)
	viper.SetDefault("workers.file", config.DefaultFileWorkers)
	viper.SetDefault("manifest.enabled", true)
	viper.SetDefault("manifest.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.rotation.max_size", "10MB")
	viper.SetDefault("logging.rotation.max_age", 30)
	viper.SetDefault("logging.rotation.max_backups", 5)
	viper.SetDefault("logging.rotation.daily", true)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
