// Package main provides the CLI entrypoint for physiotrack.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/physiotrack/internal/catalog"
	"github.com/ayusman/physiotrack/internal/config"
	"github.com/ayusman/physiotrack/internal/logging"
	"github.com/ayusman/physiotrack/internal/store"
)

var (
	configPath string

	serveAddr      string
	serveStaticDir string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "physiotrack",
		Short:         "Real-time exercise repetition counting service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "physiotrack.toml", "path to the TOML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newExercisesCmd())

	return rootCmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in exercises that are missing from the database",
		Args:  cobra.NoArgs,
		RunE:  runSeedCmd,
	}
}

func runSeedCmd(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	added, err := st.Seed(catalog.Defaults())
	if err != nil {
		return fmt.Errorf("seed exercises: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d exercise(s)\n", added)
	return nil
}

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List the exercise catalog",
		Args:  cobra.NoArgs,
		RunE:  runExercisesCmd,
	}
}

func runExercisesCmd(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	defs, err := st.LoadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLANDMARKS\tUP\tDOWN\tEVALUATION")
	for _, d := range defs {
		c := d.Classification
		if c == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", d.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s,%s,%s\t%g\t%g\t%s\n",
			d.Name, c.Landmarks[0], c.Landmarks[1], c.Landmarks[2],
			c.Thresholds.Up, c.Thresholds.Down, c.Direction)
	}
	return w.Flush()
}

// loadConfig reads the configuration and sets up logging.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	closer := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	return cfg, func() {
		if err := closer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %s\n", err)
		}
	}, nil
}

func openStore(dbPath string) (*store.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	log.Debugf("store opened at [%s]", dbPath)
	return st, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.physiotrack/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".physiotrack", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
