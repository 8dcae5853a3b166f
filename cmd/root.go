package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/ethanolivertroy/depgate/internal/config"
	"github.com/ethanolivertroy/depgate/internal/models"
	"github.com/ethanolivertroy/depgate/internal/reporter"
	"github.com/ethanolivertroy/depgate/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	// exitCheckError is returned when the check could not complete
	exitCheckError = 126
	// maxFailExit keeps failure counts clear of the shell's reserved codes
	maxFailExit = 125
	exitUsage   = 2
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "depgate [dir]",
		Short: "Gate builds on known vulnerabilities in installed dependencies",
		Long: `depgate walks the installed dependency tree of a project, asks a
vulnerability database about every unique package once, and fails when
any of them has known vulnerabilities.

Supported sources:
  - npm:      the tree reported by "npm ls --all --omit=dev --json"
  - lockfile: package-lock.json / npm-shrinkwrap.json
  - go:       go.mod
  - pip:      pinned requirements.txt

A .depgate.toml in the project directory downgrades packages to warnings
or excludes them (and everything below them) from the check:

  warns    = ["lodash"]
  excludes = ["left-pad"]

Every flag can also be set through a DEPGATE_* environment variable, for
example DEPGATE_FORMAT=json or DEPGATE_NO_FAIL=true.

Exit status is 0 when no package fails, the number of failing
vulnerabilities (at most 125) otherwise, and 126 when the check itself
could not run.

Examples:
  # Check the current directory
  depgate

  # Check a Go module against OSV
  depgate ./service --ecosystem go --oracle osv

  # Output SARIF for GitHub Code Scanning
  depgate --format sarif --output results.sarif

  # Report without failing the build
  depgate --no-fail`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}
	config.RegisterFlags(rootCmd.Flags())

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		code, err := run(cmd, args)
		if err != nil {
			return err
		}
		exitStatus = code
		return nil
	}
	return rootCmd
}

var exitStatus int

// Execute runs the root command and exits with the gate's status
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitUsage)
	}
	os.Exit(exitStatus)
}

// run returns the process exit code. Only configuration problems are
// returned as errors; check failures are logged and mapped to exitCheckError.
func run(cmd *cobra.Command, args []string) (int, error) {
	cfg, err := config.Load(cmd.Flags(), args)
	if err != nil {
		return 0, err
	}

	log := newLogger(cmd, cfg.Verbose)

	s, err := scanner.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to initialize scanner")
		return exitCheckError, nil
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	report, err := s.Check(ctx)
	if err != nil {
		log.WithError(err).Error("Check failed")
		return exitCheckError, nil
	}

	reporter.ToolVersion = version
	output, err := reporter.Get(cfg.OutputFormat).Report(report)
	if err != nil {
		log.WithError(err).Error("Failed to generate report")
		return exitCheckError, nil
	}

	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, output, 0644); err != nil {
			log.WithError(err).Error("Failed to write output file")
			return exitCheckError, nil
		}
		log.Infof("Report written to %s", cfg.OutputFile)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), string(output))
	}

	return exitCode(report, cfg.FailOnVulnerable), nil
}

func exitCode(report *models.VulnerabilityReport, failOnVulnerable bool) int {
	if !failOnVulnerable || report.FailCount <= 0 {
		return 0
	}
	return min(report.FailCount, maxFailExit)
}

func newLogger(cmd *cobra.Command, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
