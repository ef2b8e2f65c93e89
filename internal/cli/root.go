// Package cli implements dressguardctl, the operator tool for the violation
// log folder.
package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dressguard/dressguard/internal/config"
	"github.com/dressguard/dressguard/internal/ledger"
	"github.com/dressguard/dressguard/internal/violation"
)

type options struct {
	folder  string
	verbose bool
}

// NewRootCmd builds the dressguardctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "dressguardctl",
		Short:   "Inspect and maintain the DressGuard violation log",
		Version: version,
		Long: `dressguardctl works directly on the violation log folder: the daily ledger
of identities already logged and their evidence images.

Stop the API before editing the ledger; the running service keeps its own
copy in memory and overwrites the file on its next write.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.folder, "folder", "", "Violation log folder (default: LOG_FOLDER)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log ledger operations to stderr")

	root.AddCommand(ledgerCmd(opts))
	return root
}

// logFolder resolves --folder, falling back to the service configuration
func (o *options) logFolder() (string, error) {
	if o.folder != "" {
		return o.folder, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.LogFolder, nil
}

func (o *options) openLedger(cmd *cobra.Command) (*ledger.Ledger, error) {
	folder, err := o.logFolder()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	lg, err := ledger.Open(filepath.Join(folder, violation.LedgerFile), logger)
	if err != nil {
		return nil, fmt.Errorf("open ledger in %s: %w", folder, err)
	}
	return lg, nil
}
