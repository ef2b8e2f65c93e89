package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dressguard/dressguard/internal/domain"
)

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Daily ledger commands",
		Long:  `Commands for the daily ledger of identities already logged today.`,
	}

	cmd.AddCommand(ledgerShowCmd(opts))
	cmd.AddCommand(ledgerForgetCmd(opts))
	cmd.AddCommand(ledgerPurgeCmd(opts))
	return cmd
}

func ledgerShowCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List identities logged today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lg, err := opts.openLedger(cmd)
			if err != nil {
				return err
			}
			records := lg.Snapshot()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(out, "No violations logged today.")
				return nil
			}

			fmt.Fprintf(out, "%d identities logged today:\n\n", len(records))
			for _, r := range records {
				fmt.Fprintf(out, "  %s  %s\n", identityLabel(r.Identity), color.New(color.FgRed).Sprint(strings.Join(r.Items, ", ")))
				if r.Filepath != "" {
					fmt.Fprintf(out, "      evidence: %s\n", filepath.Base(r.Filepath))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func ledgerForgetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <identity>",
		Short: "Remove an identity and its evidence so it can be logged again today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity := args[0]
			lg, err := opts.openLedger(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			evidence, ok := lg.EvidencePath(identity)
			if !ok {
				fmt.Fprintf(out, "%s %s is not in today's ledger\n", color.New(color.FgYellow).Sprint("!"), identity)
				return nil
			}

			if err := lg.Delete(identity); err != nil {
				return fmt.Errorf("forget %s: %w", identity, err)
			}

			fmt.Fprintf(out, "%s forgot %s\n", color.New(color.FgGreen).Sprint("✓"), identity)
			if evidence != "" {
				fmt.Fprintf(out, "  removed %s\n", filepath.Base(evidence))
			}
			return nil
		},
	}
}

func ledgerPurgeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-expired",
		Short: "Drop ledger entries from previous days",
		Long: `Drops ledger entries dated before today. Their evidence images are kept;
only the ledger rows are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lg, err := opts.openLedger(cmd)
			if err != nil {
				return err
			}

			purged, err := lg.PurgeExpired()
			if err != nil {
				return fmt.Errorf("purge ledger: %w", err)
			}

			out := cmd.OutOrStdout()
			if purged == 0 {
				fmt.Fprintln(out, "Nothing to purge.")
				return nil
			}
			fmt.Fprintf(out, "%s purged %d expired entries\n", color.New(color.FgGreen).Sprint("✓"), purged)
			return nil
		},
	}
}

func identityLabel(identity string) string {
	if identity == domain.Unknown {
		return color.New(color.FgYellow).Sprint(identity)
	}
	return color.New(color.FgCyan, color.Bold).Sprint(identity)
}
