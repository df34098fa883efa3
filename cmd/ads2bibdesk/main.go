// Package main provides the ads2bibdesk CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astrobib/ads2bibdesk/internal/ads"
	"github.com/astrobib/ads2bibdesk/internal/reconcile"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	flagDebug       bool
	flagMergeDupes  bool
	flagUpdateArxiv string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, reconcile.ErrNoMatch),
		ads.IsAuthError(err),
		ads.IsRateLimited(err),
		errors.Is(err, ads.ErrNetworkError),
		errors.Is(err, ads.ErrInvalidResponse):
		return ExitAPIError
	}
	return ExitError
}

var rootCmd = &cobra.Command{
	Use:   "ads2bibdesk [identifier]",
	Short: "Add astrophysics articles from NASA/ADS to BibDesk",
	Long: `ads2bibdesk adds astrophysics articles listed on NASA/ADS to the
currently open BibDesk database using the ADS API.

The identifier may be:
  - an ADS bibcode (e.g. 1998ApJ...500..525S, 2019arXiv190404507R)
  - an arXiv identifier (e.g. 0911.4956)
  - an article DOI (e.g. 10.3847/1538-4357/aafd37)

Existing entries matching the fetched record are replaced with fresh
metadata; ratings, notes, group memberships and annotated PDFs carry over.

A personal ADS API token is required (per ADS policy). Set it in
~/.ads/ads2bibdesk.yml, in ~/.ads/.env as ADS_DEV_KEY, or export the
ADS_DEV_KEY environment variable.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Debug mode; prints extra statements")
	rootCmd.Flags().BoolVar(&flagMergeDupes, "merge-dupes", false, "Batch mode: merge library entries sharing an ADS bibcode")
	rootCmd.Flags().StringVar(&flagUpdateArxiv, "update-arxiv", "", "Batch mode: re-check arXiv-only entries, optionally within MM/YY-MM/YY")
	rootCmd.Flags().Lookup("update-arxiv").NoOptDefVal = "all"
	rootCmd.Version = Version
}
