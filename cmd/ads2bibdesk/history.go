package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/astrobib/ads2bibdesk/internal/history"
	"github.com/astrobib/ads2bibdesk/internal/prefs"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently synced articles",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "number", "n", 20, "Number of records to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(filepath.Join(prefs.Dir(), history.DBFile))
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No syncs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYNCED\tIDENTIFIER\tBIBCODE\tCITE KEY\tDUPES\tPDF")
	for _, r := range recs {
		pdf := "-"
		if r.PDFAttached {
			pdf = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.SyncedAt.Format("2006-01-02 15:04"), r.Identifier, r.Bibcode,
			r.CiteKey, r.DuplicatesRemoved, pdf)
	}
	return w.Flush()
}
