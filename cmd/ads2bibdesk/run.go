package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrobib/ads2bibdesk/internal/ads"
	"github.com/astrobib/ads2bibdesk/internal/bibdesk"
	"github.com/astrobib/ads2bibdesk/internal/fulltext"
	"github.com/astrobib/ads2bibdesk/internal/history"
	"github.com/astrobib/ads2bibdesk/internal/notify"
	"github.com/astrobib/ads2bibdesk/internal/prefs"
	"github.com/astrobib/ads2bibdesk/internal/reconcile"
)

// errConfig tags preferences problems so main can exit with ExitConfigError.
var errConfig = errors.New("configuration error")

const (
	// batchDelay spaces identifiers out in batch mode so the ADS API and
	// BibDesk are not hammered.
	batchDelay = 5 * time.Second

	// freshnessWindow is how recently an identifier must have synced for
	// --update-arxiv to skip it.
	freshnessWindow = 7 * 24 * time.Hour
)

func runRoot(cmd *cobra.Command, args []string) error {
	batch := flagMergeDupes || flagUpdateArxiv != ""
	if len(args) == 0 && !batch {
		return fmt.Errorf("an identifier or a batch flag is required (see --help)")
	}
	if len(args) > 0 && batch {
		return fmt.Errorf("an identifier cannot be combined with a batch flag")
	}
	if flagMergeDupes && flagUpdateArxiv != "" {
		return fmt.Errorf("--merge-dupes and --update-arxiv are mutually exclusive")
	}

	p, err := prefs.Load(prefs.Path())
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	debug := flagDebug || p.Options.Debug
	log := setupLogger(prefs.LogPath(), debug)

	token := p.Token()
	if token == "" {
		return fmt.Errorf("%w: no ADS API token; set ads_token in %s or export ADS_DEV_KEY",
			errConfig, prefs.Path())
	}
	adsClient := ads.NewClient(ads.WithToken(token))

	lib, err := bibdesk.New()
	if err != nil {
		return fmt.Errorf("connecting to BibDesk: %w", err)
	}

	engineOpts := []reconcile.EngineOption{
		reconcile.WithEngineLogger(log),
		reconcile.WithMirror(p.ADSMirror),
		reconcile.WithNotifier(notify.New(p.Options.AlertSound, log)),
	}
	if p.Options.DownloadPDF {
		resolverOpts := []fulltext.ResolverOption{
			fulltext.WithGatewayURL(p.GatewayURL()),
			fulltext.WithLogger(log),
		}
		if p.ProxyConfigured() {
			resolverOpts = append(resolverOpts, fulltext.WithProxy(fulltext.NewProxy(fulltext.ProxyConfig{
				User:   p.Proxy.SSHUser,
				Server: p.Proxy.SSHServer,
				Port:   p.Proxy.SSHPort,
			})))
		}
		engineOpts = append(engineOpts, reconcile.WithFullText(fulltext.NewResolver(resolverOpts...)))
	}
	engine := reconcile.NewEngine(lib, adsClient, engineOpts...)

	store, err := history.Open(filepath.Join(prefs.Dir(), history.DBFile))
	if err != nil {
		// A broken ledger should not block syncing.
		log.Warn("history ledger unavailable", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case flagMergeDupes:
		bibcodes := reconcile.DuplicateBibcodes(lib)
		if len(bibcodes) == 0 {
			fmt.Println("No duplicate bibcodes found.")
			return nil
		}
		log.Info("merging duplicates", "bibcodes", len(bibcodes))
		return runBatch(ctx, engine, store, log, bibcodes, false)

	case flagUpdateArxiv != "":
		var from, to *reconcile.MonthYear
		if flagUpdateArxiv != "all" {
			f, t, err := reconcile.ParseMonthRange(flagUpdateArxiv)
			if err != nil {
				return err
			}
			from, to = &f, &t
		}
		bibcodes := reconcile.ArxivBibcodes(lib, from, to)
		if len(bibcodes) == 0 {
			fmt.Println("No arXiv entries to update.")
			return nil
		}
		log.Info("re-checking arXiv entries", "bibcodes", len(bibcodes))
		return runBatch(ctx, engine, store, log, bibcodes, true)

	default:
		outcome, err := engine.SyncIdentifier(ctx, args[0])
		if err != nil {
			return err
		}
		record(store, log, outcome)
		printOutcome(outcome)
		return nil
	}
}

// runBatch syncs each identifier in turn. Per-identifier failures are
// logged and skipped so one bad record cannot abort the batch.
func runBatch(ctx context.Context, engine *reconcile.Engine, store *history.Store,
	log *slog.Logger, identifiers []string, skipFresh bool) error {

	var failed int
	for i, id := range identifiers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			select {
			case <-time.After(batchDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if skipFresh && store != nil {
			last, ok, err := store.LastSynced(id)
			if err != nil {
				log.Warn("freshness check failed", "identifier", id, "error", err)
			} else if ok && time.Since(last) < freshnessWindow {
				log.Info("recently synced, skipping", "identifier", id, "last", last)
				continue
			}
		}

		outcome, err := engine.SyncIdentifier(ctx, id)
		if err != nil {
			failed++
			log.Error("sync failed", "identifier", id, "error", err)
			continue
		}
		record(store, log, outcome)
		printOutcome(outcome)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d identifiers failed", failed, len(identifiers))
	}
	return nil
}

func record(store *history.Store, log *slog.Logger, o *reconcile.Outcome) {
	if store == nil {
		return
	}
	err := store.Add(history.Record{
		Identifier:        o.Identifier,
		Bibcode:           o.Bibcode,
		CiteKey:           o.CiteKey,
		DuplicatesRemoved: o.DuplicatesRemoved,
		PDFAttached:       o.PDFAttached,
	})
	if err != nil {
		log.Warn("recording sync failed", "identifier", o.Identifier, "error", err)
	}
}

func printOutcome(o *reconcile.Outcome) {
	fmt.Printf("Added %s (%s)\n", o.CiteKey, o.Title)
	if o.DuplicatesRemoved > 0 {
		fmt.Printf("  merged %d duplicate(s)\n", o.DuplicatesRemoved)
	}
	if o.PDFAttached {
		fmt.Println("  PDF attached")
	}
}
