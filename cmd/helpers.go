package cmd

import (
	"context"
	"errors"
	"fmt"

	"modlist-downloader/internal/browser"
	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/nexus"
	"modlist-downloader/internal/transfer"
	"modlist-downloader/internal/worklist"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runFlags are shared by the commands that drive the engine. They override
// the loaded configuration only when given explicitly.
type runFlags struct {
	dir         string
	concurrency int
	mode        string
	gameID      int
	ledger      string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Download directory (overrides download_dir)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "Parallel downloads per batch (overrides concurrency)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Verification mode: Hash, Size or Skip")
	cmd.Flags().IntVar(&f.gameID, "game-id", 0, "Numeric game id (overrides game_id)")
	cmd.Flags().StringVar(&f.ledger, "ledger", "", "Verification ledger file (overrides ledger_path)")
}

// effectiveConfig returns the loaded config with explicit flags applied, and
// validates it.
func (f *runFlags) effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	c := config.AppConfig
	if cmd.Flags().Changed("dir") {
		c.DownloadDir = f.dir
	}
	if cmd.Flags().Changed("concurrency") {
		c.Concurrency = f.concurrency
	}
	if cmd.Flags().Changed("mode") {
		c.VerificationMode = f.mode
	}
	if cmd.Flags().Changed("game-id") {
		c.GameID = f.gameID
	}
	if cmd.Flags().Changed("ledger") {
		c.LedgerPath = f.ledger
	}
	return c, c.Validate()
}

func loadRecords(args []string, c config.Config) ([]worklist.Record, error) {
	path := c.WorklistPath
	if len(args) > 0 {
		path = args[0]
	}
	records, err := worklist.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info(i18n.T("worklist_loaded"), len(records), path)
	return records, nil
}

func nonInteractive() bool {
	return viper.GetBool("non_interactive")
}

// resolveGameID returns the configured id, or looks it up from game_domain or
// the first record's URL.
func resolveGameID(ctx context.Context, c config.Config, records []worklist.Record) (int, error) {
	if c.GameID > 0 {
		return c.GameID, nil
	}

	domain := c.GameDomain
	for i := 0; domain == "" && i < len(records); i++ {
		domain = nexus.GameDomain(records[i].URL)
	}
	if domain == "" {
		return 0, errors.New(i18n.T("game_unknown"))
	}

	client, err := nexus.NewClient(c.ResolveTimeout)
	if err != nil {
		return 0, err
	}
	game, err := nexus.NewGameAPI(client).Lookup(ctx, domain)
	if err != nil {
		return 0, err
	}
	logger.Info(i18n.T("game_found"), game.Name, game.ID)
	return game.ID, nil
}

// pipeline bundles what the download and rename commands need to talk to the
// site. Close releases the challenge browser if one was started.
type pipeline struct {
	resolver *nexus.Resolver
	worker   *transfer.Worker
	solver   *browser.Solver
}

func (p *pipeline) Close() {
	if p.solver != nil {
		p.solver.Close()
	}
}

func newPipeline(ctx context.Context, c config.Config, records []worklist.Record) (*pipeline, error) {
	if c.SessionToken == "" {
		return nil, errors.New(i18n.T("session_missing"))
	}

	gameID, err := resolveGameID(ctx, c, records)
	if err != nil {
		return nil, fmt.Errorf(i18n.T("game_lookup_fail"), err)
	}

	apiClient, err := nexus.NewClient(c.ResolveTimeout)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}
	p.resolver = nexus.NewResolver(apiClient, c.SessionToken, gameID, nil)
	if c.ChallengeSolver {
		p.solver = browser.NewSolver(c.BrowserDataDir, c.Headless)
		p.resolver.Solver = p.solver
	}

	rateBytes, err := c.RateLimitBytes()
	if err != nil {
		return nil, err
	}
	p.worker = transfer.NewWorker(transfer.NewClient(c.ConnectTimeout), c.ReadTimeout, transfer.NewLimiter(rateBytes))
	return p, nil
}
