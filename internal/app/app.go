package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"rosterbot/internal/config"
	"rosterbot/internal/export"
	"rosterbot/internal/fetch"
	"rosterbot/internal/httpx"
	slackbot "rosterbot/internal/integrations/slack"
	"rosterbot/internal/nudge"
	"rosterbot/internal/report"
	"rosterbot/internal/roster"
	"rosterbot/internal/server"
	"rosterbot/internal/sheet"
)

func Main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Running the root without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rosterbot",
		Short:         "Survey submission dashboard for a fixed organization roster",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, Slack bot and schedulers",
		RunE:  runServe,
	}

	headersCmd := &cobra.Command{
		Use:   "headers",
		Short: "Print the sheet header row with column indexes",
		Long: `Fetch the published sheet and print each header cell with its
zero-based index. Use the output to fill in the columns section of config.yaml.`,
		RunE: runHeaders,
	}

	var statusRegion string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh once and print the submission summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, statusRegion)
		},
	}
	statusCmd.Flags().StringVarP(&statusRegion, "region", "r", "", "Limit the summary to one region")

	var exportKind, exportOut, exportRegion, exportQuery string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Refresh once and write an export file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, exportKind, exportOut, exportRegion, exportQuery)
		},
	}
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", string(export.KindWorkbook), "Export kind: submitted, unsubmitted or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory (default: report_output_dir)")
	exportCmd.Flags().StringVarP(&exportRegion, "region", "r", "", "Only include one region")
	exportCmd.Flags().StringVarP(&exportQuery, "q", "q", "", "Only include organizations whose name contains this text")

	rootCmd.AddCommand(serveCmd, headersCmd, statusCmd, exportCmd)
	return rootCmd
}

// pipeline is the config-derived state every command needs.
type pipeline struct {
	cfg       config.Config
	dataset   roster.Dataset
	refresher *fetch.Refresher
}

func loadPipeline() (*pipeline, error) {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)

	ds, err := roster.LoadOrDefault(cfg.RosterPath)
	if err != nil {
		return nil, err
	}
	ds = ds.WithAliases(cfg.Aliases)
	for from, to := range cfg.Aliases {
		if !ds.HasName(to) {
			log.Printf("WARNING: alias %q -> %q does not name a roster organization", from, to)
		}
	}

	log.Printf(
		"Config loaded. Team=%s Orgs=%d Regions=%d Aliases=%d Managers=%d RegionContacts=%d Timezone=%s Sample=%t LLM=%s ExternalHTTPTimeout=%s",
		cfg.TeamName,
		len(ds.Organizations),
		len(ds.Regions()),
		len(ds.Aliases),
		len(cfg.ManagerSlackIDs),
		len(cfg.RegionContacts),
		cfg.Timezone,
		cfg.UseSampleData,
		cfg.LLMProvider,
		appliedHTTPTimeout,
	)

	parser := sheet.NewParser(cfg.Schema, ds.Aliases)
	r := fetch.NewRefresher(fetch.Options{
		SheetURL:      cfg.SheetCSVURL,
		UseSampleData: cfg.UseSampleData,
		Location:      cfg.Location,
	}, parser, ds.Organizations)
	return &pipeline{cfg: cfg, dataset: ds, refresher: r}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadPipeline()
	if err != nil {
		return err
	}
	cfg := p.cfg

	if err := os.MkdirAll(cfg.ReportOutputDir, 0755); err != nil {
		return fmt.Errorf("create report output dir: %w", err)
	}
	log.Printf("Report output dir: %s", cfg.ReportOutputDir)

	res, err := p.refresher.Refresh(ctx)
	if err != nil {
		log.Printf("initial refresh error: %v", err)
	} else {
		log.Printf("initial refresh: %s", fetch.FormatRefreshSummary(res))
	}

	srv := server.New(p.refresher, cfg.Location, false)

	if !cfg.SlackConfigured() {
		fetch.StartAutoRefreshScheduler(ctx, cfg.RefreshSchedule, cfg.Location, p.refresher, nil)
		log.Println("Starting HTTP API without Slack...")
		return srv.Run(ctx, cfg.HTTPAddr)
	}

	api := slack.New(
		cfg.SlackBotToken,
		slack.OptionAppLevelToken(cfg.SlackAppToken),
	)
	bot := slackbot.NewBot(cfg, api, p.refresher, p.dataset.Organizations)

	fetch.StartAutoRefreshScheduler(ctx, cfg.RefreshSchedule, cfg.Location, p.refresher, bot.PostToReportChannel)
	nudge.StartNudgeScheduler(ctx, cfg, api, p.refresher)

	go func() {
		if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
			log.Printf("HTTP API error: %v", err)
			stop()
		}
	}()

	log.Println("Starting submission status bot...")
	return bot.Run(ctx)
}

func runHeaders(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	if cfg.SheetCSVURL == "" {
		return fmt.Errorf("sheet_csv_url is not set")
	}
	return printHeaders(cmd.Context(), cmd.OutOrStdout(), cfg.SheetCSVURL, cfg.Schema.Delimiter)
}

func printHeaders(ctx context.Context, w io.Writer, sheetURL string, delim rune) error {
	text, err := fetch.FetchSheetText(ctx, sheetURL)
	if err != nil {
		return err
	}
	header := sheet.Header(text, delim)
	if len(header) == 0 {
		return fmt.Errorf("sheet has no header row")
	}
	for i, h := range header {
		fmt.Fprintf(w, "%d: %s\n", i, h)
	}
	return nil
}

func runStatus(cmd *cobra.Command, region string) error {
	p, err := loadPipeline()
	if err != nil {
		return err
	}
	res, err := p.refresher.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), fetch.FormatRefreshSummary(res))

	snap := p.refresher.Current()
	out := cmd.OutOrStdout()
	if region == "" {
		fmt.Fprintln(out, report.FormatSummary(snap, p.cfg.TeamName))
		fmt.Fprintln(out, report.FormatRegionTable(snap))
		return nil
	}
	if _, ok := snap.Region(region); !ok {
		return fmt.Errorf("unknown region %q (available: %v)", region, snap.RegionNames())
	}
	fmt.Fprintln(out, report.FormatRegion(snap, region))
	fmt.Fprintln(out, report.FormatUnsubmitted(snap, region))
	return nil
}

func runExport(cmd *cobra.Command, kindArg, outDir, region, query string) error {
	kind, err := export.ParseKind(kindArg)
	if err != nil {
		return err
	}
	p, err := loadPipeline()
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = p.cfg.ReportOutputDir
	}
	if _, err := p.refresher.Refresh(cmd.Context()); err != nil {
		return err
	}
	path, err := export.WriteExportFile(outDir, kind, p.refresher.Current(), region, query, time.Now().In(p.cfg.Location))
	if err != nil {
		return err
	}
	log.Printf("export written kind=%s path=%s", kind, path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
