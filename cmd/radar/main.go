// Package main is the radar CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/radar/internal/cli"
	"github.com/hyperjump/radar/internal/config"
	"github.com/hyperjump/radar/internal/indexer"
	"github.com/hyperjump/radar/internal/keyword"
	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/planner"
	"github.com/hyperjump/radar/internal/radar"
	"github.com/hyperjump/radar/internal/search"
	"github.com/hyperjump/radar/internal/server"
	"github.com/hyperjump/radar/internal/storage"
	"github.com/hyperjump/radar/internal/watcher"
	"github.com/hyperjump/radar/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/radar/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, so "radar server" from the project dir uses
// the project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		// no config file at all: defaults plus environment
		cfg := config.Default()
		config.ApplyEnv(cfg)
		return cfg, "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "create":
		runCreate()
	case "run":
		runRun()
	case "latest":
		runLatest()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "reindex":
		runReindex()
	case "version", "--version", "-v":
		fmt.Printf("radar version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("storage_driver", cfg.Storage.Driver),
	)
	if cfg.Search.APIKey == "" {
		logger.Warn("YOU_DOT_COM is not set; report runs will fail until it is")
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("DEEP_INFRA_API_KEY is not set; plan generation and synthesis will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if resolvedConfigPath != "" {
		cw := watcher.NewConfigWatcher(resolvedConfigPath, func(next *config.Config) {
			components.Service.SetPipelineConfig(next.Pipeline)
		}, logger)
		if err := cw.Start(ctx); err != nil {
			logger.Warn("config watcher not started", zap.Error(err))
		} else {
			defer cw.Stop()
		}
	}

	srv := server.NewServer(
		components.Service,
		components.Planner,
		components.Storage,
		components.Index,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// stringList is a repeatable string flag. Values may also be comma separated.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

func runCreate() {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run directly against storage)")
	radarID := fs.String("id", "", "existing radar id to regenerate")
	owner := fs.String("owner", "", "owner id (required for new radars)")
	title := fs.String("title", "", "radar title (default: \"<industry> - <role>\")")
	role := fs.String("role", "", "your role")
	industry := fs.String("industry", "", "your industry")
	audience := fs.String("audience", "", "who you report to or write for")
	product := fs.String("product", "", "product focus")
	outputFormat := fs.String("output", "text", "output format: text or json")
	var priorities, geography, avoid stringList
	fs.Var(&priorities, "priority", "priority topic (repeatable)")
	fs.Var(&geography, "geo", "geography (repeatable)")
	fs.Var(&avoid, "avoid", "topic to avoid (repeatable)")
	_ = fs.Parse(os.Args[2:])

	body := map[string]interface{}{
		"radarId": *radarID,
		"ownerId": *owner,
		"title":   *title,
		"profile": models.RadarProfile{
			Role:         *role,
			Industry:     *industry,
			ProductFocus: *product,
			Audience:     *audience,
			Geography:    geography,
			Priorities:   priorities,
			Avoid:        avoid,
		},
	}
	format := cli.ParseFormat(*outputFormat)

	if *serverURL != "" {
		var out map[string]interface{}
		if err := apiDo(http.MethodPost, *serverURL+"/api/radars", body, &out); err != nil {
			fail("Create failed", err)
		}
		delete(out, "success")
		writeOrFail(cli.WriteValue(os.Stdout, out, format))
		return
	}

	components, cleanup := directComponents(*configPath)
	defer cleanup()
	profile := body["profile"].(models.RadarProfile)
	rd, err := components.Planner.Create(context.Background(), planner.CreateInput{
		RadarID: *radarID,
		OwnerID: *owner,
		Title:   *title,
		Profile: &profile,
	})
	if err != nil {
		fail("Create failed", err)
	}
	writeOrFail(cli.WriteValue(os.Stdout, map[string]interface{}{
		"radarId":        rd.ID,
		"mermaidDiagram": rd.MermaidDiagram,
		"queries":        strings.Join(rd.QueryPlan.Resolve().FinalQueries, " | "),
	}, format))
}

// runPath returns the API path for a pipeline run.
func runPath(radarID string, v1 bool) string {
	p := "/api/radars/" + url.PathEscape(radarID) + "/run"
	if !v1 {
		p += "/v2"
	}
	return p
}

type runResponse struct {
	Success  bool           `json:"success"`
	ReportID string         `json:"reportId"`
	Report   *models.Report `json:"report"`
	Cached   bool           `json:"cached"`
	Saved    bool           `json:"saved"`
}

func runRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run directly)")
	v1 := fs.Bool("v1", false, "produce a sectioned report instead of a scored list")
	fresh := fs.Bool("fresh", false, "skip reuse of a recent report")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: radar run [--v1] [--fresh] <radarId>")
		os.Exit(1)
	}
	radarID := fs.Arg(0)
	format := cli.ParseFormat(*outputFormat)

	if *serverURL != "" {
		var out runResponse
		if err := apiDo(http.MethodPost, *serverURL+runPath(radarID, *v1), map[string]bool{"freshRun": *fresh}, &out); err != nil {
			fail("Run failed", err)
		}
		if !out.Saved && format == cli.OutputText {
			fmt.Fprintln(os.Stderr, "warning: report was not saved")
		}
		writeOrFail(cli.WriteReport(os.Stdout, out.Report, format))
		return
	}

	components, cleanup := directComponents(*configPath)
	defer cleanup()
	run := components.Service.RunV2
	if *v1 {
		run = components.Service.RunV1
	}
	res, err := run(context.Background(), radarID, radar.RunOptions{FreshRun: *fresh})
	if err != nil {
		fail("Run failed", err)
	}
	if !res.Saved && format == cli.OutputText {
		fmt.Fprintln(os.Stderr, "warning: report was not saved")
	}
	writeOrFail(cli.WriteReport(os.Stdout, res.Report, format))
}

func runLatest() {
	fs := flag.NewFlagSet("latest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: radar latest <radarId>")
		os.Exit(1)
	}
	radarID := fs.Arg(0)
	format := cli.ParseFormat(*outputFormat)

	var report *models.Report
	if *serverURL != "" {
		var out struct {
			Report *models.Report `json:"report"`
		}
		if err := apiDo(http.MethodGet, *serverURL+"/api/radars/"+url.PathEscape(radarID)+"/reports/latest", nil, &out); err != nil {
			fail("Latest failed", err)
		}
		report = out.Report
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fail("Failed to load config", err)
		}
		store, err := storage.Open(context.Background(), cfg.Storage)
		if err != nil {
			fail("Failed to open storage", err)
		}
		defer store.Close()
		report, err = store.LatestReport(context.Background(), radarID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			fail("Latest failed", err)
		}
	}
	writeOrFail(cli.WriteReport(os.Stdout, report, format))
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves any flags (and their values) that appear after the positionals
// to the front so that flag.Parse sees them; the flag package stops at the first
// non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use the index directly when the server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: radar search [flags] <radarId> <query>")
		os.Exit(1)
	}
	radarID := fs.Arg(0)
	q := models.ReportSearchQuery{RadarID: radarID, Query: buildSearchQuery(fs.Args()[1:]), Limit: *limit}
	if err := q.Validate(); err != nil {
		fail("Search failed", err)
	}
	format := cli.ParseFormat(*outputFormat)

	var searchFn func(fuzzy bool) (*models.ReportSearchResponse, error)
	if *serverURL != "" {
		searchFn = func(fz bool) (*models.ReportSearchResponse, error) {
			return searchViaHTTP(*serverURL, q, fz)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fail("Failed to load config", err)
		}
		idx, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
		if err != nil {
			fail("Failed to open report index", err)
		}
		defer idx.Close()
		searchFn = func(fz bool) (*models.ReportSearchResponse, error) {
			return searchDirect(idx, q, fz)
		}
	}

	resp, err := searchFn(*fuzzy)
	if err != nil {
		fail("Search failed", err)
	}
	// retry with fuzzy matching when an exact search finds nothing
	if !*fuzzy && resp.Total == 0 {
		if fuzzyResp, fuzzyErr := searchFn(true); fuzzyErr == nil && fuzzyResp.Total > 0 {
			resp = fuzzyResp
		}
	}
	writeOrFail(cli.WriteSearchHits(os.Stdout, resp, format))
}

func searchViaHTTP(serverURL string, q models.ReportSearchQuery, fuzzy bool) (*models.ReportSearchResponse, error) {
	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("limit", fmt.Sprint(q.Limit))
	if fuzzy {
		params.Set("fuzzy", "true")
	}
	var out models.ReportSearchResponse
	err := apiDo(http.MethodGet, serverURL+"/api/radars/"+url.PathEscape(q.RadarID)+"/reports/search?"+params.Encode(), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func searchDirect(idx keyword.ReportIndex, q models.ReportSearchQuery, fuzzy bool) (*models.ReportSearchResponse, error) {
	start := time.Now()
	hits, err := idx.Search(context.Background(), q.RadarID, q.Query, q.Limit, &keyword.SearchOptions{FuzzyEnabled: fuzzy})
	if err != nil {
		return nil, err
	}
	resp := &models.ReportSearchResponse{Query: q.Query, Hits: make([]*models.ReportHit, 0, len(hits))}
	for _, h := range hits {
		resp.Hits = append(resp.Hits, &models.ReportHit{ReportID: h.ReportID, URL: h.URL, Headline: h.Headline, Source: h.Source, Score: h.Score})
	}
	resp.Total = len(resp.Hits)
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := cli.ParseFormat(*outputFormat)

	if *serverURL != "" {
		var out map[string]interface{}
		if err := apiDo(http.MethodGet, *serverURL+"/api/status", nil, &out); err != nil {
			fail("Status failed", err)
		}
		writeOrFail(cli.WriteValue(os.Stdout, out, format))
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fail("Failed to load config", err)
	}
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fail("Failed to open storage", err)
	}
	defer store.Close()
	radars, err := store.CountRadars(ctx)
	if err != nil {
		fail("Status failed", err)
	}
	reports, err := store.CountReports(ctx)
	if err != nil {
		fail("Status failed", err)
	}
	out := map[string]interface{}{"radars": radars, "reports": reports}
	if usage, err := storage.StorageUsage(cfg.Storage); err == nil {
		out["diskUsageBytes"] = usage.TotalBytes
		out["diskUsage"] = usage
	}
	writeOrFail(cli.WriteValue(os.Stdout, out, format))
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = rebuild directly; the server must be stopped)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	radarID := fs.Arg(0)
	format := cli.ParseFormat(*outputFormat)

	if *serverURL != "" {
		path := "/api/reindex"
		if radarID != "" {
			path = "/api/radars/" + url.PathEscape(radarID) + "/reindex"
		}
		var out map[string]interface{}
		if err := apiDo(http.MethodPost, *serverURL+path, nil, &out); err != nil {
			fail("Reindex failed", err)
		}
		delete(out, "success")
		writeOrFail(cli.WriteValue(os.Stdout, out, format))
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fail("Failed to load config", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fail("Failed to create logger", err)
	}
	defer logger.Sync()
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fail("Failed to open storage", err)
	}
	defer store.Close()
	idx, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		fail("Failed to open report index", err)
	}
	defer idx.Close()

	ix := indexer.NewIndexer(store, idx, indexer.WithLogger(logger))
	var stats indexer.Stats
	if radarID != "" {
		stats, err = ix.IndexRadar(ctx, radarID)
	} else {
		stats, err = ix.IndexAll(ctx)
	}
	if err != nil {
		fail("Reindex failed", err)
	}
	writeOrFail(cli.WriteValue(os.Stdout, map[string]interface{}{
		"radars":  stats.Radars,
		"reports": stats.Reports,
		"items":   stats.Items,
	}, format))
}

// apiDo sends body as JSON (when non-nil) and decodes a 200 response into out.
// Error responses are returned with their {error} message.
func apiDo(method, target string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, target, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func writeOrFail(err error) {
	if err != nil {
		fail("Output failed", err)
	}
}

// directComponents loads config and wires components for commands that run without
// a server. The returned cleanup closes them.
func directComponents(configPath string) (*Components, func()) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fail("Failed to load config", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fail("Failed to create logger", err)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fail("Failed to initialize", err)
	}
	return components, func() {
		components.Close()
		_ = logger.Sync()
	}
}

// Components holds the wired services.
type Components struct {
	Storage storage.Storage
	Index   *keyword.BleveIndex
	Redis   *redis.Client
	Service *radar.Service
	Planner *planner.Planner
}

// Close releases storage, index and cache connections.
func (c *Components) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	components := &Components{Storage: store}

	idx, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to initialize report index: %w", err)
	}
	components.Index = idx

	completer := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTimeout(cfg.LLM.RequestTimeout),
		llm.WithLogger(logger),
	)

	var provider search.Provider = search.NewYouComClient(cfg.Search.APIKey,
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithLogger(logger),
	)
	if cfg.Search.RedisAddr != "" {
		rdb, err := search.DialRedis(ctx, cfg.Search.RedisAddr)
		if err != nil {
			logger.Warn("search cache disabled", zap.String("redis_addr", cfg.Search.RedisAddr), zap.Error(err))
		} else {
			components.Redis = rdb
			provider = search.NewCachedProvider(provider, search.NewRedisCache(rdb, cfg.Search.CacheTTL, logger))
			logger.Info("search cache enabled", zap.String("redis_addr", cfg.Search.RedisAddr), zap.Duration("ttl", cfg.Search.CacheTTL))
		}
	}
	fanout := search.NewFanOut(provider, cfg.Search.RequestTimeout, logger)

	components.Service = radar.NewService(store, fanout, completer, cfg.Pipeline,
		radar.WithIndex(idx),
		radar.WithLogger(logger),
		radar.WithMaxQueries(cfg.Search.MaxQueries),
	)
	components.Planner = planner.New(completer, store, logger)
	return components, nil
}

func printUsage() {
	fmt.Println(`radar - industry radar reports from web search and an LLM

Usage:
  radar server [flags]                    Start the HTTP server
  radar create [flags]                    Create a radar (or regenerate its plan with --id)
  radar run [flags] <radarId>             Run a report (scored list; --v1 for sections)
  radar latest [flags] <radarId>          Show the newest report
  radar search [flags] <radarId> <query>  Search the items of past reports
  radar status [flags]                    Show storage and index status
  radar reindex [flags] [radarId]         Rebuild the report item index from history
  radar version                           Show version
  radar help                              Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/radar/config.yaml)
  --debug            Enable debug logging

Create Flags:
  --owner string     Owner id (required for new radars)
  --id string        Existing radar id to regenerate
  --role, --industry, --audience, --product string
  --priority string  Priority topic (repeatable, or comma separated)
  --geo, --avoid string  Geography and topics to avoid (repeatable)

Run Flags:
  --v1               Sectioned report instead of the scored list
  --fresh            Skip reuse of a recent saved report

Common Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to work directly
                     against storage when the server is not running.
  --config string    Config file path for direct mode
  --output string    Output format: text or json (default: text)

Search Flags:
  --limit int        Number of results (default: 10)
  --fuzzy            Enable fuzzy matching for typo tolerance

Environment:
  YOU_DOT_COM            Search API key
  DEEP_INFRA_API_KEY     LLM API key
  DEEP_INFRA_DEFAULT_MODEL, DATABASE_URL, REDIS_ADDR

Examples:
  radar server
  radar create --owner me --role CTO --industry Fintech --priority payments --priority compliance
  radar run 3f2c...                       # scored list
  radar run --v1 --fresh 3f2c...          # sectioned report
  radar latest --output json 3f2c...
  radar search 3f2c... stablecoin regulation
  radar status`)
}
