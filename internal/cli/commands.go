package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/cache"
	"github.com/lansepyy/article-admin/internal/catalog"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/lansepyy/article-admin/internal/output"
	"github.com/lansepyy/article-admin/internal/paging"
	"github.com/lansepyy/article-admin/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)

	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// Browse command flags
	browseCmd.Flags().String("images", "", "Preview image mode (show, blur or hide)")

	// Search command flags
	searchCmd.Flags().StringP("keyword", "k", "", "Match titles containing this text")
	searchCmd.Flags().StringP("category", "c", "", "Category or sub type")
	searchCmd.Flags().StringP("range", "r", "", "Publish date range (7d, 1w, 1m, 1y or all)")
	searchCmd.Flags().IntP("page", "p", 1, "Page to fetch")
	searchCmd.Flags().Int("per-page", 0, "Items per page (default from config)")
	searchCmd.Flags().Bool("all", false, "Stream every matching item")
	searchCmd.Flags().Int("limit", 0, "With --all, stop after this many items")
	searchCmd.Flags().Int("parallel", core.ExportMaxWorkers, "With --all, max pages to fetch in parallel")
	searchCmd.Flags().Bool("raw", false, "Emit raw JSON")

	// Categories command flags
	categoriesCmd.Flags().Bool("raw", false, "Emit raw JSON")

	// Serve command flags
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().String("db", "", "SQLite database path or :memory: (default from config)")
	serveCmd.Flags().String("seed", "", "JSON file of items to load before serving")
	_ = settings.BindPFlag("catalog.addr", serveCmd.Flags().Lookup("addr"))
	_ = settings.BindPFlag("catalog.db", serveCmd.Flags().Lookup("db"))
	_ = settings.BindPFlag("catalog.seed", serveCmd.Flags().Lookup("seed"))
}

// browseCmd runs the interactive browser
var browseCmd = &cobra.Command{
	Use:         "browse",
	Short:       "Browse the catalog interactively",
	Annotations: map[string]string{annotationTerminal: "owned"},
	RunE:        handleBrowse,
}

// searchCmd prints one page of matches, or all of them with --all
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog",
	Args:  cobra.NoArgs,
	RunE:  handleSearch,
}

// categoriesCmd lists categories with counts
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with item counts",
	Args:  cobra.NoArgs,
	RunE:  handleCategories,
}

// serveCmd runs the local catalog service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local SQLite-backed catalog API",
	Args:  cobra.NoArgs,
	RunE:  handleServe,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-disk query cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries older than the stale time",
	Args:  cobra.NoArgs,
	RunE:  handleCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:       "clear [search|categories]",
	Short:     "Remove cached entries, optionally of one kind",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{cache.KindSearch, cache.KindCategories},
	RunE:      handleCacheClear,
}

// mcpCmd starts the MCP server
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI integration",
	RunE:  handleMCP,
}

func handleBrowse(cmd *cobra.Command, args []string) error {
	images, _ := cmd.Flags().GetString("images")
	if images == "" {
		images = cfg.UI.ImageMode
	}
	switch images {
	case ui.ImagesShow, ui.ImagesBlur, ui.ImagesHide:
	default:
		return fmt.Errorf("--images must be show, blur or hide, got %q", images)
	}

	m := ui.New(newSource(cfg), ui.Options{
		PageSize:   cfg.Browse.PageSize,
		StaleTime:  cfg.Browse.StaleTime,
		Debounce:   cfg.Browse.Debounce,
		Siblings:   cfg.Browse.Siblings,
		Breakpoint: cfg.UI.Breakpoint,
		CellWidth:  cfg.UI.CellWidth,
		ImageMode:  images,
	})
	defer m.Close()

	logging.WithComponent("cli").WithField("api", cfg.API.BaseURL).Info("starting browser")
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}

// filterFromFlags reads and validates the filter flags.
func filterFromFlags(cmd *cobra.Command) (api.Filter, error) {
	keyword, _ := cmd.Flags().GetString("keyword")
	category, _ := cmd.Flags().GetString("category")
	rangeStr, _ := cmd.Flags().GetString("range")

	timeRange, err := core.NormalizeTimeRange(rangeStr)
	if err != nil {
		return api.Filter{}, err
	}
	return api.Filter{Keyword: keyword, Category: category, TimeRange: timeRange}, nil
}

func handleSearch(cmd *cobra.Command, args []string) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	parallel, _ := cmd.Flags().GetInt("parallel")
	raw, _ := cmd.Flags().GetBool("raw")

	if perPage <= 0 {
		perPage = cfg.Browse.PageSize
	}
	if page < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", page)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := newSource(cfg)
	log := logging.WithComponent("cli")

	if all {
		items, errc := source.StreamAll(ctx, filter, cache.StreamOptions{
			PageSize:   perPage,
			MaxResults: limit,
			Parallel:   parallel,
		})
		var n int
		var werr error
		if raw {
			n, werr = output.StreamJSON(cmd.OutOrStdout(), items)
		} else {
			n, werr = output.StreamText(cmd.OutOrStdout(), items)
		}
		// Drain so the producer can finish if the writer failed.
		for range items {
		}
		if err := <-errc; err != nil {
			return err
		}
		if werr != nil {
			return werr
		}
		log.WithFields(logrus.Fields{"items": n, "filter": filter.Key()}).Debug("export complete")
		return nil
	}

	result, err := source.SearchItems(ctx, page, perPage, filter)
	if err != nil {
		return err
	}
	if raw {
		return output.PrintJSON(cmd.OutOrStdout(), result)
	}
	return output.PrintPage(cmd.OutOrStdout(), result, page, paging.TotalPages(result.Total, perPage))
}

func handleCategories(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")

	cats, err := newSource(cfg).ListCategories(cmd.Context())
	if err != nil {
		return err
	}
	if raw {
		return output.PrintJSON(cmd.OutOrStdout(), cats)
	}
	return output.PrintCategories(cmd.OutOrStdout(), cats)
}

func handleServe(cmd *cobra.Command, args []string) error {
	log := logging.WithComponent("cli")

	store, err := catalog.Open(cfg.Catalog.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Catalog.Seed != "" {
		n, err := store.LoadSeed(ctx, cfg.Catalog.Seed)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"items": n, "seed": cfg.Catalog.Seed}).Info("seed loaded")
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	return catalog.NewServer(store).Run(ctx, cfg.Catalog.Addr)
}

// cacheLocation names where a backend keeps its entries.
func cacheLocation(b cache.Backend) string {
	if fs, ok := b.(*cache.FilesystemBackend); ok {
		return fs.Root()
	}
	return "memory"
}

func handleCachePrune(cmd *cobra.Command, args []string) error {
	backend := newBackend(cfg)
	removed := cache.NewManager(newArticleAPI(cfg), backend, cfg.Browse.StaleTime).Prune()
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale entries from %s\n", removed, cacheLocation(backend))
	return nil
}

func handleCacheClear(cmd *cobra.Command, args []string) error {
	kind := ""
	if len(args) == 1 {
		kind = args[0]
		if kind != cache.KindSearch && kind != cache.KindCategories {
			return fmt.Errorf("unknown cache kind %q", kind)
		}
	}
	backend := newBackend(cfg)
	removed := cache.NewManager(newArticleAPI(cfg), backend, cfg.Browse.StaleTime).Invalidate(kind)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from %s\n", removed, cacheLocation(backend))
	return nil
}

func handleMCP(cmd *cobra.Command, args []string) error {
	return newMCPServer(newSource(cfg), cmd.OutOrStdout()).Serve(cmd.Context(), cmd.InOrStdin())
}
