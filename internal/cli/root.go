// Package cli implements the command-line interface for the article catalog.
package cli

import (
	"fmt"
	"os"

	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/cache"
	"github.com/lansepyy/article-admin/internal/config"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/spf13/cobra"
)

// annotationTerminal marks commands that take over the terminal.
const annotationTerminal = "terminal"

// Global flags
var (
	cfgFile string
	verbose bool
)

var (
	settings = config.New()
	cfg      *config.Config
	closeLog func()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               "articles",
	Short:             "articles – browse and search the article catalog",
	Long:              `A terminal browser and command-line client for the article catalog API.`,
	Version:           core.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: config.yaml in the state directory or .)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose debug logging")
	pf.String("api", core.DefaultAPIBaseURL, "Catalog API base URL")
	pf.String("cache", "memory", "Query cache backend (memory or filesystem)")
	pf.String("log-level", "info", "Log level")

	_ = settings.BindPFlag("api.base_url", pf.Lookup("api"))
	_ = settings.BindPFlag("cache.backend", pf.Lookup("cache"))
	_ = settings.BindPFlag("log.level", pf.Lookup("log-level"))
}

// setup loads configuration and initialises logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(settings, cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		loaded.Log.Level = "debug"
	}
	// The TUI owns the terminal, so its logs go to a file.
	if cmd.Annotations[annotationTerminal] == "owned" {
		loaded.Log.Output = "file"
	}

	closer, err := logging.Init(loaded.Log)
	if err != nil {
		return err
	}
	cfg = loaded
	closeLog = closer

	logging.WithComponent("cli").WithField("command", cmd.Name()).Debug("configuration loaded")
	return nil
}

// newArticleAPI builds the typed API over the HTTP client.
func newArticleAPI(c *config.Config) *api.ArticleAPI {
	return api.NewArticleAPI(api.NewClient(c.API))
}

// newBackend selects the query cache backend.
func newBackend(c *config.Config) cache.Backend {
	if c.Cache.Backend == "filesystem" {
		return cache.NewFilesystemBackend(c.Cache.Dir)
	}
	return cache.NewMemoryBackend()
}

// newSource is the cached data source every command reads through.
func newSource(c *config.Config) *cache.Manager {
	return cache.NewManager(newArticleAPI(c), newBackend(c), c.Browse.StaleTime)
}
