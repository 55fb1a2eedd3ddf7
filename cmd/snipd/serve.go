package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/snipd/snipd/internal/config"
	"github.com/snipd/snipd/internal/home"
	"github.com/snipd/snipd/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the snipd server",
	Long: `Start the snipd HTTP server.

Snippets and generation history are stored in a SQLite database under
the snipd home directory. Configuration is hot-reloaded when the config
file changes.

Examples:
  snipd serve                    # Start on default port 8585
  snipd serve --port 3000        # Start on custom port
  snipd serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config with hot reload
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		host, port, dbPath := serveOptions(cfgMgr.Get(), h, cmd.Flags())

		// Create server
		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			DBPath:        dbPath,
			Home:          h,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// serveOptions resolves the listen address and database path. Flags set on
// the command line win over the config file; the config file wins over the
// home-directory default.
func serveOptions(cfg *config.Config, h *home.Dir, flags *pflag.FlagSet) (host string, port int, dbPath string) {
	host = cfg.Server.Host
	port = cfg.Server.Port
	if flags.Changed("host") {
		host = serveHost
	}
	if flags.Changed("port") {
		port = servePort
	}
	dbPath = cfg.Store.Path
	if dbPath == "" {
		dbPath = h.DBPath()
	}
	return host, port, dbPath
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8585, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
