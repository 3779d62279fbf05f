package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/api"
	"github.com/aqlanhadi/analyzer/inbox"
	"github.com/aqlanhadi/analyzer/logger"
	"github.com/aqlanhadi/analyzer/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the analyzer over HTTP. With --inbox, PDFs dropped into the directory are
processed on the given cron schedule and moved to its processed/ subdirectory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logger.WithContext(ctx, log)

		rec := metrics.New()
		store, closeStore, err := openStore(ctx, analyzer.WithBatchObserver(rec.ObserveBatch))
		if err != nil {
			return err
		}
		defer closeStore()

		if dir := viper.GetString("inbox.dir"); dir != "" {
			w := inbox.New(dir, store, inbox.WithLogger(log))
			if err := w.Start(viper.GetString("inbox.schedule")); err != nil {
				return err
			}
			defer func() { <-w.Stop().Done() }()
		}

		cfg := api.DefaultConfig()
		if port := viper.GetString("server.port"); port != "" {
			cfg.Port = listenAddr(port)
		}
		server := api.New(cfg, store,
			api.WithLogger(log),
			api.WithMetrics(rec),
			api.WithExtractor(newExtractor()),
		)
		return server.Start(ctx)
	},
}

// listenAddr accepts "8080" as well as ":8080" or "127.0.0.1:8080".
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on (default 8080)")
	serveCmd.Flags().String("inbox", "", "directory to watch for new PDFs")
	serveCmd.Flags().String("schedule", "", `cron schedule for the inbox (default "`+inbox.DefaultSchedule+`")`)
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("inbox.dir", serveCmd.Flags().Lookup("inbox"))
	viper.BindPFlag("inbox.schedule", serveCmd.Flags().Lookup("schedule"))
}
