package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor/pdftext"
	"github.com/aqlanhadi/analyzer/logger"
	"github.com/aqlanhadi/analyzer/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration, used when no .analyzer.yaml is found
const defaultConfigYAML = `
storage:
  driver: bolt
  path: ""
log:
  level: info
pdf:
  unidoc_license_key: ""
server:
  port: "8080"
inbox:
  dir: ""
  schedule: "@every 1m"
statement:
  CHASE:
    patterns:
      transaction: (\d{1,2}/\d{1,2})\s+(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)\s*$
      trailing_amount: ^(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)$
      fallback_date: \b(\d{1,2}/\d{1,2})\b
      fallback_body: ^\s+(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)
    sections:
      in: [DEPOSIT, ADDITION, CREDIT]
      out: [WITHDRAWAL, PAYMENT, PURCHASE, DEBIT, FEE, ELECTRONIC]`

var (
	cfgFile string
	verbose bool
	jsonOut bool
	log     = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "analyzer [file]",
	Short: "Analyze bank statement PDFs",
	Long: `analyzer extracts transactions from bank statement PDFs, categorizes them and
keeps a local ledger per project that can be filtered, summarized and exported.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runExtract(cmd, args)
		}
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.analyzer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().String("storage", "", "storage driver: bolt, file or memory")
	rootCmd.PersistentFlags().String("db", "", "storage path")
	viper.BindPFlag("storage.driver", rootCmd.PersistentFlags().Lookup("storage"))
	viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("db"))
}

func initLogging() {
	level := logger.ParseLevel(viper.GetString("log.level"))
	if verbose {
		level = zerolog.DebugLevel
	}
	log = logger.New().Level(level)
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	viper.SetEnvPrefix("ANALYZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading embedded configuration: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".analyzer")
	}

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func newExtractor() *pdftext.Extractor {
	opts := []pdftext.Option{pdftext.WithLogger(log)}
	if key := viper.GetString("pdf.unidoc_license_key"); key != "" {
		opts = append(opts, pdftext.WithUnidoc(key))
	}
	return pdftext.New(opts...)
}

// openStore restores the persisted store. The returned function closes the storage.
func openStore(ctx context.Context, extra ...analyzer.Option) (*analyzer.Store, func(), error) {
	driver := viper.GetString("storage.driver")
	persister, closeFn, err := storage.Open(driver, viper.GetString("storage.path"))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", driver, err)
	}

	opts := append([]analyzer.Option{
		analyzer.WithPersister(persister),
		analyzer.WithExtractor(newExtractor()),
		analyzer.WithLogger(log),
	}, extra...)
	store, err := analyzer.Open(ctx, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, func() {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}, nil
}

// withStore runs fn against the persisted store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *analyzer.Store) error) error {
	ctx := logger.WithContext(cmd.Context(), log)
	store, closeFn, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
