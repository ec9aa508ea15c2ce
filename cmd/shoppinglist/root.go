package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/shoppinglist"
	"github.com/jacentio/shoppinglist/internal/tracing"
	"github.com/jacentio/shoppinglist/store"
)

var version = "dev"

// config is the CLI configuration, loaded from flags, SHOPPINGLIST_*
// environment variables and an optional YAML file, in that order.
type config struct {
	Table        string         `mapstructure:"table"`
	Region       string         `mapstructure:"region"`
	Profile      string         `mapstructure:"profile"`
	Endpoint     string         `mapstructure:"endpoint"`
	Shards       int            `mapstructure:"shards"`
	TombstoneTTL time.Duration  `mapstructure:"tombstone_ttl"`
	Verbose      bool           `mapstructure:"verbose"`
	Tracing      tracing.Config `mapstructure:"tracing"`
}

type storeOpener func(ctx context.Context, cfg config) (shoppinglist.DocumentStore, error)

type app struct {
	out    io.Writer
	errOut io.Writer

	v       *viper.Viper
	cfgFile string
	cfg     config

	openStore storeOpener
	clock     shoppinglist.Clock

	logger   *slog.Logger
	provider *tracing.Provider
	repo     *shoppinglist.Repository
	factory  shoppinglist.Factory
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		v:         viper.New(),
		openStore: openDynamoDB,
		clock:     shoppinglist.SystemClock,
	}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:               "shoppinglist",
		Short:             "Manage shopping lists stored in DynamoDB",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.provider.Shutdown(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	defaults := store.DefaultConfig()
	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	flags.String("table", defaults.TableName, "DynamoDB table name")
	flags.String("region", "", "AWS region (default: from the AWS config)")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	flags.Int("shards", defaults.NumShards, "type index shards per record type")
	flags.Duration("tombstone-ttl", defaults.TombstoneTTL, "how long deleted records are kept")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.Bool("trace", false, "enable OpenTelemetry tracing")
	flags.String("trace-exporter", tracing.DefaultConfig().Exporter, "trace exporter: none, stdout or otlp")

	for key, flag := range map[string]string{
		"table":            "table",
		"region":           "region",
		"profile":          "profile",
		"endpoint":         "endpoint",
		"shards":           "shards",
		"tombstone_ttl":    "tombstone-ttl",
		"verbose":          "verbose",
		"tracing.enabled":  "trace",
		"tracing.exporter": "trace-exporter",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.listsCommand(),
		a.itemsCommand(),
		a.countCommand(),
		a.indexesCommand(),
	)
	return root
}

// loadConfig reads the configuration into a.cfg.
func (a *app) loadConfig() error {
	tc := tracing.DefaultConfig()
	a.v.SetDefault("tracing.otlp_endpoint", tc.OTLPEndpoint)
	a.v.SetDefault("tracing.sample_rate", tc.SampleRate)
	a.v.SetDefault("tracing.service_name", tc.ServiceName)

	a.v.SetEnvPrefix("SHOPPINGLIST")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if a.cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	tc := a.cfg.Tracing
	tc.Writer = a.errOut
	provider, err := tracing.NewProvider(cmd.Context(), tc)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	a.provider = provider

	s, err := a.openStore(cmd.Context(), a.cfg)
	if err != nil {
		return err
	}
	a.repo = shoppinglist.NewRepository(s, a.clock,
		shoppinglist.WithLogger(a.logger),
		shoppinglist.WithTracer(provider.Tracer()),
	)
	a.logger.Debug("configured",
		"table", a.cfg.Table,
		"shards", a.cfg.Shards,
		"tracing", provider.Enabled(),
	)
	return nil
}

// openDynamoDB builds the DynamoDB store from the AWS default config chain.
func openDynamoDB(ctx context.Context, cfg config) (shoppinglist.DocumentStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	sc := store.DefaultConfig()
	sc.TableName = cfg.Table
	sc.NumShards = cfg.Shards
	sc.TombstoneTTL = cfg.TombstoneTTL
	return store.New(client, sc), nil
}

// print writes v as indented JSON.
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe turns repository errors into messages for the terminal.
func describe(err error) error {
	switch {
	case errors.Is(err, shoppinglist.ErrNotFound):
		return fmt.Errorf("not found: %w", err)
	case errors.Is(err, shoppinglist.ErrConflict):
		return fmt.Errorf("record changed since it was read, fetch it again: %w", err)
	}
	return err
}
