// Command quixctl operates on a workspace store directly: it emits batch
// files, prints trees, and exports or replays journals.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quix/internal/config"
	"quix/internal/domain/services"
	"quix/internal/repository"
	"quix/internal/service/eventsourcing"
)

// app carries what every subcommand needs after flag parsing
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "quixctl",
		Short:         "Operate on a quix workspace store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/quix/config.yaml)")
	flags.String("driver", "", "store driver: postgres, sqlite or memory")
	flags.String("database-url", "", "postgres connection string")
	flags.String("sqlite-path", "", "sqlite database file")
	flags.String("table-prefix", "", "postgres table prefix")
	flags.String("actor", "", "actor id the command runs as")
	flags.Bool("debug", false, "debug logging on stderr")
	for _, name := range []string{"driver", "database-url", "sqlite-path", "table-prefix", "actor", "debug"} {
		cobra.CheckErr(a.v.BindPFlag(name, flags.Lookup(name)))
	}

	root.AddCommand(newEmitCmd(a))
	root.AddCommand(newTreeCmd(a))
	root.AddCommand(newJournalCmd(a))
	root.AddCommand(newReplayCmd(a))
	return root
}

// init layers flags, QUIX_* variables and the optional config file over the
// server's environment configuration.
func (a *app) init() error {
	_ = godotenv.Load()
	a.cfg = config.Load()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home + "/.config/quix")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	a.v.SetEnvPrefix("QUIX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	a.v.SetDefault("driver", a.cfg.StoreDriver)
	a.v.SetDefault("database-url", a.cfg.DatabaseURL)
	a.v.SetDefault("sqlite-path", a.cfg.SQLitePath)
	a.v.SetDefault("table-prefix", a.cfg.TablePrefix)

	if err := a.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || a.cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.cfg.StoreDriver = a.v.GetString("driver")
	a.cfg.DatabaseURL = a.v.GetString("database-url")
	a.cfg.SQLitePath = a.v.GetString("sqlite-path")
	a.cfg.TablePrefix = a.v.GetString("table-prefix")
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if a.v.GetBool("debug") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) actor(fallback string) (string, error) {
	if actor := a.v.GetString("actor"); actor != "" {
		return actor, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no actor: pass --actor or set QUIX_ACTOR")
}

func (a *app) open(ctx context.Context, cfg *config.Config) (*repository.Backend, error) {
	return repository.Open(ctx, cfg, true, a.logger)
}

func (a *app) bus(backend *repository.Backend) services.EventBus {
	return eventsourcing.NewEventBus(backend.Store, backend.TxManager, eventsourcing.Config{
		MaxBatchSize: a.cfg.MaxBatchSize,
	}, a.logger)
}
