package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"ucrauth/lib/auth"
	"ucrauth/lib/configutil"
	"ucrauth/lib/restyutil"
	"ucrauth/lib/sessionstore"
	"ucrauth/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpDir    string
	storeSpec  string
	restoreKey string
)

var rootCmd = &cobra.Command{
	Use:   "ucrauth",
	Short: "ucrauth acquires UCR CAS sessions and makes requests with them.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "config.json5", "The config file holding the auth and request objects.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enables debug logging.")
	flags.StringVar(&dumpDir, "dump", "", "Writes redacted HTTP exchanges to this directory, requires --verbose.")
	flags.StringVar(&storeSpec, "store", "", "Where session snapshots are kept: file:<dir>, sqlite:<file>, libsql:<url> or badger:<dir>.")
	flags.StringVar(&restoreKey, "restore", "", "Restores the session saved under this key before running.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore parses a --store value, the returned func releases the store.
func openStore(ctx context.Context, spec string) (sessionstore.Store, func(), error) {
	kind, target, ok := strings.Cut(spec, ":")
	if !ok || target == "" {
		return nil, nil, fmt.Errorf("invalid store %q, expected <kind>:<target>", spec)
	}

	switch kind {
	case "file":
		store, err := sessionstore.NewFileStore(target)
		return store, func() {}, err
	case "sqlite", "libsql":
		cfg := sessionstore.SQLConfig{File: target}
		if kind == "libsql" {
			cfg = sessionstore.SQLConfig{
				Url:       target,
				AuthToken: os.Getenv("LIBSQL_AUTH_TOKEN"),
			}
		}
		db, err := cfg.OpenDB()
		if err != nil {
			return nil, nil, err
		}
		store, err := sessionstore.NewSQLStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	case "badger":
		db, err := sessionstore.OpenBadger(target)
		if err != nil {
			return nil, nil, err
		}
		return sessionstore.NewBadgerStore(db), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", kind)
}

type state struct {
	authority *auth.Authority
	store     sessionstore.Store
	close     func()
}

// newState builds the authority from the config file and applies --dump,
// --store and --restore.
func newState(ctx context.Context) (state, error) {
	cfg, err := configutil.ReadConfig[auth.Config](configPath)
	if err != nil {
		return state{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	opts := auth.Options{}
	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			return state{}, err
		}
		opts.Output = output
	}

	authority, err := auth.FromConfig(cfg, opts)
	if err != nil {
		return state{}, err
	}
	s := state{authority: authority, close: func() {}}

	if storeSpec != "" {
		store, closeStore, err := openStore(ctx, storeSpec)
		if err != nil {
			return state{}, err
		}
		s.store = store
		s.close = closeStore
	}

	if restoreKey != "" {
		if s.store == nil {
			s.close()
			return state{}, fmt.Errorf("--restore requires --store")
		}
		jar, err := sessionstore.Restore(ctx, s.store, restoreKey)
		if err != nil {
			s.close()
			return state{}, fmt.Errorf("restore %q: %w", restoreKey, err)
		}
		authority.SetSession(jar)
	}

	return s, nil
}

// ensureSession makes the authority's cached session usable by requests.
// A restored session is kept unless `refresh` is set.
func (s state) ensureSession(ctx context.Context, refresh bool) error {
	if s.authority.Cached() != nil && !refresh {
		return nil
	}
	jar, err := s.authority.Session(ctx, refresh)
	if err != nil {
		return err
	}
	s.authority.SetSession(jar)
	return nil
}
