// Command gk is a local password vault.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/and161185/gk-vault/internal/config"
	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/limiter"
	"github.com/and161185/gk-vault/internal/logging"
	"github.com/and161185/gk-vault/internal/repository/sqlite"
	"github.com/and161185/gk-vault/internal/service"
	"github.com/and161185/gk-vault/internal/vault"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app carries what every subcommand needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	prompt  *prompter
	out     io.Writer
	errOut  io.Writer
	timeout time.Duration // per storage call; time spent at prompts is not counted
}

const usageText = `gk: local password vault
Usage:
  gk [--config-dir DIR] <cmd> [flags]

Commands:
  version
  generate   [-l N]
  add        [--service S] [--username U] [--password P | --generate [-l N]] [--url URL] [--notes TEXT]
  list       [--show]
  get        --id N
  search     QUERY [--show]
  update     --id N [--service S] [--username U] [--password P | --generate [-l N]] [--url URL] [--notes TEXT]
  delete     --id N [--yes]
  export     [--out FILE]                          ('-' = stdout)
  import     --in FILE
  find       [--path DIR] [--name PART]
`

// main parses global flags, loads config and logging, and dispatches the subcommand.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fail(os.Stderr, err)
	}
}

func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	global := pflag.NewFlagSet("gk", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	configDir := global.String("config-dir", "", "config directory (default $GK_CONFIG_DIR or user config dir)")
	global.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if global.NArg() < 1 {
		global.Usage()
		return fmt.Errorf("%w: missing command", errs.ErrValidation)
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "gk %s (%s)\n", version, buildDate)
		return nil
	}

	dir := *configDir
	if dir == "" {
		d, err := config.Dir()
		if err != nil {
			return err
		}
		dir = d
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.LogDir())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a := &app{
		cfg:     cfg,
		log:     log,
		prompt:  newPrompter(stdin, stderr),
		out:     stdout,
		errOut:  stderr,
		timeout: storeTimeout,
	}
	log.Info("command", zap.String("cmd", cmd), zap.String("version", version))

	var cmdErr error
	switch cmd {
	case "generate":
		cmdErr = a.cmdGenerate(rest)
	case "add":
		cmdErr = a.cmdAdd(ctx, rest)
	case "list":
		cmdErr = a.cmdList(ctx, rest)
	case "get":
		cmdErr = a.cmdGet(ctx, rest)
	case "search":
		cmdErr = a.cmdSearch(ctx, rest)
	case "update":
		cmdErr = a.cmdUpdate(ctx, rest)
	case "delete", "rm":
		cmdErr = a.cmdDelete(ctx, rest)
	case "export":
		cmdErr = a.cmdExport(ctx, rest)
	case "import":
		cmdErr = a.cmdImport(ctx, rest)
	case "find":
		cmdErr = a.cmdFind(ctx, rest)
	default:
		global.Usage()
		cmdErr = fmt.Errorf("%w: unknown command %q", errs.ErrValidation, cmd)
	}
	if cmdErr != nil {
		log.Warn("command failed", zap.String("cmd", cmd), zap.Error(cmdErr))
	}
	return cmdErr
}

// openStore unlocks (or bootstraps) the vault and opens the entry store with its cipher.
// Failed unlocks are counted in the store and block further attempts for a while.
func (a *app) openStore(ctx context.Context) (service.EntryService, func(), error) {
	db, lim, err := a.openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = db.Close() }
	subject := a.cfg.VaultPath()

	c, err := vault.New(subject).Open(a.prompt)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			lctx, cancel := context.WithTimeout(ctx, a.timeout)
			blocked, _, lerr := lim.Failure(lctx, subject)
			cancel()
			if lerr != nil {
				a.log.Error("record unlock failure", zap.Error(lerr))
			}
			a.log.Warn("vault unlock rejected", zap.Bool("blocked", blocked))
		}
		closeFn()
		return nil, nil, err
	}
	lctx, cancel := context.WithTimeout(ctx, a.timeout)
	err = lim.Success(lctx, subject)
	cancel()
	if err != nil {
		a.log.Error("reset unlock attempts", zap.Error(err))
	}
	a.log.Info("vault unlocked")

	inner := service.NewEntryService(sqlite.NewEntryRepo(db), c, a.log)
	return &timeoutStore{next: inner, d: a.timeout}, closeFn, nil
}

// openDB opens the store and checks the unlock throttle under one deadline.
func (a *app) openDB(ctx context.Context) (*sqlite.DB, *limiter.SQLite, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	db, err := sqlite.Open(ctx, a.cfg.StoragePath(), a.log)
	if err != nil {
		return nil, nil, err
	}
	u := a.cfg.Unlock
	lim := limiter.NewSQLite(db.SQL, u.Window, u.MaxFailures, u.Lockout)
	ok, retry, err := lim.Allow(ctx, a.cfg.VaultPath())
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if !ok {
		_ = db.Close()
		a.log.Warn("vault unlock blocked", zap.Duration("retry_after", retry))
		return nil, nil, fmt.Errorf("%w: retry in %s", errs.ErrLocked, retry.Round(time.Second))
	}
	return db, lim, nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, errs.ErrValidation) {
		return 2
	}
	return 1
}

// message renders err for the user. Authentication failures never carry detail.
func message(err error) string {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return "invalid master password"
	case errors.Is(err, errs.ErrCrypto):
		return "cannot decrypt stored data (vault key mismatch or corrupted entry): " + err.Error()
	default:
		return err.Error()
	}
}

func fail(w io.Writer, err error) {
	fmt.Fprintln(w, "gk:", message(err))
	os.Exit(exitCode(err))
}
