// Command thyme runs directive expressions against a vault of Markdown
// notes: interactively, one-off, or by rendering whole notes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/thymelang/thyme/pkg/analysis"
	"github.com/thymelang/thyme/pkg/boltcache"
	"github.com/thymelang/thyme/pkg/cache"
	"github.com/thymelang/thyme/pkg/config"
	"github.com/thymelang/thyme/pkg/engine"
	"github.com/thymelang/thyme/pkg/evaluator"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/parser"
	"github.com/thymelang/thyme/pkg/repl"
	"github.com/thymelang/thyme/pkg/scanner"
	"github.com/thymelang/thyme/pkg/sqlcache"
	"github.com/thymelang/thyme/pkg/vault"
)

const version = "0.1.0"

// world is everything a subcommand needs: the loaded config, the open
// vault, and an engine over it.
type world struct {
	cfg   *config.Config
	log   *slog.Logger
	vault *vault.Vault
	eng   *engine.Engine
	close func()
}

func setup(cmd *cli.Command) (*world, error) {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if path := cmd.String("vault"); path != "" {
		cfg.Vault.Path = path
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))

	v, err := vault.Open(cfg.Vault.Path, vault.WithLogger(log))
	if err != nil {
		return nil, err
	}

	var persistent cache.PersistentCache
	closer := func() {}
	switch cfg.Cache.Backend {
	case config.BackendBolt:
		db, err := boltcache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		persistent = db
		closer = func() { db.Close() }
	case config.BackendSQLite:
		db, err := sqlcache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		persistent = db
		closer = func() { db.Close() }
	}

	eng := engine.New(engine.Config{
		Store:         v,
		CacheCapacity: cfg.Cache.Capacity,
		Persistent:    persistent,
		Logger:        log,
	})
	return &world{cfg: cfg, log: log, vault: v, eng: eng, close: closer}, nil
}

// watchVault feeds external file edits into the engine so stale cached
// results are dropped as files change.
func watchVault(ctx context.Context, w *world) {
	go func() {
		err := w.vault.Watch(ctx, func(c vault.Change) {
			if c.Kind == vault.ChangeDeleted {
				w.eng.NoteDeleted(ctx, c.ID)
				return
			}
			w.eng.NoteChanged(ctx, c.ID)
		})
		if err != nil {
			w.log.Warn("watcher exited", slog.String("error", err.Error()))
		}
	}()
}

func replAction(ctx context.Context, cmd *cli.Command) error {
	w, err := setup(cmd)
	if err != nil {
		return err
	}
	defer w.close()

	if w.cfg.Vault.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		watchVault(watchCtx, w)
	}
	repl.Start(w.eng, w.vault, os.Stdout, version)
	return nil
}

func evalAction(ctx context.Context, cmd *cli.Command) error {
	source := cmd.Args().First()
	if source == "" {
		return fmt.Errorf("usage: thyme eval [--note <path>] '<directive>'")
	}
	w, err := setup(cmd)
	if err != nil {
		return err
	}
	defer w.close()

	var current *note.Note
	if path := cmd.String("note"); path != "" {
		n, ok := w.vault.ByPath(note.NormalizePath(path))
		if !ok {
			return fmt.Errorf("no note at %q", path)
		}
		current = n
	}

	res := w.eng.Execute(ctx, current, source, 0)
	if res.Err != nil {
		return cli.Exit(res.Err.PrettyString(), 1)
	}
	if res.Value != nil {
		fmt.Println(res.Value.Inspect())
	}
	return nil
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	w, err := setup(cmd)
	if err != nil {
		return err
	}
	defer w.close()

	notes := w.vault.All()
	if path := cmd.Args().First(); path != "" {
		n, ok := w.vault.ByPath(note.NormalizePath(path))
		if !ok {
			return fmt.Errorf("no note at %q", path)
		}
		notes = []*note.Note{n}
	}

	registry := evaluator.NewRegistry()
	problems := 0
	for _, n := range notes {
		for _, span := range scanner.Scan(n.Content) {
			directive, perr := parser.Parse(span.Source)
			if perr != nil {
				fmt.Printf("%s: offset %d: %s\n", n.Path, span.Offset, perr.String())
				problems++
				continue
			}
			if verr := analysis.Validate(directive, registry); verr != nil {
				fmt.Printf("%s: offset %d: %s\n", n.Path, span.Offset, verr.String())
				problems++
			}
		}
	}
	if problems > 0 {
		return cli.Exit(fmt.Sprintf("%d problem(s) found", problems), 1)
	}
	fmt.Println("OK")
	return nil
}

func renderAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: thyme render <note path>")
	}
	w, err := setup(cmd)
	if err != nil {
		return err
	}
	defer w.close()

	n, ok := w.vault.ByPath(note.NormalizePath(path))
	if !ok {
		return fmt.Errorf("no note at %q", path)
	}
	fmt.Print(w.eng.RenderNote(ctx, n))
	return nil
}

func main() {
	noteFlag := &cli.StringFlag{
		Name:  "note",
		Usage: "Run inside the note at this path",
	}
	cmd := &cli.Command{
		Name:  "thyme",
		Usage: "Directive expressions for Markdown notes: evaluate, cache, and render",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("THYME_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides the config)",
				Sources: cli.EnvVars("THYME_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "repl",
				Usage:  "Interactive directive prompt over the vault",
				Action: replAction,
			},
			{
				Name:      "eval",
				Usage:     "Evaluate one directive and print its result",
				ArgsUsage: "'<directive>'",
				Flags:     []cli.Flag{noteFlag},
				Action:    evalAction,
			},
			{
				Name:      "check",
				Usage:     "Parse and validate every directive without running anything",
				ArgsUsage: "[note path]",
				Action:    checkAction,
			},
			{
				Name:      "render",
				Usage:     "Render a note with every directive replaced by its result",
				ArgsUsage: "<note path>",
				Action:    renderAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitErr.ExitCode())
		}
		slog.Error("thyme error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
