package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lcserver/internal/compiledb"
	"github.com/standardbeagle/lcserver/internal/config"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/pchcache"
	"github.com/standardbeagle/lcserver/internal/scheduler"
	"github.com/standardbeagle/lcserver/internal/types"
	"github.com/standardbeagle/lcserver/internal/workerpool"
)

// indexCommand is a one-shot batch index of every file the compiledb knows
// about, printed to stdout as "<compositeID> <symbolID> <kind> <name>
// (<path>)" lines, optionally filtered to one symbol by --symbol. It exists
// so the Symbol Index / Header Context pipeline has a driver outside the
// open-file scheduler's didOpen/didChange stream.
func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Index every translation unit in the compilation database and print its symbols",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Project root directory", Value: "."},
			&cli.StringFlag{Name: "symbol", Usage: "Only print the symbol matching this short or decimal SymbolID"},
		},
		Action: func(c *cli.Context) error {
			root := c.String("root")

			var filter *types.SymbolID
			if raw := c.String("symbol"); raw != "" {
				id, err := scheduler.ResolveSymbolFilter(raw)
				if err != nil {
					return fmt.Errorf("lcserver index: %w", err)
				}
				filter = &id
			}
			cfg, err := config.LoadKDL(root)
			if err != nil {
				return fmt.Errorf("lcserver index: loading config: %w", err)
			}

			db := compiledb.New()
			var paths []string
			if data, err := os.ReadFile(cfg.Index.CompileCommandsPath); err == nil {
				events, err := db.LoadJSON(data)
				if err != nil {
					return fmt.Errorf("lcserver index: parsing compile_commands.json: %w", err)
				}
				for _, e := range events {
					rel, err := filepath.Rel(root, e.Path)
					if err != nil {
						rel = e.Path
					}
					if !cfg.Matches(filepath.ToSlash(rel)) {
						continue
					}
					paths = append(paths, e.Path)
				}
			}

			cache := pchcache.New(cfg.Cache.Directory)
			builder := frontend.NewBuilder([]string{root})
			pool := workerpool.New(cfg.Performance.MaxWorkers)
			sched := scheduler.New(pool, builder, db, cache, cfg.Cache.Directory, func(string, int64, []frontend.Diagnostic) {})

			summaries, _, err := sched.IndexProject(paths)
			if err != nil {
				return err
			}
			for _, summary := range summaries {
				for localIdx, sym := range summary.Index.Symbols {
					if filter != nil && sym.ID != *filter {
						continue
					}
					fmt.Printf("%s %s %d %s (%s)\n",
						scheduler.ShortCompositeID(summary.FileID, localIdx),
						scheduler.ShortSymbolID(sym.ID),
						sym.Kind, sym.Name, summary.Path)
				}
			}
			return nil
		},
	}
}
