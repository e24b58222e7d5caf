// Command lcserver is the entrypoint: it loads configuration, wires the
// compilation pipeline together, and speaks a minimal line-delimited-JSON
// protocol over stdio sufficient to drive every in-scope component end to
// end. Real JSON-RPC framing/transport is out of scope (spec.md §1 treats
// it as an external collaborator); this is the harness cmd/lcserver needs
// to actually exercise the rest of the module.
//
// Grounded on the teacher's cmd/lci/main.go: a urfave/cli.App with a single
// top-level flag set, a loadConfigWithOverrides helper, and a long-running
// main loop started from main().
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lcserver/internal/compiledb"
	"github.com/standardbeagle/lcserver/internal/config"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/logging"
	"github.com/standardbeagle/lcserver/internal/pchcache"
	"github.com/standardbeagle/lcserver/internal/posconv"
	"github.com/standardbeagle/lcserver/internal/scheduler"
	"github.com/standardbeagle/lcserver/internal/workerpool"
)

func main() {
	app := &cli.App{
		Name:                   "lcserver",
		Usage:                  "C/C++ language server core",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Project root directory", Value: "."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Ignored: configuration is always read from .lcserver.kdl in root", Value: ".lcserver.kdl"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, or error", Value: ""},
			&cli.StringFlag{Name: "encoding", Usage: "utf-8, utf-16, or utf-32", Value: ""},
		},
		Commands: []*cli.Command{
			indexCommand(),
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return fmt.Errorf("lcserver: resolving root: %w", err)
	}

	cfg, err := config.LoadKDL(root)
	if err != nil {
		return fmt.Errorf("lcserver: loading config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	switch c.String("encoding") {
	case "utf-8":
		cfg.Encoding = posconv.UTF8
	case "utf-16":
		cfg.Encoding = posconv.UTF16
	case "utf-32":
		cfg.Encoding = posconv.UTF32
	}
	logging.Init(os.Stderr, logging.ParseLevel(cfg.Logging.Level))

	db := compiledb.New()
	if data, err := os.ReadFile(cfg.Index.CompileCommandsPath); err == nil {
		if _, err := db.LoadJSON(data); err != nil {
			logging.Warnf(context.Background(), "lcserver: parsing %s: %v", cfg.Index.CompileCommandsPath, err)
		}
	}

	cache := pchcache.New(cfg.Cache.Directory)
	if err := cache.Load(); err != nil {
		logging.Warnf(context.Background(), "lcserver: loading pch cache: %v", err)
	}

	builder := frontend.NewBuilder([]string{root})
	pool := workerpool.New(cfg.Performance.MaxWorkers)

	out := bufio.NewWriter(os.Stdout)
	server := newServer(cfg, db, cache, builder, pool, out)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	watchCompileCommands(watchCtx, cfg.Index.CompileCommandsPath, server.reload)

	return server.serve(os.Stdin)
}

// transportServer reads one JSON object per line from in, dispatches it to
// the Scheduler/features adapters, and writes line-delimited JSON responses
// and publishDiagnostics notifications to out. db is only ever touched from
// serve's own goroutine, including reloads signalled by the compile_commands
// watcher, since compiledb.DB is an unsynchronized value type owned by this
// one goroutine.
type transportServer struct {
	cfg    *config.Config
	cache  *pchcache.Cache
	db     *compiledb.DB
	sched  *scheduler.Scheduler
	out    *bufio.Writer
	reload chan struct{}
}

func newServer(cfg *config.Config, db *compiledb.DB, cache *pchcache.Cache, builder *frontend.Builder, pool *workerpool.Pool, out *bufio.Writer) *transportServer {
	s := &transportServer{cfg: cfg, cache: cache, db: db, out: out, reload: make(chan struct{}, 1)}
	s.sched = scheduler.New(pool, builder, db, cache, cfg.Cache.Directory, s.publishDiagnostics)
	return s
}

// rpcMessage is the minimal envelope this transport uses: a method name
// plus its raw params, line-delimited.
type rpcMessage struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// serve multiplexes incoming stdin lines with compile-database reload
// signals on a single goroutine: dispatch and reloadCompileCommands below
// are the only two writers of server/db state, and both run here.
func (s *transportServer) serve(in io.Reader) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			lines <- line
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	var err error
loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				err = <-scanErr
				break loop
			}
			if len(line) == 0 {
				continue
			}
			var msg rpcMessage
			if unmarshalErr := json.Unmarshal(line, &msg); unmarshalErr != nil {
				logging.Warnf(context.Background(), "lcserver: malformed message: %v", unmarshalErr)
				continue
			}
			s.dispatch(msg)
		case <-s.reload:
			s.reloadCompileCommands()
		}
	}

	if flushErr := s.cache.Flush(); flushErr != nil {
		logging.Warnf(context.Background(), "lcserver: flushing pch cache: %v", flushErr)
	}
	return err
}

func (s *transportServer) reloadCompileCommands() {
	path := s.cfg.Index.CompileCommandsPath
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warnf(context.Background(), "lcserver: reloading %s: %v", path, err)
		return
	}
	if _, err := s.db.LoadJSON(data); err != nil {
		logging.Warnf(context.Background(), "lcserver: reparsing %s: %v", path, err)
		return
	}
	logging.Debugf(context.Background(), "lcserver: reloaded %s", path)
}

func (s *transportServer) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Errorf(context.Background(), "lcserver: encoding response: %v", err)
		return
	}
	s.out.Write(data)
	s.out.WriteByte('\n')
	s.out.Flush()
}
