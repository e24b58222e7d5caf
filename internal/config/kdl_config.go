package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/lcserver/internal/posconv"
)

// LoadKDL loads ".lcserver.kdl" from projectRoot, overlaying it onto
// Default(projectRoot). Returns the default config, unmodified, if no KDL
// file is present — a missing config file is not an error.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".lcserver.kdl")

	cfg := Default(projectRoot)

	content, err := os.ReadFile(kdlPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading .lcserver.kdl: %w", err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("config: parsing .lcserver.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) {
					if filepath.IsAbs(v) {
						cfg.Project.Root = v
					} else {
						cfg.Project.Root = filepath.Clean(filepath.Join(projectRoot, v))
					}
				})
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "compile_commands":
					assignSimpleString(cn, "compile_commands", func(v string) {
						cfg.Index.CompileCommandsPath = filepath.Join(cfg.Project.Root, v)
					})
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.RespectGitignore = b
					}
				case "resource_dir":
					assignSimpleString(cn, "resource_dir", func(v string) { cfg.Index.ResourceDir = v })
				case "query_driver":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.QueryDriver = b
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				assignSimpleString(cn, "directory", func(v string) {
					if filepath.IsAbs(v) {
						cfg.Cache.Directory = v
					} else {
						cfg.Cache.Directory = filepath.Join(cfg.Project.Root, v)
					}
				})
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.MaxWorkers = v
					}
				case "ast_build_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ASTBuildTimeoutSec = v
					}
				}
			}
		case "logging":
			for _, cn := range n.Children {
				assignSimpleString(cn, "level", func(v string) { cfg.Logging.Level = v })
			}
		case "encoding":
			if s, ok := firstStringArg(n); ok {
				switch s {
				case "utf-8":
					cfg.Encoding = posconv.UTF8
				case "utf-32":
					cfg.Encoding = posconv.UTF32
				default:
					cfg.Encoding = posconv.UTF16
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
