package main

import (
	"context"
	"encoding/json"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcserver/internal/features"
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/logging"
	"github.com/standardbeagle/lcserver/internal/lspproto"
	"github.com/standardbeagle/lcserver/internal/posconv"
)

// dispatch routes one decoded line to its handler. Unknown methods are
// logged and dropped rather than terminating the loop; a handler whose
// params fail to decode drops the request (only didOpen/didChange log it).
func (s *transportServer) dispatch(msg rpcMessage) {
	switch msg.Method {
	case "textDocument/didOpen":
		s.handleDidOpen(msg.Params)
	case "textDocument/didChange":
		s.handleDidChange(msg.Params)
	case "textDocument/didSave":
		s.handleDidSave(msg.Params)
	case "textDocument/didClose":
		s.handleDidClose(msg.Params)
	case "textDocument/hover":
		s.handleHover(msg.Params)
	case "textDocument/completion":
		s.handleCompletion(msg.Params)
	case "textDocument/semanticTokens/full":
		s.handleSemanticTokens(msg.Params)
	case "textDocument/documentLink":
		s.handleDocumentLinks(msg.Params)
	case "textDocument/inlayHint":
		s.handleInlayHints(msg.Params)
	default:
		logging.Warnf(context.Background(), "lcserver: unhandled method %s", msg.Method)
	}
}

func (s *transportServer) encoding() posconv.Encoding {
	return s.cfg.Encoding
}

func (s *transportServer) handleDidOpen(raw json.RawMessage) {
	var p lspproto.DidOpenParams
	if err := json.Unmarshal(raw, &p); err != nil {
		logging.Warnf(context.Background(), "lcserver: didOpen: %v", err)
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		logging.Warnf(context.Background(), "lcserver: didOpen: %v", err)
		return
	}
	s.sched.DidOpen(path, []byte(p.TextDocument.Text), p.TextDocument.Version)
}

func (s *transportServer) handleDidChange(raw json.RawMessage) {
	var p lspproto.DidChangeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		logging.Warnf(context.Background(), "lcserver: didChange: %v", err)
		return
	}
	if len(p.ContentChanges) == 0 {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		logging.Warnf(context.Background(), "lcserver: didChange: %v", err)
		return
	}
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	s.sched.DidChange(path, []byte(text), p.TextDocument.Version)
}

func (s *transportServer) handleDidSave(raw json.RawMessage) {
	var p lspproto.DidSaveParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	s.sched.DidSave(path)
}

func (s *transportServer) handleDidClose(raw json.RawMessage) {
	var p lspproto.DidCloseParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	s.sched.DidClose(path)
}

func (s *transportServer) handleHover(raw json.RawMessage) {
	var p lspproto.HoverParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	snap, ok := s.sched.Snapshot(path)
	if !ok || snap.AST == nil {
		s.writeJSON(lspproto.HoverResult{})
		return
	}
	fid, ok := snap.AST.FileIDFor(path)
	if !ok {
		s.writeJSON(lspproto.HoverResult{})
		return
	}
	content, _ := snap.AST.Content(fid)
	enc := s.encoding()
	offset := uint32(posconv.ToOffset(content, toPosconvPosition(p.Position), enc))
	result, ok := features.Hover(snap.AST, fid, offset, enc)
	if !ok {
		s.writeJSON(lspproto.HoverResult{})
		return
	}
	s.writeJSON(result)
}

func (s *transportServer) handleCompletion(raw json.RawMessage) {
	var p lspproto.CompletionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	snap, ok := s.sched.Snapshot(path)
	if !ok || snap.AST == nil {
		s.writeJSON(lspproto.CompletionList{})
		return
	}
	fid, ok := snap.AST.FileIDFor(path)
	if !ok {
		s.writeJSON(lspproto.CompletionList{})
		return
	}
	content, _ := snap.AST.Content(fid)
	enc := s.encoding()
	offset := uint32(posconv.ToOffset(content, toPosconvPosition(p.Position), enc))

	unit, err := s.sched.Completion(context.Background(), path, offset)
	if err != nil {
		logging.Warnf(context.Background(), "lcserver: completion build: %v", err)
		s.writeJSON(lspproto.CompletionList{})
		return
	}
	defer unit.Close()

	candidates := candidatesFromUnit(unit)
	partial := partialIdentifierBefore(content, int(offset))
	s.writeJSON(features.Completion(partial, candidates))
}

func (s *transportServer) handleSemanticTokens(raw json.RawMessage) {
	var p lspproto.SemanticTokensParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	snap, ok := s.sched.Snapshot(path)
	if !ok || snap.AST == nil {
		s.writeJSON(lspproto.SemanticTokens{})
		return
	}
	fid, ok := snap.AST.FileIDFor(path)
	if !ok {
		s.writeJSON(lspproto.SemanticTokens{})
		return
	}
	s.writeJSON(features.SemanticTokens(snap.AST, fid, s.encoding()))
}

func (s *transportServer) handleDocumentLinks(raw json.RawMessage) {
	var p lspproto.DocumentLinkParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	snap, ok := s.sched.Snapshot(path)
	if !ok || snap.AST == nil {
		s.writeJSON([]lspproto.DocumentLink{})
		return
	}
	fid, ok := snap.AST.FileIDFor(path)
	if !ok {
		s.writeJSON([]lspproto.DocumentLink{})
		return
	}
	s.writeJSON(features.DocumentLinks(snap.AST, fid, s.encoding(), false))
}

func (s *transportServer) handleInlayHints(raw json.RawMessage) {
	var p lspproto.InlayHintParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	path, err := lspproto.FileURIToPath(p.TextDocument.URI)
	if err != nil {
		return
	}
	snap, ok := s.sched.Snapshot(path)
	if !ok || snap.AST == nil {
		s.writeJSON([]lspproto.InlayHint{})
		return
	}
	fid, ok := snap.AST.FileIDFor(path)
	if !ok {
		s.writeJSON([]lspproto.InlayHint{})
		return
	}
	s.writeJSON(features.InlayHints(snap.AST, fid, s.encoding()))
}

// publishDiagnostics adapts scheduler.DiagnosticsPublisher to a
// textDocument/publishDiagnostics notification written to stdout.
func (s *transportServer) publishDiagnostics(path string, version int64, diags []frontend.Diagnostic) {
	var content []byte
	if snap, ok := s.sched.Snapshot(path); ok && snap.AST != nil {
		if fid, ok := snap.AST.FileIDFor(path); ok {
			content, _ = snap.AST.Content(fid)
		}
	}
	enc := s.encoding()

	out := make([]lspproto.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := 1
		if !d.IsError {
			severity = 2
		}
		var rng lspproto.Range
		if content != nil {
			start := posconv.ToPosition(content, int(d.Range.Begin), enc)
			end := posconv.ToPosition(content, int(d.Range.End), enc)
			rng = lspproto.Range{
				Start: lspproto.Position{Line: start.Line, Character: start.Character},
				End:   lspproto.Position{Line: end.Line, Character: end.Character},
			}
		}
		out = append(out, lspproto.Diagnostic{
			Range:    rng,
			Severity: severity,
			Message:  d.Message,
			Source:   "lcserver",
		})
	}

	type notification struct {
		Method string                           `json:"method"`
		Params lspproto.PublishDiagnosticsParams `json:"params"`
	}
	s.writeJSON(notification{
		Method: "textDocument/publishDiagnostics",
		Params: lspproto.PublishDiagnosticsParams{
			URI:         lspproto.PathToFileURI(path),
			Version:     version,
			Diagnostics: out,
		},
	})
}

// candidatesFromUnit draws a minimal completion candidate set from whatever
// the compiler's completion-kind build already parsed: every named
// identifier it saw. Symbol-table-aware filtering belongs to a real
// semantic index, which is out of this adapter's scope.
func candidatesFromUnit(unit *frontend.CompilationUnit) []features.Candidate {
	fid := unit.MainFile()
	content, ok := unit.Content(fid)
	if !ok {
		return nil
	}
	root := unit.Root(fid)
	if root == nil {
		return nil
	}

	seen := map[string]bool{}
	var out []features.Candidate
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "identifier" {
			b, e := n.StartByte(), n.EndByte()
			if e <= uint32(len(content)) && b < e {
				name := string(content[b:e])
				if !seen[name] {
					seen[name] = true
					out = append(out, features.Candidate{Name: name})
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

// partialIdentifierBefore returns the run of identifier bytes immediately
// preceding offset, the partial word a completion request fires on.
func partialIdentifierBefore(content []byte, offset int) string {
	if offset > len(content) {
		offset = len(content)
	}
	start := offset
	for start > 0 && isIdentByte(content[start-1]) {
		start--
	}
	return string(content[start:offset])
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func toPosconvPosition(p lspproto.Position) posconv.Position {
	return posconv.Position{Line: p.Line, Character: p.Character}
}
