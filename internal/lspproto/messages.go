package lspproto

import "github.com/standardbeagle/lcserver/internal/posconv"

// PositionEncodingKind is the negotiated encoding from initialize, per §6.
type PositionEncodingKind string

const (
	EncodingUTF8  PositionEncodingKind = "utf-8"
	EncodingUTF16 PositionEncodingKind = "utf-16"
	EncodingUTF32 PositionEncodingKind = "utf-32"
)

// ToPosconv maps the wire encoding name to posconv.Encoding.
func (k PositionEncodingKind) ToPosconv() posconv.Encoding {
	switch k {
	case EncodingUTF32:
		return posconv.UTF32
	case EncodingUTF8:
		return posconv.UTF8
	default:
		return posconv.UTF16
	}
}

// Position is the wire shape of a (line, character) pair, in whatever
// encoding was negotiated at initialize.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span expressed as two Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextDocumentIdentifier names the document a request is about.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// DidOpenParams is textDocument/didOpen's payload.
type DidOpenParams struct {
	TextDocument struct {
		URI        string `json:"uri"`
		LanguageID string `json:"languageId"`
		Version    int64  `json:"version"`
		Text       string `json:"text"`
	} `json:"textDocument"`
}

// ContentChange is one element of didChange's contentChanges array. Only
// full-document sync is supported (§6): Range is always absent/zero.
type ContentChange struct {
	Text string `json:"text"`
}

// DidChangeParams is textDocument/didChange's payload.
type DidChangeParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int64  `json:"version"`
	} `json:"textDocument"`
	ContentChanges []ContentChange `json:"contentChanges"`
}

// DidSaveParams is textDocument/didSave's payload.
type DidSaveParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

// DidCloseParams is textDocument/didClose's payload.
type DidCloseParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// HoverParams is textDocument/hover's payload.
type HoverParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// HoverResult carries rendered Markdown content; rendering itself is a
// pure function outside this package's scope (§4.12).
type HoverResult struct {
	Contents string `json:"contents"`
	Range    *Range `json:"range,omitempty"`
}

// CompletionParams is textDocument/completion's payload.
type CompletionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// CompletionItem is one ranked candidate.
type CompletionItem struct {
	Label  string  `json:"label"`
	Detail string  `json:"detail,omitempty"`
	Kind   int     `json:"kind,omitempty"`
	Score  float64 `json:"score"`
}

// CompletionList is textDocument/completion's result.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// SemanticTokensParams is textDocument/semanticTokens/full's payload.
type SemanticTokensParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// SemanticTokens is the flattened 5-tuple-per-token payload of §6.
type SemanticTokens struct {
	Data []uint32 `json:"data"`
}

// DocumentLinkParams is textDocument/documentLink's payload.
type DocumentLinkParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentLink is one #include / resolved __has_include target.
type DocumentLink struct {
	Range  Range  `json:"range"`
	Target string `json:"target"`
}

// InlayHintParams is textDocument/inlayHint's payload.
type InlayHintParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

// InlayHintLabelPart is one clickable (or plain) segment of an inlay hint's
// label.
type InlayHintLabelPart struct {
	Value       string `json:"value"`
	TargetURI   string `json:"targetUri,omitempty"`
	TargetRange *Range `json:"targetRange,omitempty"`
}

// InlayHint is one emitted hint (§4.12).
type InlayHint struct {
	Position Position             `json:"position"`
	Label    []InlayHintLabelPart `json:"label"`
}

// Diagnostic is one entry of a publishDiagnostics notification.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
}

// PublishDiagnosticsParams is the publishDiagnostics notification payload
// sent server -> client.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     int64        `json:"version"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
