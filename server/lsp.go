// Package server implements a language server for remix source files.
package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/remix/compiler"
	"github.com/chazu/remix/syntax"
)

const lspName = "remix-lsp"

var log = commonlog.GetLogger("remix.server")

// document is an open source file and what the compiler made of it. AST may
// be partial when the source has syntax errors; Syntax is nil unless the
// whole module lowered.
type document struct {
	text        string
	ast         *compiler.Module
	syntax      *syntax.Module
	diagnostics []*compiler.Error
}

func analyze(text string) *document {
	doc := &document{text: text}
	p := compiler.NewParser(text)
	doc.ast = p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		doc.diagnostics = errs
		return doc
	}
	lowered, err := compiler.Lower(doc.ast)
	if err == nil {
		_, err = compiler.CodegenModule(lowered)
	}
	if err != nil {
		doc.diagnostics = compiler.Check(text)
		return doc
	}
	doc.syntax = lowered
	return doc
}

// function returns the declaration named name, or nil.
func (d *document) function(name string) *compiler.FunctionDecl {
	for _, fn := range d.ast.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// enclosing returns the lowered function whose declaration spans line, or
// the global function.
func (d *document) enclosing(line int) *syntax.Function {
	if d.syntax == nil {
		return nil
	}
	for i, fn := range d.ast.Functions {
		sp := fn.Span()
		if line >= sp.Start.Line && line <= sp.End.Line {
			return d.syntax.Functions[i]
		}
	}
	return d.syntax.Global
}

// LspServer serves diagnostics, completion, hover and go-to-definition for
// remix documents.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]*document // URI → analyzed document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]*document),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("remix LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

// update analyzes text and stores it under uri.
func (s *LspServer) update(uri protocol.DocumentUri, text string) *document {
	doc := analyze(text)
	s.mu.Lock()
	s.docs[string(uri)] = doc
	s.mu.Unlock()
	log.Debugf("%s: %d diagnostic(s)", uri, len(doc.diagnostics))
	return doc
}

func (s *LspServer) lookup(uri protocol.DocumentUri) (*document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[string(uri)]
	return doc, ok
}

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	doc := s.update(uri, params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri, doc)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			doc := s.update(uri, whole.Text)
			s.publishDiagnostics(ctx, uri, doc)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.lookup(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(doc.text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(doc, prefix, int(params.Position.Line)+1), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.lookup(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(doc, word, int(params.Position.Line)+1), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	doc, ok := s.lookup(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	loc := definition(doc, uri, word)
	if loc == nil {
		return nil, nil
	}
	return loc, nil
}

// --- Document-backed logic ---

func complete(doc *document, prefix string, line int) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if !strings.HasPrefix(label, prefix) {
			return
		}
		labelCopy := label
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &labelCopy,
		})
	}

	for _, kw := range compiler.Keywords {
		add(kw, "keyword", protocol.CompletionItemKindKeyword)
	}
	for _, fn := range doc.ast.Functions {
		add(fn.Name, signature(fn), protocol.CompletionItemKindFunction)
	}
	if fn := doc.enclosing(line); fn != nil {
		names := make([]string, 0, len(fn.Bindings))
		for name := range fn.Bindings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			add(name, fmt.Sprintf("r%d", fn.Bindings[name]), protocol.CompletionItemKindVariable)
		}
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func hover(doc *document, word string, line int) *protocol.Hover {
	var b strings.Builder
	switch fn := doc.function(word); {
	case fn != nil:
		fmt.Fprintf(&b, "```\n%s\n```\n\n", signature(fn))
		fmt.Fprintf(&b, "%d statement(s), declared at line %d", len(fn.Stmts), fn.Span().Start.Line)
		if doc.syntax != nil {
			lowered := doc.syntax.Functions[doc.syntax.Lookup(word)]
			fmt.Fprintf(&b, "\n\n%d register(s), %d constant(s)", lowered.NumRegisters, len(lowered.Consts))
			if lowered.IsMono() {
				b.WriteString(", mono")
			}
		}

	case compiler.IsKeyword(word):
		fmt.Fprintf(&b, "**%s** (keyword)", word)

	default:
		scope := doc.enclosing(line)
		if scope == nil {
			return nil
		}
		r, ok := scope.Bindings[word]
		if !ok {
			return nil
		}
		fmt.Fprintf(&b, "**%s** in register r%d of `%s`", word, r, scope.Name)
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func definition(doc *document, uri protocol.DocumentUri, word string) []protocol.Location {
	fn := doc.function(word)
	if fn == nil {
		return nil
	}
	sp := fn.Span()
	return []protocol.Location{{
		URI: uri,
		Range: protocol.Range{
			Start: toProtocol(sp.Start),
			End:   toProtocol(sp.End),
		},
	}}
}

// signature renders a function header.
func signature(fn *compiler.FunctionDecl) string {
	return fmt.Sprintf("func %s(%s)(%s) return (%s)", fn.Name,
		strings.Join(fn.BorrowParams, ", "),
		strings.Join(fn.StealParams, ", "),
		strings.Join(fn.ReturnParams, ", "))
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, doc *document) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(doc),
	})
}

// diagnostics converts compiler errors to LSP diagnostics. A diagnostic
// covers the offending name when the error carries one.
func diagnostics(doc *document) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	for _, e := range doc.diagnostics {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		code := protocol.IntegerOrString{Value: e.Kind.String()}

		start := toProtocol(e.Pos)
		end := start
		if e.Name != "" && e.Pos.IsValid() {
			end.Character += protocol.UInteger(len(e.Name))
		}
		out = append(out, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  e.Msg,
		})
	}
	return out
}

// toProtocol converts a 1-based source position to a 0-based LSP one.
func toProtocol(p compiler.Position) protocol.Position {
	if !p.IsValid() {
		return protocol.Position{}
	}
	return protocol.Position{
		Line:      protocol.UInteger(p.Line - 1),
		Character: protocol.UInteger(p.Column - 1),
	}
}

// --- Text extraction helpers ---

func isNameChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.'
}

// extractPrefix returns the name fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the name
	start := col
	for start > 0 && isNameChar(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full name under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isNameChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isNameChar(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
