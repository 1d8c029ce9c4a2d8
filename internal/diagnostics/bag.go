package diagnostics

import (
	"bytes"
	"os"
	"strings"
	"sync"
)

const (
	compileFailedMsg          = "\nCompilation failed with %d error(s)"
	andWarningMsg             = " and %d warning(s)"
	compileSuccessWithWarning = "\nCompilation succeeded with %d warning(s)\n"
)

// DiagnosticBag collects diagnostics during compilation
type DiagnosticBag struct {
	diagnostics []*Diagnostic
	mu          sync.Mutex
	errorCount  int
	warnCount   int
	sources     map[string][]string
}

// NewDiagnosticBag creates a new diagnostic bag
func NewDiagnosticBag() *DiagnosticBag {
	return &DiagnosticBag{
		diagnostics: make([]*Diagnostic, 0),
		sources:     make(map[string][]string),
	}
}

// AddSourceContent registers source content for a file path so labels
// can be rendered without re-reading the file.
func (db *DiagnosticBag) AddSourceContent(filepath, content string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sources[filepath] = strings.Split(content, "\n")
}

// sourceLine returns line (1-based) of a registered file, if available.
func (db *DiagnosticBag) sourceLine(filepath string, line int) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	lines, ok := db.sources[filepath]
	if !ok || line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// Add adds a diagnostic to the bag
func (db *DiagnosticBag) Add(diag *Diagnostic) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.diagnostics = append(db.diagnostics, diag)

	switch diag.Severity {
	case Error:
		db.errorCount++
	case Warning:
		db.warnCount++
	}
}

// HasErrors returns true if there are any errors
func (db *DiagnosticBag) HasErrors() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.errorCount > 0
}

// ErrorCount returns the number of errors
func (db *DiagnosticBag) ErrorCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.errorCount
}

// WarningCount returns the number of warnings
func (db *DiagnosticBag) WarningCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.warnCount
}

// Diagnostics returns a copy of all diagnostics (thread-safe)
func (db *DiagnosticBag) Diagnostics() []*Diagnostic {
	db.mu.Lock()
	defer db.mu.Unlock()
	result := make([]*Diagnostic, len(db.diagnostics))
	copy(result, db.diagnostics)
	return result
}

// EmitAll renders every collected diagnostic to stderr, followed by a
// summary line.
func (db *DiagnosticBag) EmitAll() {
	emitter := NewEmitter(os.Stderr, db)
	for _, diag := range db.Diagnostics() {
		emitter.Emit(diag)
	}
	emitter.Summary(db.ErrorCount(), db.WarningCount())
}

// EmitAllToString renders every collected diagnostic to a string with
// ANSI codes.
func (db *DiagnosticBag) EmitAllToString() string {
	var buf bytes.Buffer
	emitter := NewEmitter(&buf, db)
	for _, diag := range db.Diagnostics() {
		emitter.Emit(diag)
	}
	return buf.String()
}
