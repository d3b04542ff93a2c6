package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/compiler"
	"github.com/wiz-lang/wiz/internal/debugfmt"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/format"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/platform"
	"github.com/wiz-lang/wiz/internal/resource"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// options holds one invocation's resolved settings, built from cobra
// flags before Run ever touches the compiler.
type options struct {
	Input       string
	Output      string
	SystemName  string
	FormatName  string
	DebugFormat string
	IncludeDirs []string
	Defines     []string // "key" or "key=value", from repeated -D
	platforms   *platform.Registry
	resources   resource.Manager
	frontend    Frontend
}

// Run executes one full compilation: resolve the entry file, parse it,
// drive the five compiler passes, generate the output container and
// (if requested) a debug symbol file, and render any diagnostics to
// diagOut. The returned exit code follows cobra's own convention: 0
// success, 1 a recorded compile error, 2 a usage error the caller
// should report before Run is even reached.
func Run(opts options, report *diag.Report, diagOut io.Writer) int {
	defer report.Render(diagOut)

	plat, formatName, err := resolvePlatformAndFormat(opts)
	if err != nil {
		report.Errorf(ast.Builtin, "%s", err)
		return 1
	}

	entryDir := filepath.Dir(opts.Input)
	searchDirs := append([]string{entryDir}, opts.IncludeDirs...)

	program, canonicalPath, err := loadAndParse(opts, opts.Input, searchDirs)
	if err != nil {
		report.Errorf(ast.Builtin, "%s", err)
		return 1
	}

	configEntries := collectConfigEntries(program)
	program = append(defineStatements(opts.Defines), program...)

	banks := bank.NewManager()
	embed := resourceEmbedReader{manager: opts.resources, searchDirs: searchDirs}
	c := compiler.NewCompiler(plat, report, banks)
	c.SetEmbedReader(embed)
	c.Compile(program)
	if report.HasErrors() {
		return 1
	}

	for i, e := range configEntries {
		configEntries[i].Value = compiler.ReduceExpression(e.Value, c.RootScope(), report, embed)
	}
	if report.HasErrors() {
		return 1
	}

	formatter := format.Lookup(formatName)
	if formatter == nil {
		report.Errorf(ast.Builtin, "unknown output format %q", formatName)
		return 1
	}

	outputPath := opts.Output
	if outputPath == "" {
		outputPath = defaultOutputPath(canonicalPath, formatName)
	}

	cfg := format.NewConfig(configEntries)
	ctx := format.NewOutputFormatContext(report, cfg, filepath.Base(outputPath), formatName, banks.Banks())
	if !formatter.Generate(ctx) {
		return 1
	}

	if err := writeAll(opts.resources, outputPath, ctx.Data); err != nil {
		report.Errorf(ast.Builtin, "%s", err)
		return 1
	}

	if opts.DebugFormat != "" {
		if err := writeDebugSymbols(opts, ctx, outputPath, c.RootScope()); err != nil {
			report.Errorf(ast.Builtin, "%s", err)
			return 1
		}
	}

	return 0
}

func resolvePlatformAndFormat(opts options) (platform.Platform, string, error) {
	systemName, formatName := opts.SystemName, opts.FormatName
	if systemName == "" || formatName == "" {
		if m, ok := opts.platforms.InferFromExtension(strings.ToLower(filepath.Ext(opts.Output))); ok {
			if systemName == "" {
				systemName = m.Platform
			}
			if formatName == "" {
				formatName = m.Format
			}
		}
	}
	if systemName == "" {
		return nil, "", fmt.Errorf("no --system given and none could be inferred from -o's extension")
	}
	if formatName == "" {
		formatName = "bin"
	}
	plat, ok := opts.platforms.New(systemName)
	if !ok {
		return nil, "", fmt.Errorf("unknown system %q", systemName)
	}
	return plat, formatName, nil
}

// loadAndParse resolves displayPath through opts.resources and hands
// its bytes to opts.frontend. Recursive `import` statements are
// spliced in depth-first, each resolved relative to its own
// importer's directory per searchDirs ordering.
func loadAndParse(opts options, displayPath string, searchDirs []string) ([]ast.Statement, string, error) {
	res, err := opts.resources.ReadFile(displayPath, searchDirs)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", displayPath, err)
	}
	defer res.Close()

	data, err := io.ReadAll(res)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", displayPath, err)
	}

	stmts, err := opts.frontend.Parse(res.DisplayPath, res.CanonicalPath, data)
	if err != nil {
		return nil, "", err
	}

	out := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		imp, ok := stmt.(*ast.Import)
		if !ok {
			out = append(out, stmt)
			continue
		}
		if res.DisplayPath == "<stdin>" {
			return nil, "", fmt.Errorf("<stdin>: cannot resolve a relative import with no importing directory")
		}
		importerDir := filepath.Dir(res.CanonicalPath)
		nested, _, err := loadAndParse(opts, imp.Path, append([]string{importerDir}, opts.IncludeDirs...))
		if err != nil {
			return nil, "", err
		}
		out = append(out, nested...)
	}
	return out, res.CanonicalPath, nil
}

// defineStatements turns `-D key[=value]` flags into Let declarations
// named by their key, placed ahead of the program proper at root scope,
// so source expressions and `config { }` values (folded against the same
// root scope) can reference them. A source-level let of the same name
// is a redefinition.
func defineStatements(defines []string) []ast.Statement {
	stmts := make([]ast.Statement, 0, len(defines))
	for _, d := range defines {
		key, value := d, "1"
		if idx := strings.IndexByte(d, '='); idx >= 0 {
			key, value = d[:idx], d[idx+1:]
		}
		stmts = append(stmts, &ast.LetDecl{Name: key, Expr: defineValueExpr(value)})
	}
	return stmts
}

func defineValueExpr(value string) ast.Expression {
	if n, err := strconv.ParseInt(value, 0, 64); err == nil {
		return ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(n), 10)
	}
	if value == "true" {
		return ast.NewBooleanLit(ast.Builtin, true)
	}
	if value == "false" {
		return ast.NewBooleanLit(ast.Builtin, false)
	}
	return &ast.StringLit{Value: value}
}

// collectConfigEntries gathers every `config { key: expr }` entry from
// program's top-level statements (and any namespaces/in-blocks nested
// under it). The compiler core never resolves a ConfigDecl itself
// (reserveStatement treats it as a structural no-op); evaluating it
// against a target format's schema is this package's job.
func collectConfigEntries(program []ast.Statement) []ast.ConfigEntry {
	var entries []ast.ConfigEntry
	var walk func([]ast.Statement)
	walk = func(stmts []ast.Statement) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *ast.ConfigDecl:
				entries = append(entries, s.Entries...)
			case *ast.Attributed:
				walk([]ast.Statement{s.Inner})
			case *ast.NamespaceDecl:
				walk(s.Body.Stmts)
			case *ast.InBank:
				walk(s.Body.Stmts)
			}
		}
	}
	walk(program)
	return entries
}

func defaultOutputPath(inputPath, formatName string) string {
	ext, ok := extensionForFormat(formatName)
	if !ok {
		ext = ".bin"
	}
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

func extensionForFormat(formatName string) (string, bool) {
	switch formatName {
	case "nes":
		return ".nes", true
	case "gb":
		return ".gb", true
	case "sfc":
		return ".sfc", true
	case "smc":
		return ".smc", true
	case "sms":
		return ".sms", true
	case "gg":
		return ".gg", true
	default:
		return "", false
	}
}

func writeAll(manager resource.Manager, path string, data []byte) error {
	w, err := manager.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, writeErr := w.Write(data)
	closeErr := w.Close()
	if writeErr != nil {
		return fmt.Errorf("%s: %w", path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%s: %w", path, closeErr)
	}
	return nil
}

// writeDebugSymbols gathers every addressable definition reachable
// from root (recursing through namespaces) and hands them to the
// requested debugfmt.Formatter alongside the finished output layout.
func writeDebugSymbols(opts options, outCtx *format.OutputFormatContext, outputPath string, root *symtab.Scope) error {
	formatter, ext, ok := debugfmt.Lookup(opts.DebugFormat)
	if !ok {
		return fmt.Errorf("unknown debug format %q", opts.DebugFormat)
	}

	var defs []*symtab.Definition
	collectAddressable(root, &defs)

	debugCtx := debugfmt.NewContext(outCtx, defs, debugBankSize(outCtx.FormatName), headerPrefixSize(outCtx.FormatName))
	debugPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ext

	w, err := opts.resources.Create(debugPath)
	if err != nil {
		return fmt.Errorf("%s: %w", debugPath, err)
	}
	defer w.Close()
	return formatter.Generate(debugCtx, w)
}

func collectAddressable(scope *symtab.Scope, out *[]*symtab.Definition) {
	for _, def := range scope.DefinitionsInOrder() {
		switch def.Kind {
		case symtab.KindNamespace:
			collectAddressable(def.Namespace, out)
		case symtab.KindVar, symtab.KindFunc:
			*out = append(*out, def)
		}
	}
}

// debugBankSize is the divisor WLA's output-relative bank-index column
// uses; iNES PRG banks are 16KiB, everything else either reports an
// absolute SNES-style address or has no banked address space.
func debugBankSize(formatName string) int64 {
	if formatName == "nes" {
		return 16 * 1024
	}
	return 0
}

// headerPrefixSize is the number of leading container bytes that
// precede the first byte a debugger's address space actually maps.
func headerPrefixSize(formatName string) int64 {
	if formatName == "nes" {
		return 16
	}
	return 0
}
