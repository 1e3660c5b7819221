package interp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// sourceExt is the file extension of SymboScript source files.
const sourceExt = ".syms"

// importFile evaluates a sibling file within a new named scope. Every import
// evaluates the file anew, so importing files never share module state.
//
// A file which cannot be read is reported, but does not stop the importing
// program.
func (in *Interpreter) importFile(s *syntax.ImportStatement) error {
	path := in.resolveImport(s.Source)
	name := s.As
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(s.Source), sourceExt)
	}
	tracer().P("import", path).Debugf("import as %s", name)
	data, err := os.ReadFile(path)
	if err != nil {
		in.config.Report(in.errorf(s, symboscript.Import, "cannot import %q: %v", s.Source, err))
		return nil
	}
	source := string(data)
	prog, err := syntax.Parse(path, source)
	if err != nil {
		return attachSource(err, path, source)
	}
	if err = in.enter(s); err != nil {
		return err
	}
	defer in.leave()
	h := in.vault.DeclareNamedScope(name)
	defer in.vault.EndDeclaration(h, name)
	in.vault.Define("__file__", runtime.Str(path))
	in.vault.Define("__name__", runtime.Str(name))
	in.vault.Define("__module__", runtime.Str(s.Source))
	in.files = append(in.files, sourceFile{path: path, source: source})
	defer func() { in.files = in.files[:len(in.files)-1] }()
	cf, err := in.execStatements(prog.Body)
	if err != nil {
		return err
	}
	if cf.Kind == FlowThrow {
		return in.errorf(cf.node, symboscript.UncaughtThrow, "uncaught throw of %s",
			in.display(cf.Value))
	}
	return nil
}

// resolveImport locates the file for an import source relative to the
// directory of the innermost file being executed.
func (in *Interpreter) resolveImport(source string) string {
	if filepath.Ext(source) != sourceExt {
		source += sourceExt
	}
	if filepath.IsAbs(source) {
		return source
	}
	dir := "."
	if f := in.currentFile(); f.path != "" && !strings.HasPrefix(f.path, "<") {
		dir = filepath.Dir(f.path)
	}
	return filepath.Join(dir, source)
}
