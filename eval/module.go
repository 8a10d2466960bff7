package eval

import (
	"fmt"
	"strconv"
	"strings"

	"typeset/content"
	"typeset/diag"
	"typeset/fileid"
	"typeset/syntax"
	"typeset/value"
)

// EvalFile evaluates file through the module cache, panicking on re-entrant
// evaluation of the same FileId (spec §4.E: "the route prevents cycles by
// panicking on re-entrant evaluation of the same FileId"). This is the
// function wired into routines.Routines.EvalModule.
func (e *Engine) EvalFile(file fileid.ID) (*value.Module, []*diag.SourceError) {
	e.mu.Lock()
	if mod, ok := e.modules[file]; ok {
		e.mu.Unlock()
		return mod, nil
	}
	if e.route[file] {
		e.mu.Unlock()
		panic(fmt.Sprintf("eval: cyclic import of %s", file))
	}
	e.route[file] = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.route, file)
		e.mu.Unlock()
	}()

	text, ferr := e.World.Source(file)
	if ferr != nil {
		return nil, []*diag.SourceError{ferr.AsSourceError(syntax.DetachedSpan)}
	}
	src := syntax.Parse(file, text)
	root := src.Root()
	markup := root.Child(0)

	m := newVM(e, file)
	body, errs := m.EvalMarkup(markup)

	mod := &value.Module{
		Name:    moduleName(file),
		Scope:   m.scopes.Snapshot(),
		Content: value.ContentOf(body),
		Styles:  m.styles,
	}
	if len(errs) > 0 {
		// The partial module is returned alongside its errors but not cached.
		return mod, errs
	}

	e.mu.Lock()
	e.modules[file] = mod
	e.mu.Unlock()
	return mod, nil
}

// EvalContextual re-runs a `context expr` closure once introspection data is
// available (spec §4.F: realization re-evaluates contextual content with
// `extra` bindings — e.g. the current page/location — merged over the
// closure's frozen captures). This is the function compile wires into
// Routines.EvalContextual so style's realizer can call back into eval
// without eval importing style.
func (e *Engine) EvalContextual(closure *value.Closure, extra map[string]value.Value) (*content.Content, []*diag.SourceError) {
	child := &vm{engine: e, scopes: NewScopes(), inFunc: true}
	for name, v := range closure.Captures {
		child.scopes.Define(name, v)
	}
	for name, v := range extra {
		child.scopes.Define(name, v)
	}

	if closure.Body == nil {
		return nil, nil
	}
	var result value.Value
	var errs []*diag.SourceError
	if closure.Body.Kind() == syntax.KindCodeBlock {
		result, errs = child.evalCodeBlock(closure.Body)
	} else {
		result, errs = child.evalExpr(closure.Body)
	}
	if child.flow == flowReturn {
		result = child.flowVal
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return child.valueToContent(result), nil
}

// moduleName derives a module's display/binding name from its file's virtual
// path: the last path segment without its extension.
func moduleName(file fileid.ID) string {
	_, vpath, ok := fileid.Global().Lookup(file)
	if !ok {
		return file.String()
	}
	return moduleBindingName(vpath)
}

// resolveImportPath turns an import/include path literal into a concrete
// FileId: either a "@namespace/name:version/file" package reference handed
// to World.ResolvePackage, or a path resolved relative to the importing
// file's own directory.
func (m *vm) resolveImportPath(path string, sp syntax.Span) (fileid.ID, *diag.SourceError) {
	if strings.HasPrefix(path, "@") {
		spec, sub, err := parsePackagePath(path)
		if err != nil {
			return 0, diag.Error(sp, "%s", err)
		}
		if sub == "" {
			return 0, diag.Error(sp, "package import %q needs a file path, e.g. %s/lib.typ", path, path)
		}
		root, ferr := m.engine.World.ResolvePackage(spec)
		if ferr != nil {
			return 0, ferr.AsSourceError(sp)
		}
		id, err := fileid.Global().Intern(root, sub)
		if err != nil {
			return 0, diag.Error(sp, "%s", err)
		}
		return id, nil
	}

	root, dir, ok := fileid.Global().Lookup(m.file)
	if !ok {
		root = fileid.ProjectRoot()
		dir = "/"
	}
	id, err := fileid.Global().Intern(root, joinVPath(dir, path))
	if err != nil {
		return 0, diag.Error(sp, "%s", err)
	}
	return id, nil
}

// joinVPath resolves path relative to the directory containing dir (a
// virtual file path); Normalize (invoked by Intern) rejects any ".."
// escape attempt.
func joinVPath(dir, path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	i := strings.LastIndexByte(dir, '/')
	base := "/"
	if i > 0 {
		base = dir[:i]
	}
	return base + "/" + path
}

// parsePackagePath splits "@namespace/name:major.minor.patch[/subpath]" into
// its PackageSpec and an optional trailing file subpath.
func parsePackagePath(path string) (fileid.PackageSpec, string, error) {
	rest := strings.TrimPrefix(path, "@")
	nsAndRest := strings.SplitN(rest, "/", 2)
	if len(nsAndRest) != 2 {
		return fileid.PackageSpec{}, "", fmt.Errorf("malformed package path %q", path)
	}
	namespace := nsAndRest[0]
	nameVerAndSub := strings.SplitN(nsAndRest[1], "/", 2)
	nameVer := nameVerAndSub[0]
	sub := ""
	if len(nameVerAndSub) == 2 {
		sub = nameVerAndSub[1]
	}
	nameAndVer := strings.SplitN(nameVer, ":", 2)
	if len(nameAndVer) != 2 {
		return fileid.PackageSpec{}, "", fmt.Errorf("malformed package path %q: expected name:version", path)
	}
	ver, err := parseVersion(nameAndVer[1])
	if err != nil {
		return fileid.PackageSpec{}, "", err
	}
	return fileid.PackageSpec{Namespace: namespace, Name: nameAndVer[0], Version: ver}, sub, nil
}

func parseVersion(s string) (fileid.Version, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return fileid.Version{}, fmt.Errorf("malformed version %q: expected major.minor.patch", s)
	}
	nums := make([]uint32, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return fileid.Version{}, fmt.Errorf("malformed version %q: %w", s, err)
		}
		nums[i] = uint32(n)
	}
	return fileid.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
