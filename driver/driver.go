package driver

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sghaida/autoplugin/config"
	"github.com/sghaida/autoplugin/diag"
	"github.com/sghaida/autoplugin/expand"
	"github.com/sghaida/autoplugin/internal/ctxlog"
	"github.com/sghaida/autoplugin/internal/gencache"
	"github.com/sghaida/autoplugin/store"
)

// Options configures a run.
type Options struct {
	Config config.Config
	// Check reports stale files instead of writing them.
	Check bool
	// Cache is optional.
	Cache *gencache.Cache
	// Store defaults to a fresh store per run.
	Store *store.Store
	// Version takes part in cache keys.
	Version string
}

// Result summarises a run.
type Result struct {
	Diagnostics *diag.Bag
	// Written lists the files rewritten (or, with Check, that would be).
	Written []string
	// Unchanged counts expanded files whose output matched their content.
	Unchanged int
	// CacheHits counts units served from the cache.
	CacheHits int
}

// OK reports whether the run produced no error diagnostics and, in check
// mode, found nothing stale.
func (r *Result) OK(check bool) bool {
	return !r.Diagnostics.HasErrors() && (!check || len(r.Written) == 0)
}

type runner struct {
	opts Options
	exp  *expand.Expander

	mu         sync.Mutex
	res        *Result
	cachedOpen []lintSite
	regSites   map[store.Key]token.Position
}

type lintSite struct {
	key store.Key
	pos token.Position
}

// Run expands the packages matched by patterns. The returned error is
// reserved for failures of the environment (unreadable directories, write
// errors); problems in the sources are diagnostics in the Result.
func Run(ctx context.Context, opts Options, patterns ...string) (*Result, error) {
	log := ctxlog.FromContext(ctx)
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	opts.Config = opts.Config.WithDefaults()
	cfg := opts.Config

	r := &runner{
		opts: opts,
		exp: &expand.Expander{
			Store:   opts.Store,
			Lenient: cfg.Lenient,
			Runtime: expand.Runtime{
				ImportPath: cfg.Runtime.Import,
				Name:       cfg.Runtime.Name,
				Builder:    cfg.Runtime.Builder,
			},
		},
		res:      &Result{Diagnostics: diag.NewBag()},
		regSites: map[store.Key]token.Position{},
	}

	dirs, err := expandPatterns(patterns)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	g.SetLimit(jobs)

	for _, dir := range dirs {
		pkg, parseErrs, err := loadPackage(dir, cfg.Output.PackageFile)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		for _, pe := range parseErrs {
			r.res.Diagnostics.AddError(pe)
		}
		if pkg == nil {
			continue
		}
		log.Debug("loaded package", "dir", dir, "import", pkg.importPath, "files", len(pkg.files))

		if expand.HasPackageDirective(pkg.fset, pkg.asts()) {
			g.Go(func() error { return r.guard(pkg.dir, func() error { return r.expandPackage(gctx, pkg) }) })
			continue
		}
		for _, pf := range pkg.files {
			g.Go(func() error { return r.guard(pf.path, func() error { return r.expandFile(gctx, pkg, pf) }) })
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.lint()
	sort.Strings(r.res.Written)
	log.Info("expansion finished",
		"written", len(r.res.Written), "unchanged", r.res.Unchanged, "cache_hits", r.res.CacheHits,
		"diagnostics", r.res.Diagnostics.Len())
	return r.res, nil
}

// guard converts a panic in one unit into a diagnostic so that other units
// still complete.
func (r *runner) guard(what string, f func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.res.Diagnostics.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Message:  fmt.Sprintf("internal error while expanding %s: %v", what, rec),
				Pos:      token.Position{Filename: what},
			})
			err = nil
		}
	}()
	return f()
}

func (r *runner) fileDigest(pf *parsedFile) gencache.Digest {
	c := r.opts.Config
	return new(gencache.Hasher).
		Add("file", r.opts.Version, c.Runtime.Import, c.Runtime.Name, c.Runtime.Builder, strconv.FormatBool(c.Lenient), pf.path).
		AddBytes(pf.src).
		Sum()
}

// expandFile expands one file in flat mode.
func (r *runner) expandFile(ctx context.Context, pkg *pkgInfo, pf *parsedFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := ctxlog.FromContext(ctx)
	sc := expand.ScanFile(pkg.fset, pf.ast)
	if sc.Empty() {
		return nil
	}
	key := store.Key(filepath.Clean(pf.path))
	if len(sc.Registrations) > 0 {
		r.mu.Lock()
		r.regSites[key] = sc.Registrations[0].Directive.Pos
		r.mu.Unlock()
	}

	digest := r.fileDigest(pf)
	if e, ok, err := r.opts.Cache.Get(digest); err != nil {
		log.Warn("ignoring unreadable cache entry", "file", pf.path, "err", err)
	} else if ok {
		log.Debug("cache hit", "file", pf.path)
		r.mu.Lock()
		r.res.CacheHits++
		if e.Unfinalized {
			r.cachedOpen = append(r.cachedOpen, lintSite{key: key, pos: r.regSites[key]})
		}
		r.mu.Unlock()
		return r.emit(ctx, pf.path, pf.src, e.Output)
	}

	failed := false
	report := func(err error) {
		r.res.Diagnostics.AddError(err)
		failed = true
	}
	for _, err := range sc.Errs {
		report(err)
	}
	for _, s := range sc.Registrations {
		if err := r.exp.Accumulate(ctx, pkg.fset, s); err != nil {
			report(err)
		}
	}
	var splices []expand.Splice
	for _, s := range sc.Plugins {
		p, err := r.exp.Synthesize(ctx, pkg.fset, pf.ast, pf.src, s)
		if err != nil {
			report(err)
			continue
		}
		if !p.Skipped {
			splices = append(splices, p.Splice)
		}
	}
	// Splices that succeeded are written even when others failed. Failed
	// files are not cached, so their errors are reported again.
	out := pf.src
	if len(splices) > 0 {
		spliced, err := expand.Apply(pf.src, splices)
		if err != nil {
			return err
		}
		if out, err = finishSource(pf.path, spliced, pkg.imports); err != nil {
			r.res.Diagnostics.AddError(err)
			return nil
		}
	}

	if !failed {
		unfinalized := false
		r.opts.Store.Inspect(key, func(st *store.FileState) {
			unfinalized = !st.Finalized && st.Pending.Len() > 0
		})
		if err := r.opts.Cache.Put(digest, &gencache.Entry{Path: pf.path, Output: out, Unfinalized: unfinalized}); err != nil {
			log.Warn("cache write failed", "file", pf.path, "err", err)
		}
	}
	return r.emit(ctx, pf.path, pf.src, out)
}

// expandPackage expands a package-scoped plugin and its generated file.
func (r *runner) expandPackage(ctx context.Context, pkg *pkgInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := ctxlog.FromContext(ctx)
	cfg := r.opts.Config
	outPath := filepath.Join(pkg.dir, cfg.Output.PackageFile)

	h := new(gencache.Hasher).Add("package", r.opts.Version, cfg.Runtime.Import, cfg.Runtime.Name, cfg.Runtime.Builder, pkg.importPath, outPath)
	sources := new(gencache.Hasher)
	for _, pf := range pkg.files {
		h.Add(pf.path).AddBytes(pf.src)
		sources.Add(filepath.Base(pf.path)).AddBytes(pf.src)
	}
	digest := h.Sum()

	existing, err := os.ReadFile(outPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if e, ok, err := r.opts.Cache.Get(digest); err != nil {
		log.Warn("ignoring unreadable cache entry", "dir", pkg.dir, "err", err)
	} else if ok {
		r.mu.Lock()
		r.res.CacheHits++
		r.mu.Unlock()
		return r.emit(ctx, outPath, existing, e.Output)
	}

	plugin, errs := r.exp.ExpandPackage(ctx, pkg.fset, pkg.asts(), pkg.importPath)
	for _, err := range errs {
		r.res.Diagnostics.AddError(err)
	}
	if plugin == nil {
		return nil
	}

	rt := r.exp.Runtime
	data := packageFileData{
		ImportPath:  pkg.importPath,
		SourcesHash: sources.Sum().String(),
		Plugin:      plugin,
		BuilderType: runtimeBuilderType(cfg, plugin.Qualifier),
	}
	if plugin.Qualifier != "" {
		gi := GoImport{Path: rt.ImportPath}
		if gi.localName() != plugin.Qualifier {
			gi.Name = plugin.Qualifier
		}
		data.Imports = []GoImport{gi}
	}

	out, err := renderPackageFile(data, pkg.imports)
	if err != nil {
		r.res.Diagnostics.AddError(err)
		return nil
	}
	if len(errs) == 0 {
		if err := r.opts.Cache.Put(digest, &gencache.Entry{Path: outPath, Output: out}); err != nil {
			log.Warn("cache write failed", "file", outPath, "err", err)
		}
	}
	return r.emit(ctx, outPath, existing, out)
}

func runtimeBuilderType(cfg config.Config, qual string) string {
	if qual == "" {
		return "*" + cfg.Runtime.Builder
	}
	return "*" + qual + "." + cfg.Runtime.Builder
}

// emit writes out to path unless it already holds it. In check mode the
// file is only recorded.
func (r *runner) emit(ctx context.Context, path string, current, out []byte) error {
	log := ctxlog.FromContext(ctx)
	if bytes.Equal(current, out) {
		r.mu.Lock()
		r.res.Unchanged++
		r.mu.Unlock()
		return nil
	}
	r.mu.Lock()
	r.res.Written = append(r.res.Written, path)
	r.mu.Unlock()

	if r.opts.Check {
		log.Info("stale", "file", path)
		return nil
	}
	if err := writeFormatted(path, out); err != nil {
		return err
	}
	log.Info("wrote", "file", path)
	return nil
}

// lint reports files that accumulated registrations without ever declaring
// a plugin function.
func (r *runner) lint() {
	level := r.opts.Config.Lint.MissingPlugin
	if level == config.LintOff {
		return
	}
	sites := append([]lintSite(nil), r.cachedOpen...)
	for _, k := range r.opts.Store.Unfinalized() {
		sites = append(sites, lintSite{key: k, pos: r.regSites[k]})
	}
	for _, s := range sites {
		pos := s.pos
		if !pos.IsValid() {
			pos = token.Position{Filename: string(s.key), Line: 1, Column: 1}
		}
		d := diag.Warning(diag.CodeMissingPlugin, pos,
			"registrations in "+filepath.Base(string(s.key))+" are never emitted: the file has no //autoplugin:plugin function")
		d.Notes = []string{"add //autoplugin:plugin to a func taking the builder, or a //autoplugin:package directive to the package"}
		if level == config.LintError {
			d.Severity = diag.SevError
		}
		r.res.Diagnostics.Add(d)
	}
}
