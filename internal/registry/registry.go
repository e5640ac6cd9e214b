package registry

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/vk/endfgo/internal/compiler"
	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/engine"
	"github.com/vk/endfgo/internal/interp"
	"github.com/vk/endfgo/internal/recipe"
	"golang.org/x/sync/errgroup"
)

// Options controls how recipes become codecs.
type Options struct {
	// Interpret wraps recipes in an interpreter instead of compiling them.
	Interpret bool
	Compiler  compiler.Options
	// Concurrency bounds parallel compilation. Zero means GOMAXPROCS.
	Concurrency int
}

// DefaultOptions compiles with the compiler's defaults.
func DefaultOptions() Options {
	return Options{Compiler: compiler.DefaultOptions()}
}

// Entry is one registered recipe and its codec.
type Entry struct {
	Recipe *recipe.Recipe
	Codec  engine.Codec
}

type sectionKey struct {
	mf, mt int
}

// Registry holds the codecs of one application instance. It is safe for
// concurrent lookups once populated.
type Registry struct {
	opts Options

	mu       sync.RWMutex
	byName   map[string]*Entry
	specific map[sectionKey]*Entry
	wide     map[int]*Entry
}

// New creates an empty Registry.
func New(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		byName:   make(map[string]*Entry),
		specific: make(map[sectionKey]*Entry),
		wide:     make(map[int]*Entry),
	}
}

// Add builds codecs for recipes and registers them. Nothing is registered
// when any recipe fails to build or conflicts with another.
func (r *Registry) Add(ctx context.Context, recipes ...*recipe.Recipe) error {
	ctx = ctxlog.With(ctx, "component", "registry")
	logger := ctxlog.FromContext(ctx)

	entries := make([]*Entry, len(recipes))
	g, gctx := errgroup.WithContext(ctx)
	limit := r.opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, rec := range recipes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			codec, err := r.build(gctx, rec)
			if err != nil {
				return err
			}
			entries[i] = &Entry{Recipe: rec, Codec: codec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkConflicts(entries); err != nil {
		return err
	}
	for _, e := range entries {
		r.insert(e)
		logger.Debug("Registered recipe.", "recipe", e.Recipe.Name, "mf", e.Recipe.MF, "mt", e.Recipe.MTs, "interpreted", r.opts.Interpret)
	}
	return nil
}

func (r *Registry) build(ctx context.Context, rec *recipe.Recipe) (engine.Codec, error) {
	if r.opts.Interpret {
		return interp.New(rec)
	}
	return compiler.Compile(ctx, rec, r.opts.Compiler)
}

func (r *Registry) insert(e *Entry) {
	r.byName[e.Recipe.Name] = e
	if len(e.Recipe.MTs) == 0 {
		r.wide[e.Recipe.MF] = e
		return
	}
	for _, mt := range e.Recipe.MTs {
		r.specific[sectionKey{e.Recipe.MF, mt}] = e
	}
}

// Lookup returns the entry for section (mf, mt).
func (r *Registry) Lookup(mf, mt int) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.specific[sectionKey{mf, mt}]; ok {
		return e, true
	}
	e, ok := r.wide[mf]
	return e, ok
}

// Recipe returns the entry registered under name.
func (r *Registry) Recipe(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return e, ok
}

// Names returns the registered recipe names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered recipes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func (k sectionKey) String() string {
	return fmt.Sprintf("MF%d/MT%d", k.mf, k.mt)
}
