package render

import (
	"fmt"
	"sort"
	"sync"
	"time"

	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
)

const (
	// RenderersKey is the metadata key naming a document's stages.
	RenderersKey = "renderers"
	// DefaultStage runs when a document names no stages.
	DefaultStage = "GenericRenderer"
)

// Observer is told about every stage run.
type Observer func(stage string, d time.Duration, err error)

// Registry maps stage names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	observer  Observer
}

// NewRegistry creates an empty registry. Use NewDefaultRegistry for one that
// knows the built-in stages.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a stage factory. Names are unique.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("cannot register stage with empty name")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for stage %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("stage %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// RegisterStage registers a stateless stage shared by every document.
func (r *Registry) RegisterStage(name string, stage Stage) error {
	return r.Register(name, func(*Registry, Page) (Stage, error) { return stage, nil })
}

func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered stage names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetObserver installs a hook called after every stage run.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Stage instantiates the named stage for page.
func (r *Registry) Stage(name string, page Page) (Stage, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	observer := r.observer
	r.mu.RUnlock()

	if !ok {
		return nil, foundationerrors.RenderError("stage not implemented").
			WithCause(ErrStageNotImplemented).
			WithContext("stage", name).
			Build()
	}
	stage, err := factory(r, page)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "create stage").
			WithContext("stage", name).
			Build()
	}
	if observer != nil {
		stage = observedStage{name: name, stage: stage, observe: observer}
	}
	return stage, nil
}

// Build assembles the named stages into a Composite. Any unknown name fails
// the whole pipeline before a single stage has run.
func (r *Registry) Build(page Page, names []string) (*Composite, error) {
	c := NewComposite()
	for _, name := range names {
		stage, err := r.Stage(name, page)
		if err != nil {
			return nil, err
		}
		c.Add(name, stage)
	}
	return c, nil
}

// Pipeline assembles the stages listed under the page's renderers key, or
// the default stage when the key is absent.
func (r *Registry) Pipeline(page Page) (*Composite, error) {
	names := []string{DefaultStage}
	if v, ok := page.Get(RenderersKey); ok {
		list, ok := v.Strings()
		if !ok {
			return nil, foundationerrors.RenderError("renderers must be a list of stage names").
				WithContext("value", v.Literal()).
				Build()
		}
		names = list
	}
	return r.Build(page, names)
}

type observedStage struct {
	name    string
	stage   Stage
	observe Observer
}

func (s observedStage) Render(page Page, content []string) ([]string, error) {
	start := time.Now()
	out, err := s.stage.Render(page, content)
	s.observe(s.name, time.Since(start), err)
	return out, err
}
