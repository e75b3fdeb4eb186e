package zoom

import (
	"context"
	"log"
)

// Persister stores the current level somewhere that outlives the request.
type Persister interface {
	Persist(ctx context.Context, level Level) error
}

// Loader reads a previously persisted level. ok is false when nothing was stored.
type Loader interface {
	Load(ctx context.Context) (level Level, ok bool, err error)
}

// Reflector mirrors the level into the view, e.g. a class on <body>.
type Reflector interface {
	Reflect(from, to Level)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, level Level) error

func (f PersisterFunc) Persist(ctx context.Context, level Level) error { return f(ctx, level) }

// ReflectorFunc adapts a function to Reflector.
type ReflectorFunc func(from, to Level)

func (f ReflectorFunc) Reflect(from, to Level) { f(from, to) }

// Controller applies zoom actions. It holds no level of its own: callers pass
// the current level in and keep the returned one.
type Controller struct {
	Persister Persister
	Reflector Reflector
	// Recompute is invoked last, after persistence and reflection.
	Recompute func(level Level)
}

// Dispatch applies action to current. Undefined transitions return current
// untouched and trigger no side effects. Persistence failures are logged and
// do not stop the transition.
func (c *Controller) Dispatch(ctx context.Context, current Level, action Action) Level {
	next, ok := Next(current, action)
	if !ok {
		return current
	}

	if c.Persister != nil {
		if err := c.Persister.Persist(ctx, next); err != nil {
			log.Printf("zoom: persisting level %s: %v", next, err)
		}
	}
	if c.Reflector != nil {
		c.Reflector.Reflect(current, next)
	}
	if c.Recompute != nil {
		c.Recompute(next)
	}
	return next
}

// Initial returns the persisted level, or DefaultLevel when there is none or
// it cannot be read.
func Initial(ctx context.Context, loader Loader) Level {
	if loader == nil {
		return DefaultLevel
	}
	level, ok, err := loader.Load(ctx)
	if err != nil {
		log.Printf("zoom: loading level: %v", err)
		return DefaultLevel
	}
	if !ok {
		return DefaultLevel
	}
	if _, valid := ParseLevel(string(level)); !valid {
		return DefaultLevel
	}
	return level
}

// Persisters writes to every backend in order. All are attempted; the first
// error is returned.
func Persisters(ps ...Persister) Persister {
	return PersisterFunc(func(ctx context.Context, level Level) error {
		var first error
		for _, p := range ps {
			if p == nil {
				continue
			}
			if err := p.Persist(ctx, level); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Level, bool, error)

func (f LoaderFunc) Load(ctx context.Context) (Level, bool, error) { return f(ctx) }

// Loaders reads from each backend in order and returns the first stored
// level. A failing backend is logged and skipped.
func Loaders(ls ...Loader) Loader {
	return LoaderFunc(func(ctx context.Context) (Level, bool, error) {
		for _, l := range ls {
			if l == nil {
				continue
			}
			level, ok, err := l.Load(ctx)
			if err != nil {
				log.Printf("zoom: loading level: %v", err)
				continue
			}
			if ok {
				return level, true, nil
			}
		}
		return "", false, nil
	})
}
