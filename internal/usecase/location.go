package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

const (
	levelCountry = iota
	levelState
	levelCity
)

var levelNames = [...]model.LocationLevel{model.LocationCountry, model.LocationState, model.LocationCity}

type levelSlot struct {
	value   string
	options []string
	loading bool
	gen     uint64
	err     string
}

func (l *levelSlot) clear() {
	l.value = ""
	l.options = nil
	l.loading = false
	l.err = ""
	l.gen++
}

// LocationResolver drives the country, state and city selectors. A fetch
// result is applied only while its generation and the parent selection it was
// issued for are still current.
type LocationResolver struct {
	dir LocationDirectory

	mu     sync.Mutex
	levels [3]levelSlot
}

// NewLocationResolver constructs LocationResolver.
func NewLocationResolver(dir LocationDirectory) *LocationResolver {
	return &LocationResolver{dir: dir}
}

// Load fetches the country options.
func (r *LocationResolver) Load(ctx context.Context) error {
	return r.fetch(ctx, levelCountry, model.LocationQuery{Level: model.LocationCountry})
}

// Select applies a user-driven change at level.
func (r *LocationResolver) Select(ctx context.Context, level model.LocationLevel, value string) error {
	switch level {
	case model.LocationCountry:
		return r.SelectCountry(ctx, value)
	case model.LocationState:
		return r.SelectState(ctx, value)
	case model.LocationCity:
		return r.SelectCity(value)
	default:
		return domainErrors.ErrValidation
	}
}

// SelectCountry sets the country, clears state and city before any fetch
// resolves and loads the states of the new country.
func (r *LocationResolver) SelectCountry(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	r.mu.Lock()
	r.levels[levelCountry].value = value
	r.levels[levelState].clear()
	r.levels[levelCity].clear()
	r.mu.Unlock()

	if value == "" {
		return nil
	}
	return r.fetch(ctx, levelState, model.LocationQuery{Level: model.LocationState, Country: value})
}

// SelectState sets the state, clears the city and loads its cities.
func (r *LocationResolver) SelectState(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	r.mu.Lock()
	country := r.levels[levelCountry].value
	if country == "" && value != "" {
		r.mu.Unlock()
		return domainErrors.ErrLocationRequired
	}
	r.levels[levelState].value = value
	r.levels[levelCity].clear()
	r.mu.Unlock()

	if value == "" {
		return nil
	}
	return r.fetch(ctx, levelCity, model.LocationQuery{Level: model.LocationCity, Country: country, State: value})
}

// SelectCity sets the city.
func (r *LocationResolver) SelectCity(value string) error {
	value = strings.TrimSpace(value)
	r.mu.Lock()
	defer r.mu.Unlock()
	if value != "" && r.levels[levelState].value == "" {
		return domainErrors.ErrLocationRequired
	}
	r.levels[levelCity].value = value
	return nil
}

// Prepopulate sets all three levels from a composed location without the
// clearing cascade and loads the option lists of the existing selection.
func (r *LocationResolver) Prepopulate(ctx context.Context, composed string) error {
	country, state, city, ok := SplitLocation(composed)
	if !ok {
		return domainErrors.ErrLocationRequired
	}
	r.mu.Lock()
	r.levels[levelCountry].value = country
	r.levels[levelState].value = state
	r.levels[levelCity].value = city
	r.mu.Unlock()

	return errors.Join(
		r.fetch(ctx, levelCountry, model.LocationQuery{Level: model.LocationCountry}),
		r.fetch(ctx, levelState, model.LocationQuery{Level: model.LocationState, Country: country}),
		r.fetch(ctx, levelCity, model.LocationQuery{Level: model.LocationCity, Country: country, State: state}),
	)
}

// Values returns the current selection.
func (r *LocationResolver) Values() (country, state, city string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels[levelCountry].value, r.levels[levelState].value, r.levels[levelCity].value
}

// Composed returns "country - state - city" or ErrLocationRequired.
func (r *LocationResolver) Composed() (string, error) {
	return ComposeLocation(r.Values())
}

// Snapshot returns the observable state of the three selectors.
func (r *LocationResolver) Snapshot() model.LocationSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := func(idx int) model.LevelSnapshot {
		l := r.levels[idx]
		disabled := l.loading
		if idx > levelCountry && r.levels[idx-1].value == "" {
			disabled = true
		}
		return model.LevelSnapshot{
			Value:    l.value,
			Options:  slices.Clone(l.options),
			Loading:  l.loading,
			Disabled: disabled,
			Error:    l.err,
		}
	}
	return model.LocationSnapshot{
		Country: snap(levelCountry),
		State:   snap(levelState),
		City:    snap(levelCity),
	}
}

func (r *LocationResolver) fetch(ctx context.Context, idx int, query model.LocationQuery) error {
	r.mu.Lock()
	level := &r.levels[idx]
	level.gen++
	gen := level.gen
	level.loading = true
	level.err = ""
	r.mu.Unlock()

	options, err := r.dir.Locations(ctx, query)

	r.mu.Lock()
	defer r.mu.Unlock()
	if level.gen != gen || !r.parentsMatch(idx, query) {
		return nil
	}
	level.loading = false
	if err != nil {
		level.err = domainErrors.UserMessage(err, "Could not load "+string(levelNames[idx])+" options")
		return err
	}
	level.options = options
	return nil
}

func (r *LocationResolver) parentsMatch(idx int, query model.LocationQuery) bool {
	if idx >= levelState && r.levels[levelCountry].value != query.Country {
		return false
	}
	if idx >= levelCity && r.levels[levelState].value != query.State {
		return false
	}
	return true
}
