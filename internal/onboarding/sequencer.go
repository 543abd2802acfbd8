package onboarding

import (
	"context"
	"errors"
	"sync"

	"crwn/internal/auth"
	"crwn/internal/observability"
)

var (
	// ErrStepIncomplete is returned by Continue when the current step's answers are invalid.
	ErrStepIncomplete = errors.New("please complete this step before continuing")
	// ErrBackDisabled is returned by Back on steps without a way back.
	ErrBackDisabled = errors.New("back is not available on this step")
)

// Registrar creates the account once the wizard reaches the loading step.
type Registrar interface {
	Register(ctx context.Context, reg Registration) (*auth.Session, error)
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(ctx context.Context, reg Registration) (*auth.Session, error)

func (f RegistrarFunc) Register(ctx context.Context, reg Registration) (*auth.Session, error) {
	return f(ctx, reg)
}

// TransitionFunc observes a step change.
type TransitionFunc func(from, to Step)

// Sequencer walks a single user through the steps. It is safe for concurrent use.
type Sequencer struct {
	registrar Registrar
	catalog   *Catalog

	mu        sync.Mutex
	step      Step
	form      Form
	err       error
	session   *auth.Session
	observers []TransitionFunc
}

// NewSequencer starts a wizard at the splash step.
func NewSequencer(registrar Registrar, catalog *Catalog) *Sequencer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Sequencer{registrar: registrar, catalog: catalog, step: StepSplash}
}

// OnTransition registers fn to be called after every step change.
func (s *Sequencer) OnTransition(fn TransitionFunc) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Sequencer) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Form returns a copy of the accumulated answers.
func (s *Sequencer) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.clone()
}

// Err returns the last registration failure, cleared on the next advance.
func (s *Sequencer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Session returns the session created by a successful registration.
func (s *Sequencer) Session() *auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Sequencer) Catalog() *Catalog { return s.catalog }

// CanContinue reports whether the current step's answers are valid.
func (s *Sequencer) CanContinue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table[s.step].valid(&s.form, s.catalog)
}

func (s *Sequencer) CanGoBack() bool {
	return CanGoBack(s.Step())
}

// Update merges p into the form. The step does not change.
func (s *Sequencer) Update(p Patch) {
	s.mu.Lock()
	s.form.apply(p)
	s.mu.Unlock()
}

// ToggleGoal selects goal, or deselects it when already selected.
func (s *Sequencer) ToggleGoal(goal string) {
	s.mu.Lock()
	s.form.toggleGoal(goal)
	s.mu.Unlock()
}

// Continue advances one step when the current answers are valid. Entering the
// loading step registers the account and moves on to complete, or back to the
// email step on failure; the registration error is returned and kept in Err.
func (s *Sequencer) Continue(ctx context.Context) error {
	s.mu.Lock()
	from := s.step
	t := table[from]
	if !t.valid(&s.form, s.catalog) {
		s.mu.Unlock()
		return ErrStepIncomplete
	}
	s.step = t.next
	s.err = nil
	form := s.form.clone()
	s.mu.Unlock()

	s.notify(from, t.next)
	if t.next == StepLoading {
		return s.register(ctx, &form)
	}
	return nil
}

// Back moves to the previous step where that is allowed.
func (s *Sequencer) Back() error {
	s.mu.Lock()
	from := s.step
	t := table[from]
	if !t.canGoBack {
		s.mu.Unlock()
		return ErrBackDisabled
	}
	s.step = t.prev
	s.mu.Unlock()

	s.notify(from, t.prev)
	return nil
}

func (s *Sequencer) register(ctx context.Context, form *Form) error {
	sess, err := s.registrar.Register(ctx, form.Registration())

	loading := table[StepLoading]
	to := loading.next
	s.mu.Lock()
	if err != nil {
		to = loading.onFail
		s.err = err
	} else {
		s.session = sess
	}
	s.step = to
	s.mu.Unlock()

	s.notify(StepLoading, to)
	return err
}

func (s *Sequencer) notify(from, to Step) {
	observability.OnboardingTransitions.WithLabelValues(string(to)).Inc()
	s.mu.Lock()
	observers := append([]TransitionFunc(nil), s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(from, to)
	}
}
