package onboarding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"crwn/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

type stubRegistrar struct {
	calls atomic.Int32
	got   Registration
	err   error
}

func (r *stubRegistrar) Register(_ context.Context, reg Registration) (*auth.Session, error) {
	r.calls.Add(1)
	r.got = reg
	if r.err != nil {
		return nil, r.err
	}
	return &auth.Session{AccessToken: "tok", TokenType: auth.TokenType}, nil
}

// validPatch fills every answer so each step's predicate holds.
func validPatch() Patch {
	return Patch{
		UserType:        ptr("stylist"),
		FirstName:       ptr("Ada"),
		LastName:        ptr("Lovelace "),
		Email:           ptr("Ada.L-1@Example.com"),
		Password:        ptr("abcdef"),
		ConfirmPassword: ptr("abcdef"),
		Location:        ptr("Atlanta"),
		HairType:        ptr("4C"),
		HairPorosity:    ptr("High"),
		ToggleGoals:     []string{"Hair growth", "Damage repair"},
	}
}

// advanceTo drives a filled-in sequencer forward until it reaches step.
func advanceTo(t *testing.T, s *Sequencer, step Step) {
	t.Helper()
	for s.Step() != step {
		require.NoError(t, s.Continue(context.Background()), "continue from %s", s.Step())
	}
}

func TestCatalogLoaded(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.HairTypes, 8)
	assert.True(t, c.IsHairType("3A"))
	assert.True(t, c.IsHairType("1"))
	assert.False(t, c.IsHairType("5"))
	assert.True(t, c.IsPorosity("Medium"))
	assert.True(t, c.IsGoal("Hydration & moisture"))
	assert.True(t, c.IsUserType("explorer"))

	pos, total, ok := c.Progress(StepEmail)
	assert.True(t, ok)
	assert.Equal(t, 3, pos)
	assert.Equal(t, 7, total)
	_, _, ok = c.Progress(StepHairIntro)
	assert.False(t, ok)
}

func TestParseCatalog_RejectsUnknownStep(t *testing.T) {
	_, err := ParseCatalog([]byte(`
user_types: [{id: explorer}]
hair_types: [{id: "1"}]
porosity: [{id: Low}]
goals: [x]
progress_steps: [nowhere]
`))
	assert.Error(t, err)
}

func TestTableCoversEveryStep(t *testing.T) {
	require.Len(t, Order, 12)
	for i, step := range Order {
		tr, ok := table[step]
		require.True(t, ok, step)
		if i+1 < len(Order) {
			assert.Equal(t, Order[i+1], tr.next, step)
		}
		assert.Equal(t, i, step.Index())
	}
}

func TestContinue_InvalidNeverAdvances(t *testing.T) {
	for _, step := range Order {
		if table[step].valid(&Form{}, DefaultCatalog()) {
			continue
		}
		t.Run(string(step), func(t *testing.T) {
			s := NewSequencer(&stubRegistrar{}, nil)
			s.step = step
			err := s.Continue(context.Background())
			assert.ErrorIs(t, err, ErrStepIncomplete)
			assert.Equal(t, step, s.Step())
		})
	}
}

func TestBack_MovesToPreviousStep(t *testing.T) {
	for i := 2; i <= 9; i++ {
		step := Order[i]
		t.Run(string(step), func(t *testing.T) {
			s := NewSequencer(&stubRegistrar{}, nil)
			s.step = step
			require.NoError(t, s.Back())
			assert.Equal(t, Order[i-1], s.Step())
		})
	}
}

func TestBack_DisabledSteps(t *testing.T) {
	for _, step := range []Step{StepSplash, StepWelcome, StepLoading, StepComplete} {
		s := NewSequencer(&stubRegistrar{}, nil)
		s.step = step
		assert.ErrorIs(t, s.Back(), ErrBackDisabled, step)
		assert.Equal(t, step, s.Step())
		assert.False(t, s.CanGoBack())
	}
}

func TestEmailStepValidity(t *testing.T) {
	c := DefaultCatalog()
	assert.True(t, Valid(StepEmail, &Form{Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdef"}, c))
	assert.False(t, Valid(StepEmail, &Form{Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdeg"}, c))
	assert.False(t, Valid(StepEmail, &Form{Email: "a@b.com", Password: "abcde", ConfirmPassword: "abcde"}, c))
	assert.False(t, Valid(StepEmail, &Form{Email: "a@b", Password: "abcdef", ConfirmPassword: "abcdef"}, c))
}

func TestOtherStepPredicates(t *testing.T) {
	c := DefaultCatalog()
	assert.False(t, Valid(StepUserType, &Form{UserType: "admin"}, c))
	assert.False(t, Valid(StepName, &Form{FirstName: "   "}, c))
	assert.False(t, Valid(StepLocation, &Form{Location: "\t"}, c))
	assert.False(t, Valid(StepHairPorosity, &Form{HairPorosity: "low"}, c))
	assert.False(t, Valid(StepHairGoals, &Form{HairGoals: []string{"Fly"}}, c))
	assert.True(t, Valid(StepHairIntro, &Form{}, c))
}

func TestToggleGoal(t *testing.T) {
	s := NewSequencer(&stubRegistrar{}, nil)
	s.ToggleGoal("Hair growth")
	s.ToggleGoal("Find new styles")
	s.ToggleGoal("Hair growth")
	assert.Equal(t, []string{"Find new styles"}, s.Form().HairGoals)
}

func TestSuccessfulRegistration(t *testing.T) {
	reg := &stubRegistrar{}
	s := NewSequencer(reg, nil)

	var seen []Step
	s.OnTransition(func(_, to Step) { seen = append(seen, to) })

	s.Update(validPatch())
	advanceTo(t, s, StepHairGoals)
	require.NoError(t, s.Continue(context.Background()))

	assert.Equal(t, StepComplete, s.Step())
	assert.Equal(t, int32(1), reg.calls.Load())
	require.NotNil(t, s.Session())
	assert.NoError(t, s.Err())
	assert.Equal(t, Order[1:], seen)

	assert.Equal(t, Registration{
		Email:     "Ada.L-1@Example.com",
		Password:  "abcdef",
		FullName:  "Ada Lovelace",
		Username:  "adal1",
		Location:  "Atlanta",
		HairType:  "4C",
		Porosity:  "High",
		HairGoals: []string{"Hair growth", "Damage repair"},
		UserType:  "stylist",
	}, reg.got)

	assert.ErrorIs(t, s.Continue(context.Background()), ErrStepIncomplete)
	assert.Equal(t, int32(1), reg.calls.Load())
}

func TestFailedRegistrationReturnsToEmail(t *testing.T) {
	reg := &stubRegistrar{err: errors.New("User already registered")}
	s := NewSequencer(reg, nil)
	var last [2]Step
	s.OnTransition(func(from, to Step) { last = [2]Step{from, to} })

	s.Update(validPatch())
	advanceTo(t, s, StepHairGoals)
	err := s.Continue(context.Background())
	require.Error(t, err)

	assert.Equal(t, StepEmail, s.Step())
	assert.Equal(t, [2]Step{StepLoading, StepEmail}, last)
	assert.EqualError(t, s.Err(), "User already registered")
	assert.Nil(t, s.Session())
	form := s.Form()
	assert.Equal(t, "Ada", form.FirstName)
	assert.Equal(t, "4C", form.HairType)
	assert.Len(t, form.HairGoals, 2)

	// Resubmitting walks forward again and clears the error.
	reg.err = nil
	require.NoError(t, s.Continue(context.Background()))
	assert.NoError(t, s.Err())
	advanceTo(t, s, StepComplete)
	assert.Equal(t, int32(2), reg.calls.Load())
}

func TestRedacted(t *testing.T) {
	f := Form{Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdef", HairGoals: []string{"x"}}
	r := f.Redacted()
	assert.Empty(t, r.Password)
	assert.Empty(t, r.ConfirmPassword)
	r.HairGoals[0] = "y"
	assert.Equal(t, "x", f.HairGoals[0])
}

func TestDraftStore(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store := NewDraftStore(30*time.Minute, func() *Sequencer { return NewSequencer(&stubRegistrar{}, nil) })
	store.now = func() time.Time { return now }

	idA, seqA := store.Create()
	idB, _ := store.Create()
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, 2, store.Len())

	now = now.Add(20 * time.Minute)
	got, ok := store.Get(idA)
	require.True(t, ok)
	assert.Same(t, seqA, got)

	// B expires, A was touched at +20m and lives until +50m.
	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	_, ok = store.Get(idB)
	assert.False(t, ok)
	_, ok = store.Get(idA)
	assert.True(t, ok)

	store.Delete(idA)
	assert.Equal(t, 0, store.Len())
	_, ok = store.Get("missing")
	assert.False(t, ok)
}
