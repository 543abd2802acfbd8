// Package onboarding implements the sign-up wizard as an explicit state machine.
package onboarding

// Step is one screen of the wizard.
type Step string

const (
	StepSplash       Step = "splash"
	StepWelcome      Step = "welcome"
	StepUserType     Step = "userType"
	StepName         Step = "name"
	StepEmail        Step = "email"
	StepLocation     Step = "location"
	StepHairIntro    Step = "hairIntro"
	StepHairType     Step = "hairType"
	StepHairPorosity Step = "hairPorosity"
	StepHairGoals    Step = "hairGoals"
	StepLoading      Step = "loading"
	StepComplete     Step = "complete"
)

// Order lists the steps in the sequence they are shown.
var Order = []Step{
	StepSplash,
	StepWelcome,
	StepUserType,
	StepName,
	StepEmail,
	StepLocation,
	StepHairIntro,
	StepHairType,
	StepHairPorosity,
	StepHairGoals,
	StepLoading,
	StepComplete,
}

// Index returns the position of s in Order, or -1.
func (s Step) Index() int {
	for i, o := range Order {
		if o == s {
			return i
		}
	}
	return -1
}

type predicate func(f *Form, c *Catalog) bool

type transition struct {
	next      Step
	prev      Step
	canGoBack bool
	valid     predicate
	// onFail is where a failed registration returns to.
	onFail Step
}

func always(*Form, *Catalog) bool { return true }
func never(*Form, *Catalog) bool  { return false }

var table = map[Step]transition{
	StepSplash:       {next: StepWelcome, valid: always},
	StepWelcome:      {next: StepUserType, valid: always},
	StepUserType:     {next: StepName, prev: StepWelcome, canGoBack: true, valid: validUserType},
	StepName:         {next: StepEmail, prev: StepUserType, canGoBack: true, valid: validName},
	StepEmail:        {next: StepLocation, prev: StepName, canGoBack: true, valid: validEmailStep},
	StepLocation:     {next: StepHairIntro, prev: StepEmail, canGoBack: true, valid: validLocation},
	StepHairIntro:    {next: StepHairType, prev: StepLocation, canGoBack: true, valid: always},
	StepHairType:     {next: StepHairPorosity, prev: StepHairIntro, canGoBack: true, valid: validHairType},
	StepHairPorosity: {next: StepHairGoals, prev: StepHairType, canGoBack: true, valid: validPorosity},
	StepHairGoals:    {next: StepLoading, prev: StepHairPorosity, canGoBack: true, valid: validGoals},
	StepLoading:      {next: StepComplete, valid: never, onFail: StepEmail},
	StepComplete:     {valid: never},
}

// Valid reports whether f satisfies the predicate of step.
func Valid(step Step, f *Form, c *Catalog) bool {
	t, ok := table[step]
	return ok && t.valid(f, c)
}

// CanGoBack reports whether Back is enabled on step.
func CanGoBack(step Step) bool {
	return table[step].canGoBack
}
