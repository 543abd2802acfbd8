package onboarding

import (
	"slices"
	"strings"

	"crwn/internal/validation"
)

// Form accumulates the answers given across the steps.
type Form struct {
	UserType        string   `json:"user_type"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Password        string   `json:"password,omitempty"`
	ConfirmPassword string   `json:"confirm_password,omitempty"`
	Location        string   `json:"location"`
	HairType        string   `json:"hair_type"`
	HairPorosity    string   `json:"hair_porosity"`
	HairGoals       []string `json:"hair_goals"`
}

// Patch carries a partial form update. Nil fields are left unchanged.
type Patch struct {
	UserType        *string  `json:"user_type"`
	FirstName       *string  `json:"first_name"`
	LastName        *string  `json:"last_name"`
	Email           *string  `json:"email"`
	Password        *string  `json:"password"`
	ConfirmPassword *string  `json:"confirm_password"`
	Location        *string  `json:"location"`
	HairType        *string  `json:"hair_type"`
	HairPorosity    *string  `json:"hair_porosity"`
	ToggleGoals     []string `json:"toggle_goals"`
}

func (f *Form) apply(p Patch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&f.UserType, p.UserType)
	set(&f.FirstName, p.FirstName)
	set(&f.LastName, p.LastName)
	set(&f.Email, p.Email)
	set(&f.Password, p.Password)
	set(&f.ConfirmPassword, p.ConfirmPassword)
	set(&f.Location, p.Location)
	set(&f.HairType, p.HairType)
	set(&f.HairPorosity, p.HairPorosity)
	for _, g := range p.ToggleGoals {
		f.toggleGoal(g)
	}
}

func (f *Form) toggleGoal(goal string) {
	if i := slices.Index(f.HairGoals, goal); i >= 0 {
		f.HairGoals = slices.Delete(f.HairGoals, i, i+1)
		return
	}
	f.HairGoals = append(f.HairGoals, goal)
}

func (f Form) clone() Form {
	f.HairGoals = slices.Clone(f.HairGoals)
	return f
}

// Redacted returns a copy without the password fields.
func (f Form) Redacted() Form {
	f = f.clone()
	f.Password = ""
	f.ConfirmPassword = ""
	return f
}

// Registration is the account request built from a completed form.
type Registration struct {
	Email     string
	Password  string
	FullName  string
	Username  string
	Location  string
	HairType  string
	Porosity  string
	HairGoals []string
	UserType  string
}

// Registration maps the form to an account request.
func (f *Form) Registration() Registration {
	return Registration{
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		FullName:  strings.TrimSpace(f.FirstName + " " + f.LastName),
		Username:  validation.UsernameFromEmail(strings.TrimSpace(f.Email)),
		Location:  f.Location,
		HairType:  f.HairType,
		Porosity:  f.HairPorosity,
		HairGoals: slices.Clone(f.HairGoals),
		UserType:  f.UserType,
	}
}

func validUserType(f *Form, c *Catalog) bool { return c.IsUserType(f.UserType) }

func validName(f *Form, _ *Catalog) bool { return strings.TrimSpace(f.FirstName) != "" }

func validEmailStep(f *Form, _ *Catalog) bool {
	return validation.IsEmail(f.Email) &&
		len(f.Password) >= validation.MinPasswordLength &&
		f.Password == f.ConfirmPassword
}

func validLocation(f *Form, _ *Catalog) bool { return strings.TrimSpace(f.Location) != "" }

func validHairType(f *Form, c *Catalog) bool { return c.IsHairType(f.HairType) }

func validPorosity(f *Form, c *Catalog) bool { return c.IsPorosity(f.HairPorosity) }

func validGoals(f *Form, c *Catalog) bool {
	if len(f.HairGoals) == 0 {
		return false
	}
	for _, g := range f.HairGoals {
		if !c.IsGoal(g) {
			return false
		}
	}
	return true
}
