package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"crwn/internal/onboarding"
)

// errQuit ends the wizard without an account.
var errQuit = errors.New("onboarding cancelled")

func runOnboard(ctx context.Context, a *app, _ []string) error {
	catalog := onboarding.DefaultCatalog()
	seq := onboarding.NewSequencer(a.rt.Services.Auth.Registrar(), catalog)

	a.printf("Answer each question. Type \"back\" to return to the previous step or \"quit\" to stop.\n")
	for seq.Step() != onboarding.StepComplete {
		step := seq.Step()
		if pos, total, ok := catalog.Progress(step); ok {
			a.printf("\n[%d/%d] ", pos, total)
		} else {
			a.printf("\n")
		}

		back, err := a.ask(seq, step, catalog)
		if err != nil {
			return err
		}
		if back {
			if err := seq.Back(); err != nil {
				a.printf("%s\n", err)
			}
			continue
		}

		if step == onboarding.StepHairGoals && seq.CanContinue() {
			for _, msg := range catalog.LoadingMessages {
				a.printf("%s\n", msg)
			}
		}
		if err := seq.Continue(ctx); err != nil {
			if errors.Is(err, onboarding.ErrStepIncomplete) {
				a.printf("%s\n", err)
				continue
			}
			a.printf("Could not create your account.\n")
		}
	}

	if err := a.session.Adopt(seq.Session()); err != nil {
		return err
	}
	form := seq.Form()
	a.printf("\nWelcome to CRWN, %s! You are signed in as %s.\n", form.FirstName, form.Email)
	return nil
}

// ask prompts for the answers of step and merges them into the form. It
// reports whether the user asked to go back.
func (a *app) ask(seq *onboarding.Sequencer, step onboarding.Step, c *onboarding.Catalog) (bool, error) {
	form := seq.Form()
	var patch onboarding.Patch

	switch step {
	case onboarding.StepSplash:
		a.printf("CRWN\n")
		return false, nil
	case onboarding.StepWelcome:
		a.printf("Your hair journey starts here. Press enter to begin.\n")
		_, err := a.line("")
		return false, err
	case onboarding.StepHairIntro:
		a.printf("Now a few questions about your hair. Press enter to continue.\n")
		v, err := a.line("")
		return v == "back", err

	case onboarding.StepUserType:
		v, err := a.choose("How will you use CRWN?", c.UserTypes)
		if err != nil || v == "back" {
			return v == "back", err
		}
		patch.UserType = &v
	case onboarding.StepName:
		first, err := a.line("First name: ")
		if err != nil || first == "back" {
			return first == "back", err
		}
		last, err := a.line("Last name (optional): ")
		if err != nil {
			return false, err
		}
		patch.FirstName, patch.LastName = &first, &last
	case onboarding.StepEmail:
		if regErr := seq.Err(); regErr != nil {
			a.printf("%s\n", message(regErr))
		}
		email, err := a.lineDefault("Email", form.Email)
		if err != nil || email == "back" {
			return email == "back", err
		}
		password, err := a.line("Password (at least 6 characters): ")
		if err != nil {
			return false, err
		}
		confirm, err := a.line("Confirm password: ")
		if err != nil {
			return false, err
		}
		patch.Email, patch.Password, patch.ConfirmPassword = &email, &password, &confirm
	case onboarding.StepLocation:
		v, err := a.lineDefault("City, State", form.Location)
		if err != nil || v == "back" {
			return v == "back", err
		}
		patch.Location = &v
	case onboarding.StepHairType:
		v, err := a.choose("What is your hair type?", c.HairTypes)
		if err != nil || v == "back" {
			return v == "back", err
		}
		patch.HairType = &v
	case onboarding.StepHairPorosity:
		v, err := a.choose("How porous is your hair?", c.Porosity)
		if err != nil || v == "back" {
			return v == "back", err
		}
		patch.HairPorosity = &v
	case onboarding.StepHairGoals:
		return a.chooseGoals(seq, c)
	}

	seq.Update(patch)
	return false, nil
}

func (a *app) chooseGoals(seq *onboarding.Sequencer, c *onboarding.Catalog) (bool, error) {
	for {
		selected := seq.Form().HairGoals
		a.printf("What are your hair goals? Enter numbers to toggle, empty line when done.\n")
		for i, g := range c.Goals {
			mark := " "
			for _, s := range selected {
				if s == g {
					mark = "x"
				}
			}
			a.printf("  [%s] %d. %s\n", mark, i+1, g)
		}
		v, err := a.line("> ")
		if err != nil {
			return false, err
		}
		switch v {
		case "":
			return false, nil
		case "back":
			return true, nil
		}
		for _, field := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			n, err := strconv.Atoi(field)
			if err != nil || n < 1 || n > len(c.Goals) {
				a.printf("%q is not one of the listed goals\n", field)
				continue
			}
			seq.ToggleGoal(c.Goals[n-1])
		}
	}
}

func (a *app) choose(question string, opts []onboarding.Option) (string, error) {
	a.printf("%s\n", question)
	for i, o := range opts {
		a.printf("  %d. %s\n", i+1, o.Label)
	}
	v, err := a.line("> ")
	if err != nil || v == "back" {
		return v, err
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1].ID, nil
	}
	return v, nil
}

func (a *app) lineDefault(prompt, current string) (string, error) {
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", prompt, current)
	} else {
		prompt += ": "
	}
	v, err := a.line(prompt)
	if err == nil && v == "" {
		v = current
	}
	return v, err
}

// line reads one trimmed line. "quit" and end of input abort the command.
func (a *app) line(prompt string) (string, error) {
	a.printf("%s", prompt)
	raw, err := a.in.ReadString('\n')
	v := strings.TrimSpace(raw)
	if err != nil && v == "" {
		return "", errQuit
	}
	if v == "quit" {
		return "", errQuit
	}
	return v, nil
}
