package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"crwn/internal/models"
	"crwn/internal/service"
	"crwn/internal/viewstate"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if *email == "" {
		if *email, err = a.line("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.line("Password: "); err != nil {
			return err
		}
	}

	s, err := a.session.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.printf("Signed in as %s until %s\n", s.User.Email, s.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if a.session.Current() == nil {
		a.printf("Not signed in\n")
		return nil
	}
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

func runWhoami(ctx context.Context, a *app, _ []string) error {
	s := a.session.Current()
	if s == nil {
		a.printf("Not signed in\n")
		return nil
	}
	profile, err := a.rt.Services.Profiles.GetProfile(ctx, s.User.ID).Unwrap()
	if err != nil {
		return err
	}
	a.printf("%s (@%s) <%s>\n", profile.FullName, profile.Username, profile.Email)
	a.printf("session expires %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func runFeed(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	userID := fs.Uint("user", 0, "only this author's posts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var viewer uint
	if s := a.session.Current(); s != nil && s.User != nil {
		viewer = s.User.ID
	}

	list := viewstate.NewPostsList(a.rt.Services.Posts, viewer, uint(*userID))
	state := list.Mount(ctx)
	if state.Err != nil {
		return state.Err
	}
	if list.IsEmpty() {
		a.printf("No posts yet\n")
		return nil
	}
	for _, p := range state.Items {
		a.printPost(p)
	}
	return nil
}

func (a *app) printPost(p *models.Post) {
	author := fmt.Sprintf("user %d", p.UserID)
	if p.Profile != nil {
		author = "@" + p.Profile.Username
	}
	a.printf("#%d %s by %s, %s\n", p.ID, p.Title, author, p.CreatedAt.Local().Format("Jan 2 15:04"))
	if p.Description != "" {
		a.printf("    %s\n", p.Description)
	}
	if p.Stylist != nil {
		a.printf("    styled by @%s\n", p.Stylist.Username)
	}
	if len(p.Tags) > 0 {
		a.printf("    #%s\n", strings.Join(p.Tags, " #"))
	}
	a.printf("    %d photos, %d likes", len(p.Media), p.LikesCount)
	if p.Liked {
		a.printf(" (you liked this)")
	}
	if !p.IsPublic {
		a.printf(" [private]")
	}
	a.printf("\n")
}

func runPost(ctx context.Context, a *app, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	title := fs.String("title", "", "post title")
	desc := fs.String("desc", "", "description")
	tags := fs.String("tags", "", "comma separated tags")
	stylist := fs.Uint("stylist", 0, "credit a stylist by user ID")
	private := fs.Bool("private", false, "only visible to you")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := service.CreatePostInput{
		UserID:      uid,
		Title:       *title,
		Description: *desc,
		Private:     *private,
	}
	if *tags != "" {
		in.Tags = strings.Split(*tags, ",")
	}
	if *stylist != 0 {
		id := uint(*stylist)
		in.StylistID = &id
	}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		in.Images = append(in.Images, data)
	}

	post, err := a.rt.Services.Posts.CreatePost(ctx, in).Unwrap()
	if err != nil {
		return err
	}
	a.printf("Posted #%d\n", post.ID)
	a.printPost(post)
	return nil
}

func runProfile(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	id := fs.Uint("id", 0, "profile to show (default: yours)")
	edit := fs.Bool("edit", false, "change your profile")
	name := fs.String("name", "", "full name")
	username := fs.String("username", "", "username")
	bio := fs.String("bio", "", "bio")
	location := fs.String("location", "", "location")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := uint(*id)
	if target == 0 || *edit {
		uid, err := a.requireUser()
		if err != nil {
			return err
		}
		target = uid
	}

	view := viewstate.NewProfileView(a.rt.Services.Profiles)
	state := view.Load(ctx, target)
	if state.Err != nil {
		a.printf("(could not load profile: %s)\n", message(state.Err))
	}
	p := state.Profile

	if *edit {
		in := service.UpdateProfileInput{
			FullName:    pick(*name, p.FullName),
			Username:    pick(*username, p.Username),
			Bio:         pick(*bio, p.Bio),
			Location:    pick(*location, p.Location),
			Phone:       p.Phone,
			DateOfBirth: p.DateOfBirth,
		}
		updated, err := a.rt.Services.Profiles.UpdateProfile(ctx, target, in).Unwrap()
		if err != nil {
			return err
		}
		a.printf("Profile updated\n")
		p = updated
	}

	a.printf("%s (@%s) %s\n", p.FullName, p.Username, p.UserType)
	if p.Bio != "" {
		a.printf("%s\n", p.Bio)
	}
	if p.Location != "" {
		a.printf("📍 %s\n", p.Location)
	}
	if p.AvatarURL != "" {
		a.printf("avatar: %s\n", p.AvatarURL)
	}
	a.printf("%d posts, %d followers, %d following\n", p.PostsCount, p.FollowersCount, p.FollowingCount)
	if hp := p.HairProfile; hp != nil {
		a.printf("hair: type %s, %s porosity, goals: %s\n", hp.HairType, hp.Porosity, strings.Join(hp.Goals, ", "))
	}
	return nil
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func runAvatar(ctx context.Context, a *app, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: crwn avatar <image file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	profile, err := a.rt.Services.Profiles.GetProfile(ctx, uid).Unwrap()
	if err != nil {
		return err
	}
	editor := viewstate.NewAvatarEditor(a.rt.Services.Profiles, uid, profile.AvatarURL)
	unsubscribe := editor.OnChange(func(s viewstate.AvatarState) {
		switch {
		case s.Uploading:
			a.printf("Uploading %s...\n", filepath.Base(s.Preview))
		case s.Alert != "":
			a.printf("%s\n", s.Alert)
		default:
			a.printf("Avatar: %s\n", s.Preview)
		}
	})
	defer unsubscribe()

	return editor.Pick(ctx, args[0], data)
}

func runNotifications(ctx context.Context, a *app, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	follow := fs.Bool("follow", false, "keep printing new notifications")
	limit := fs.Int("limit", 20, "how many to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	notes, err := a.rt.Services.Notifications.List(ctx, uid, *limit).Unwrap()
	if err != nil {
		return err
	}
	if len(notes) == 0 && !*follow {
		a.printf("No notifications\n")
	}
	for i := len(notes) - 1; i >= 0; i-- {
		a.printNotification(notes[i])
	}
	if !*follow {
		return nil
	}

	sub, err := a.rt.Services.Notifications.Subscribe(ctx, uid, a.printNotification).Unwrap()
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()
	a.printf("Waiting for notifications (ctrl-c to stop)\n")
	<-ctx.Done()
	return nil
}

func (a *app) printNotification(n *models.Notification) {
	mark := " "
	if !n.IsRead {
		mark = "•"
	}
	a.printf("%s %s  %-11s %s\n", mark, n.CreatedAt.Local().Format("Jan 2 15:04"), n.Type, n.Message)
}

func runSettings(ctx context.Context, a *app, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	var current *models.UserSettings
	if len(args) == 0 {
		current, err = a.rt.Services.Settings.Get(ctx, uid).Unwrap()
	} else {
		patch, perr := parseSettings(args)
		if perr != nil {
			return perr
		}
		current, err = a.rt.Services.Settings.Update(ctx, uid, patch).Unwrap()
	}
	if err != nil {
		return err
	}
	return a.printSettings(current)
}

// parseSettings turns key=value arguments into a patch. Values "true" and
// "false" are booleans; anything else is a string.
func parseSettings(args []string) (service.SettingsPatch, error) {
	var patch service.SettingsPatch
	fields := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return patch, fmt.Errorf("expected key=value, got %q", arg)
		}
		if value == "true" || value == "false" {
			fields[key] = value == "true"
		} else {
			fields[key] = value
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return patch, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return patch, fmt.Errorf("invalid setting: %w", err)
	}
	return patch, nil
}

func (a *app) printSettings(s *models.UserSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	delete(fields, "user_id")
	delete(fields, "updated_at")

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("%-22s %v\n", k, fields[k])
	}
	return nil
}

func runFeedback(ctx context.Context, a *app, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("feedback", flag.ContinueOnError)
	kind := fs.String("type", models.FeedbackSuggestion, "bug, suggestion or question")
	msg := fs.String("message", "", "what you want to tell us")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *msg == "" {
		if *msg, err = a.line("Message: "); err != nil {
			return err
		}
	}

	if _, err := a.rt.Services.Feedback.Submit(ctx, uid, *kind, *msg).Unwrap(); err != nil {
		return err
	}
	a.printf("Thanks! Your feedback was sent.\n")
	return nil
}
