// Command crwn is the terminal client: the onboarding wizard, feed, profile,
// posting, notifications and settings over a direct backend connection.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"crwn/internal/bootstrap"
	"crwn/internal/config"
	"crwn/internal/models"
	"crwn/internal/session"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"onboard":       {"create an account step by step", runOnboard},
	"login":         {"sign in [-email e] [-password p]", runLogin},
	"logout":        {"sign out", runLogout},
	"whoami":        {"show the signed-in account", runWhoami},
	"feed":          {"list posts [-user id]", runFeed},
	"post":          {"create a post -title t [-desc d] [-tags a,b] [-stylist id] [-private] file...", runPost},
	"profile":       {"show a profile [-id n] or edit yours [-edit -name -username -bio -location]", runProfile},
	"avatar":        {"upload a new avatar: avatar file", runAvatar},
	"notifications": {"list notifications [-follow]", runNotifications},
	"settings":      {"show settings or change them: settings key=value...", runSettings},
	"feedback":      {"send feedback -type bug|suggestion|question -message m", runFeedback},
}

// app is the process-scoped client state shared by every command.
type app struct {
	rt      *bootstrap.Runtime
	session *session.Holder
	in      *bufio.Reader
	out     io.Writer
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, cmd, flag.Args()[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", message(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	holder := session.NewHolder(rt.Remote.Auth, &session.FileStore{Path: sessionPath(cfg)})
	defer holder.Close()
	if err := holder.Init(ctx); err != nil {
		return err
	}

	a := &app{rt: rt, session: holder, in: bufio.NewReader(os.Stdin), out: os.Stdout}
	return cmd.run(ctx, a, args)
}

func sessionPath(cfg *config.Config) string {
	if cfg.SessionFile != "" {
		return cfg.SessionFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "crwn", "session.json")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: crwn <command> [flags]")
	fmt.Fprintln(os.Stderr)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].usage)
	}
}

// message is what the user sees for err: the AppError message when there is one.
func message(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// requireUser returns the signed-in user's ID.
func (a *app) requireUser() (uint, error) {
	s := a.session.Current()
	if s == nil || s.User == nil {
		return 0, errors.New("not signed in; run `crwn login` or `crwn onboard`")
	}
	return s.User.ID, nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
