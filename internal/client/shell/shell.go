package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/oauth2profile/internal/client/api"
	"github.com/atinyakov/oauth2profile/internal/client/csrf"
	"github.com/atinyakov/oauth2profile/internal/client/profile"
	"github.com/atinyakov/oauth2profile/internal/client/storage"
)

// LinkBuilder builds the OAuth2 login links.
type LinkBuilder interface {
	LoginURL(p api.Provider) string
}

// SessionStore receives an imported session cookie and persists cookies.
type SessionStore interface {
	SetCookie(name, value string)
	Clear()
	Save() error
}

// Config wires a Shell.
type Config struct {
	API     profile.API
	Links   LinkBuilder
	Tokens  csrf.Store
	Session SessionStore
	In      io.Reader
	Out     io.Writer
	// Fd is the input's file descriptor, used to read the session value
	// without echo when it is a terminal.
	Fd      int
	Log     *zap.Logger
}

// Shell runs the views. It is the controller's Notifier and Navigator.
type Shell struct {
	cfg     Config
	scanner *bufio.Scanner
	out     io.Writer
	log     *zap.Logger

	next string
}

// New creates a Shell.
func New(cfg Config) *Shell {
	return &Shell{
		cfg:     cfg,
		scanner: bufio.NewScanner(cfg.In),
		out:     cfg.Out,
		log:     cfg.Log,
	}
}

// Alert prints a notice.
func (s *Shell) Alert(msg string) {
	fmt.Fprintf(s.out, "! %s\n", msg)
}

// Navigate makes the current view return route once its command finishes.
func (s *Shell) Navigate(route string) {
	s.next = route
}

// Run renders the view for route and follows navigations until the user
// exits or input ends.
func (s *Shell) Run(ctx context.Context, route string) error {
	for route != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.next = ""
		s.log.Debug("render", zap.String("route", route), zap.Stringer("view", Select(route)))

		switch Select(route) {
		case ViewProfile:
			route = s.runProfile(ctx)
		default:
			route = s.runLanding(ctx)
		}
	}
	return nil
}

// prompt prints the prompt and returns the next command and its argument.
// ok is false at the end of input.
func (s *Shell) prompt(view View) (cmd, arg string, ok bool) {
	for {
		fmt.Fprintf(s.out, "%s> ", view)
		if !s.scanner.Scan() {
			return "", "", false
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ = strings.Cut(line, " ")
		return cmd, strings.TrimSpace(arg), true
	}
}

func (s *Shell) runLanding(ctx context.Context) string {
	renderLanding(s.out, s.cfg.Links)

	for {
		cmd, arg, ok := s.prompt(ViewLanding)
		if !ok {
			return ""
		}
		switch cmd {
		case "help":
			fmt.Fprintln(s.out, "Available commands: help, session, profile, open <path>, exit")
		case "session":
			s.importSession()
		case "profile":
			return ProfileRoute
		case "open":
			if arg == "" {
				fmt.Fprintln(s.out, "Usage: open <path>")
				continue
			}
			return arg
		case "exit", "quit":
			fmt.Fprintln(s.out, "Bye")
			return ""
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (s *Shell) importSession() {
	value, err := storage.PromptForSession(s.scanner, s.cfg.Fd, s.out)
	if err != nil {
		if errors.Is(err, storage.ErrEmptySession) {
			fmt.Fprintln(s.out, "No session entered")
			return
		}
		s.log.Error("read session", zap.Error(err))
		fmt.Fprintln(s.out, "Could not read the session")
		return
	}
	s.cfg.Session.SetCookie(storage.SessionCookieName, value)
	s.saveSession()
	fmt.Fprintln(s.out, `Session stored. Run "profile" to open your profile.`)
}

func (s *Shell) saveSession() {
	if err := s.cfg.Session.Save(); err != nil {
		s.log.Error("save session", zap.Error(err))
	}
}

func (s *Shell) runProfile(ctx context.Context) string {
	ctrl := profile.NewController(s.cfg.API, s.cfg.Tokens, s, s, s.log)

	fmt.Fprintln(s.out, "Loading...")
	state := ctrl.Load(ctx)
	s.saveSession()

	if state != profile.StateAuthenticated {
		return s.runUnauthenticated()
	}

	u, _ := ctrl.User()
	renderProfile(s.out, u, ctrl.Saving())

	for {
		cmd, arg, ok := s.prompt(ViewProfile)
		if !ok {
			return ""
		}
		switch cmd {
		case "help":
			fmt.Fprintln(s.out, "Available commands: help, show, name <text>, bio <text>, update, logout, home, exit")
		case "show":
			u, _ := ctrl.User()
			renderProfile(s.out, u, ctrl.Saving())
		case "name":
			ctrl.SetDisplayName(arg)
		case "bio":
			ctrl.SetBio(arg)
		case "update":
			fmt.Fprintln(s.out, "Saving...")
			_ = ctrl.Update(ctx)
			s.saveSession()
		case "logout":
			if err := ctrl.Logout(ctx); err == nil {
				s.cfg.Session.Clear()
				s.saveSession()
			}
			if s.next != "" {
				return s.next
			}
		case "home":
			return HomeRoute
		case "exit", "quit":
			fmt.Fprintln(s.out, "Bye")
			return ""
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (s *Shell) runUnauthenticated() string {
	renderUnauthenticated(s.out)

	for {
		cmd, _, ok := s.prompt(ViewProfile)
		if !ok {
			return ""
		}
		switch cmd {
		case "home":
			return HomeRoute
		case "exit", "quit":
			fmt.Fprintln(s.out, "Bye")
			return ""
		default:
			fmt.Fprintln(s.out, "Not logged in. Available commands: home, exit")
		}
	}
}
