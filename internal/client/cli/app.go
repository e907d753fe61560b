// Package cli is the interactive terminal client: a small REPL over the
// session manager for logging in, inspecting the session, and logging out.
package cli

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/tokenkeeper/internal/client/api"
	"github.com/dmitrijs2005/tokenkeeper/internal/client/config"
	"github.com/dmitrijs2005/tokenkeeper/internal/client/session"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
)

type App struct {
	config  *config.Config
	client  api.Client
	session *session.Manager
	reader  *bufio.Reader
}

func NewApp(c *config.Config) *App {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	client := api.NewHTTPClient(c.ServerAddress)
	mgr := session.NewManager(client, session.NewMemoryStore(), logger, c.SessionCheckInterval)

	return &App{
		config:  c,
		client:  client,
		session: mgr,
		reader:  bufio.NewReader(os.Stdin),
	}
}

// Run drives the session manager in the background and hands the terminal
// to the REPL until the user exits or the context ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.session.Run(ctx)

	printlnFn("TokenKeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.State() != session.StateUnauthenticated
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "logged in"
	}
	return "logged out"
}

func (a *App) Register(ctx context.Context) error {
	login, err := GetSimpleText(a.reader, "Enter user name", os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := a.session.Register(ctx, login, string(password)); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			printlnFn("Server unavailable, try again later")
		} else {
			printlnFn(err.Error())
		}
		return err
	}

	printlnFn("Registered! You can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, err := GetSimpleText(a.reader, "Enter user name", os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := a.session.Login(ctx, login, string(password)); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			printlnFn("Invalid user name or password")
		} else {
			printlnFn(err.Error())
		}
		return err
	}

	printlnFn("Success!")
	return nil
}

// Status reports the session state and, when a token is usable, asks the
// issuer who it belongs to.
func (a *App) Status(ctx context.Context) error {
	if !a.session.IsSessionUsable() {
		printlnFn("No usable session")
		return nil
	}

	id, err := a.client.Validate(ctx, a.session.AccessToken())
	if err != nil {
		printlnFn("Session check failed:", err.Error())
		return err
	}

	printlnFn("Logged in as", id.SubjectID, "with role", id.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out")
	return nil
}
