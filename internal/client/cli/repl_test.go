package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) isLoggedIn() bool { return s.loggedIn }

func (s *stubExec) Register(ctx context.Context) error {
	s.calls = append(s.calls, "register")
	return nil
}

func (s *stubExec) Login(ctx context.Context) error {
	s.calls = append(s.calls, "login")
	s.loggedIn = true
	return nil
}

func (s *stubExec) Status(ctx context.Context) error {
	s.calls = append(s.calls, "status")
	return nil
}

func (s *stubExec) Logout(ctx context.Context) error {
	s.calls = append(s.calls, "logout")
	s.loggedIn = false
	return nil
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	orig := printlnFn
	t.Cleanup(func() { printlnFn = orig })

	var lines []string
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	return &lines
}

func TestREPL_DispatchesCommands(t *testing.T) {
	lines := captureOutput(t)
	s := &stubExec{}
	scanner := bufio.NewScanner(strings.NewReader("login\nstatus\nlogout\nexit\n"))

	runREPL(context.Background(), s, func() string { return "test" }, scanner)

	assert.Equal(t, []string{"login", "status", "logout"}, s.calls)
	assert.Contains(t, strings.Join(*lines, ""), "Bye!")
}

func TestREPL_UnknownCommand(t *testing.T) {
	lines := captureOutput(t)
	s := &stubExec{}
	scanner := bufio.NewScanner(strings.NewReader("frobnicate\n"))

	runREPL(context.Background(), s, func() string { return "test" }, scanner)

	assert.Empty(t, s.calls)
	assert.Contains(t, strings.Join(*lines, ""), "Unknown command: frobnicate")
}

func TestREPL_HelpDependsOnLoginState(t *testing.T) {
	lines := captureOutput(t)
	s := &stubExec{}
	scanner := bufio.NewScanner(strings.NewReader("help\nlogin\nhelp\n"))

	runREPL(context.Background(), s, func() string { return "test" }, scanner)

	out := strings.Join(*lines, "")
	assert.Contains(t, out, "register, login")
	assert.Contains(t, out, "status, logout")
}
