package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	err   error
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool                   { return f.loggedIn }
func (f *fakeExec) Health(ctx context.Context) error   { return f.record("health") }
func (f *fakeExec) Info(ctx context.Context) error     { return f.record("info") }
func (f *fakeExec) Register(ctx context.Context) error { return f.record("register") }
func (f *fakeExec) Sessions(ctx context.Context) error { return f.record("sessions") }
func (f *fakeExec) Clear(ctx context.Context) error    { return f.record("clear") }
func (f *fakeExec) History(_ context.Context, id string) error {
	return f.record("history " + id)
}
func (f *fakeExec) Delete(_ context.Context, id string) error {
	return f.record("delete " + id)
}
func (f *fakeExec) Send(_ context.Context, id, text string) error {
	return f.record("send " + id + " " + text)
}
func (f *fakeExec) NewSession(ctx context.Context) error {
	return f.record("new")
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	input := strings.Join([]string{
		"help",
		"login",
		"new",
		"send s1 what is   a fever?",
		"history s1",
		"sessions",
		"delete s1",
		"clear",
		"health",
		"info",
		"",
		"logout",
		"exit",
		"sessions",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"login",
		"new",
		"send s1 what is a fever?",
		"history s1",
		"sessions",
		"delete s1",
		"clear",
		"health",
		"info",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UsageErrorsAndUnknown(t *testing.T) {
	out := captureOutput(t)

	input := "send s1\nhistory\ndelete\nfoobar\nquit\n"
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader(input)))

	assert.Empty(t, exec.calls)
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Usage: send <session_id> <text...>")
	assert.Contains(t, joined, "Usage: history <session_id>")
	assert.Contains(t, joined, "Usage: delete <session_id>")
	assert.Contains(t, joined, "Unknown command:foobar")
	assert.Contains(t, joined, "Bye!")
}

func TestRunREPL_PrintsCommandErrorsAndStopsOnEOF(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: errors.New("server unavailable")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("health")))

	assert.Equal(t, []string{"health"}, exec.calls)
	assert.Contains(t, strings.Join(*out, "\n"), "Error:server unavailable")
}
