package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Health(ctx context.Context) error
	Info(ctx context.Context) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	NewSession(ctx context.Context) error
	Send(ctx context.Context, sessionID, text string) error
	History(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) error
	Delete(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
//	Always:
//	  - help, health, info, exit | quit
//	Not logged in:
//	  - register, login
//	Logged in:
//	  - new (prints a fresh session id)
//	  - send <session_id> <text...>
//	  - history <session_id>
//	  - sessions
//	  - delete <session_id>
//	  - clear
//	  - logout
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("medchat %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || len(line) == 0) {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: new, send <session_id> <text>, history <session_id>, sessions, delete <session_id>, clear, logout, health, info, exit")
			} else {
				printlnFn("Available commands: register, login, health, info, exit")
			}

		case "health":
			cmdErr = a.Health(ctx)

		case "info":
			cmdErr = a.Info(ctx)

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "new":
			cmdErr = a.NewSession(ctx)

		case "send":
			if len(args) < 2 {
				printlnFn("Usage: send <session_id> <text...>")
				continue
			}
			cmdErr = a.Send(ctx, args[0], strings.Join(args[1:], " "))

		case "history":
			if len(args) != 1 {
				printlnFn("Usage: history <session_id>")
				continue
			}
			cmdErr = a.History(ctx, args[0])

		case "sessions":
			cmdErr = a.Sessions(ctx)

		case "delete":
			if len(args) != 1 {
				printlnFn("Usage: delete <session_id>")
				continue
			}
			cmdErr = a.Delete(ctx, args[0])

		case "clear":
			cmdErr = a.Clear(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}
