package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	isProtected() bool

	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	SetupPassword(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	RemovePassword(ctx context.Context) error
	SkipProtection(ctx context.Context) error

	Status(ctx context.Context) error
	Databases(ctx context.Context) error

	ListGroups(ctx context.Context) error
	CreateGroup(ctx context.Context) error
	EditGroup(ctx context.Context) error
	DeleteGroup(ctx context.Context) error

	ListSnapshots(ctx context.Context) error
	CreateSnapshot(ctx context.Context) error
	DeleteSnapshot(ctx context.Context) error
	Rollback(ctx context.Context) error
	Verify(ctx context.Context) error

	ShowHistory(ctx context.Context, args []string) error
	ClearHistory(ctx context.Context) error
	TrimHistory(ctx context.Context) error

	ShowSettings(ctx context.Context) error
	EditSettings(ctx context.Context) error

	ShowConnection(ctx context.Context) error
	TestConnection(ctx context.Context) error
	SaveConnection(ctx context.Context) error

	SetTheme(name string) error
}

// lockedCommands are the only commands accepted while the session is locked.
var lockedCommands = map[string]struct{}{
	"help": {}, "status": {}, "unlock": {}, "theme": {}, "exit": {}, "quit": {},
}

// runREPL starts a simple read-eval-print loop for the SQL Parrot shell.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Locked:
//	  - help           show available commands
//	  - status         protection status and backend health
//	  - unlock         enter the UI password
//	  - theme [name]   show or switch the colour theme
//	  - exit | quit    leave the program
//
//	Unlocked:
//	  - databases, groups, group <create|edit|delete>
//	  - snapshots, snapshot <create|delete>, rollback, verify
//	  - history [n], history <clear|trim>
//	  - settings, settings edit
//	  - connection, connection <test|save>
//	  - set-password, change-password, remove-password, skip, lock
//	  - status, theme [name], exit | quit
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("parrot %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		if !a.isUnlocked() {
			if _, ok := lockedCommands[cmd]; !ok {
				printlnFn("Locked. Use 'unlock' to enter the UI password.")
				continue
			}
		}

		switch cmd {
		case "help":
			printHelp(a)

		case "status":
			_ = a.Status(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "lock":
			_ = a.Lock(ctx)

		case "set-password":
			_ = a.SetupPassword(ctx)

		case "change-password":
			_ = a.ChangePassword(ctx)

		case "remove-password":
			_ = a.RemovePassword(ctx)

		case "skip":
			_ = a.SkipProtection(ctx)

		case "db", "databases":
			_ = a.Databases(ctx)

		case "groups":
			_ = a.ListGroups(ctx)

		case "group":
			if len(args) == 0 {
				printlnFn("Usage: group <create|edit|delete>")
				continue
			}
			switch args[0] {
			case "create":
				_ = a.CreateGroup(ctx)
			case "edit":
				_ = a.EditGroup(ctx)
			case "delete":
				_ = a.DeleteGroup(ctx)
			default:
				printlnFn("Usage: group <create|edit|delete>")
			}

		case "snapshots":
			_ = a.ListSnapshots(ctx)

		case "snapshot":
			if len(args) == 0 {
				printlnFn("Usage: snapshot <create|delete>")
				continue
			}
			switch args[0] {
			case "create":
				_ = a.CreateSnapshot(ctx)
			case "delete":
				_ = a.DeleteSnapshot(ctx)
			default:
				printlnFn("Usage: snapshot <create|delete>")
			}

		case "rollback":
			_ = a.Rollback(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "history":
			if len(args) > 0 && args[0] == "clear" {
				_ = a.ClearHistory(ctx)
				continue
			}
			if len(args) > 0 && args[0] == "trim" {
				_ = a.TrimHistory(ctx)
				continue
			}
			_ = a.ShowHistory(ctx, args)

		case "settings":
			if len(args) > 0 && args[0] == "edit" {
				_ = a.EditSettings(ctx)
				continue
			}
			_ = a.ShowSettings(ctx)

		case "connection":
			if len(args) > 0 && args[0] == "test" {
				_ = a.TestConnection(ctx)
				continue
			}
			if len(args) > 0 && args[0] == "save" {
				_ = a.SaveConnection(ctx)
				continue
			}
			_ = a.ShowConnection(ctx)

		case "theme":
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			_ = a.SetTheme(name)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func printHelp(a execIface) {
	if !a.isUnlocked() {
		printlnFn("Available commands: unlock, status, theme [name], exit")
		return
	}
	printlnFn("Available commands:")
	printlnFn("  databases                    list server databases")
	printlnFn("  groups | group <create|edit|delete>")
	printlnFn("  snapshots | snapshot <create|delete>")
	printlnFn("  rollback | verify")
	printlnFn("  history [n] | history <clear|trim>")
	printlnFn("  settings [edit] | connection [test|save]")
	printlnFn("  status | theme [name] | exit")
	if a.isProtected() {
		printlnFn("  change-password | remove-password | lock")
	} else {
		printlnFn("  set-password | skip")
	}
}
