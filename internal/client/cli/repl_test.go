package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	unlocked  bool
	protected bool

	calls []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isUnlocked() bool  { return f.unlocked }
func (f *fakeExec) isProtected() bool { return f.protected }

func (f *fakeExec) Unlock(ctx context.Context) error {
	f.unlocked = true
	return f.record("unlock")
}
func (f *fakeExec) Lock(ctx context.Context) error {
	f.unlocked = false
	return f.record("lock")
}
func (f *fakeExec) SetupPassword(ctx context.Context) error  { return f.record("set-password") }
func (f *fakeExec) ChangePassword(ctx context.Context) error { return f.record("change-password") }
func (f *fakeExec) RemovePassword(ctx context.Context) error { return f.record("remove-password") }
func (f *fakeExec) SkipProtection(ctx context.Context) error { return f.record("skip") }

func (f *fakeExec) Status(ctx context.Context) error    { return f.record("status") }
func (f *fakeExec) Databases(ctx context.Context) error { return f.record("databases") }

func (f *fakeExec) ListGroups(ctx context.Context) error  { return f.record("groups") }
func (f *fakeExec) CreateGroup(ctx context.Context) error { return f.record("group create") }
func (f *fakeExec) EditGroup(ctx context.Context) error   { return f.record("group edit") }
func (f *fakeExec) DeleteGroup(ctx context.Context) error { return f.record("group delete") }

func (f *fakeExec) ListSnapshots(ctx context.Context) error  { return f.record("snapshots") }
func (f *fakeExec) CreateSnapshot(ctx context.Context) error { return f.record("snapshot create") }
func (f *fakeExec) DeleteSnapshot(ctx context.Context) error { return f.record("snapshot delete") }
func (f *fakeExec) Rollback(ctx context.Context) error       { return f.record("rollback") }
func (f *fakeExec) Verify(ctx context.Context) error         { return f.record("verify") }

func (f *fakeExec) ShowHistory(ctx context.Context, args []string) error {
	return f.record("history")
}
func (f *fakeExec) ClearHistory(ctx context.Context) error { return f.record("history clear") }
func (f *fakeExec) TrimHistory(ctx context.Context) error  { return f.record("history trim") }

func (f *fakeExec) ShowSettings(ctx context.Context) error { return f.record("settings") }
func (f *fakeExec) EditSettings(ctx context.Context) error { return f.record("settings edit") }

func (f *fakeExec) ShowConnection(ctx context.Context) error { return f.record("connection") }
func (f *fakeExec) TestConnection(ctx context.Context) error { return f.record("connection test") }
func (f *fakeExec) SaveConnection(ctx context.Context) error { return f.record("connection save") }

func (f *fakeExec) SetTheme(name string) error { return f.record("theme " + name) }

func TestRunREPL_UnlockFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"unlock",
		"help",
		"groups",
		"group create",
		"snapshots",
		"snapshot create",
		"rollback",
		"verify",
		"history 10",
		"history trim",
		"settings edit",
		"connection test",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{unlocked: false, protected: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{
		"unlock", "groups", "group create", "snapshots", "snapshot create",
		"rollback", "verify", "history", "history trim", "settings edit", "connection test",
	}
	if len(exec.calls) < len(wantOrder) {
		t.Fatalf("few calls: %+v", exec.calls)
	}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
}

func TestRunREPL_LockedGating(t *testing.T) {
	var lines []string
	origPrint := printlnFn
	printlnFn = func(args ...any) (int, error) {
		lines = append(lines, fmt.Sprint(args...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"groups",
		"snapshot create",
		"history clear",
		"status",
		"quit",
	}, "\n"))

	exec := &fakeExec{unlocked: false, protected: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "locked" }, sc)

	for _, c := range exec.calls {
		if c != "status" {
			t.Fatalf("protected command ran while locked: %v", exec.calls)
		}
	}

	blocked := 0
	for _, l := range lines {
		if strings.Contains(l, "Locked. Use 'unlock'") {
			blocked++
		}
	}
	if blocked != 3 {
		t.Fatalf("want 3 locked notices, got %d (%v)", blocked, lines)
	}
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("group\nsnapshot bogus\nquit\n")
	exec := &fakeExec{unlocked: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_ThemePassesArgument(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("theme dark\ntheme\nexit\n")
	exec := &fakeExec{unlocked: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	want := []string{"theme dark", "theme "}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls: %v", exec.calls)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Fatalf("call %d: got %q want %q", i, exec.calls[i], want[i])
		}
	}
}
