package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sqlparrot/sqlparrot/internal/client/api"
	"github.com/sqlparrot/sqlparrot/internal/client/session"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

// stubPasswords makes getPassword return the given inputs in order.
func stubPasswords(t *testing.T, pws ...string) func() {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if i >= len(pws) {
			return nil, io.EOF
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	return func() { getPassword = orig }
}

func stubConfirm(t *testing.T, ok bool) func() {
	t.Helper()
	orig := getConfirmation
	getConfirmation = func(_ *bufio.Reader, _ string, _ io.Writer) (bool, error) { return ok, nil }
	return func() { getConfirmation = orig }
}

type fakePasswords struct {
	checkPw  string
	checkErr error

	setPw      string
	setConfirm string
	setErr     error

	changeCur     string
	changePw      string
	changeConfirm string
	changeErr     error

	removeCur string
	removeErr error

	skipCalled bool
	skipErr    error
}

func (f *fakePasswords) Check(_ context.Context, password string) error {
	f.checkPw = password
	return f.checkErr
}
func (f *fakePasswords) Set(_ context.Context, password, confirm string) error {
	f.setPw, f.setConfirm = password, confirm
	return f.setErr
}
func (f *fakePasswords) Change(_ context.Context, current, password, confirm string) error {
	f.changeCur, f.changePw, f.changeConfirm = current, password, confirm
	return f.changeErr
}
func (f *fakePasswords) Remove(_ context.Context, current string) error {
	f.removeCur = current
	return f.removeErr
}
func (f *fakePasswords) Skip(context.Context) error {
	f.skipCalled = true
	return f.skipErr
}

var _ session.PasswordService = (*fakePasswords)(nil)

func TestUnlock_PassesPasswordToService(t *testing.T) {
	f := &fakePasswords{}
	a := newTestApp(&fakeClient{})
	a.passwords = f

	restore := stubPasswords(t, "hunter2hunter2")
	defer restore()

	if err := a.Unlock(context.Background()); err != nil {
		t.Fatalf("Unlock err: %v", err)
	}
	if f.checkPw != "hunter2hunter2" {
		t.Fatalf("Check password mismatch: %q", f.checkPw)
	}
}

func TestUnlock_UnavailableFailsClosed(t *testing.T) {
	f := &fakePasswords{checkErr: api.ErrUnavailable}
	a := newTestApp(&fakeClient{})
	a.passwords = f

	restore := stubPasswords(t, "whatever1")
	defer restore()

	err := a.Unlock(context.Background())
	if !errors.Is(err, api.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if a.isUnlocked() {
		t.Fatalf("session must stay locked when the backend is unreachable")
	}
}

func TestLock_DropsTokenWhenProtected(t *testing.T) {
	c := &fakeClient{checkResp: models.AuthCheck{Authenticated: true, SessionToken: "tok-1"}}
	a := newTestApp(c)

	restore := stubPasswords(t, "correct-horse")
	defer restore()

	if err := a.Unlock(context.Background()); err != nil {
		t.Fatalf("Unlock err: %v", err)
	}
	if !a.isUnlocked() || !a.tokens.Held() {
		t.Fatalf("expected authenticated session holding a token")
	}

	if err := a.Lock(context.Background()); err != nil {
		t.Fatalf("Lock err: %v", err)
	}
	if a.isUnlocked() {
		t.Fatalf("expected locked session after Lock")
	}
	if a.tokens.Held() {
		t.Fatalf("expected token to be dropped on Lock")
	}
}

func TestLock_NothingToLockBehind(t *testing.T) {
	a := newTestApp(&fakeClient{statusResp: models.UnprotectedStatus()})
	if _, err := a.gate.Decide(context.Background()); err != nil {
		t.Fatalf("Decide err: %v", err)
	}

	if err := a.Lock(context.Background()); err != nil {
		t.Fatalf("Lock err: %v", err)
	}
	if !a.isUnlocked() {
		t.Fatalf("expected session to stay open without a configured password")
	}
}

func TestSkipProtection_AlreadyProtected(t *testing.T) {
	f := &fakePasswords{}
	a := newTestApp(&fakeClient{statusResp: models.PasswordStatus{
		Status: models.PasswordStatusSet, PasswordSet: true,
	}})
	if _, err := a.gate.Decide(context.Background()); err != nil {
		t.Fatalf("Decide err: %v", err)
	}
	a.passwords = f

	if err := a.SkipProtection(context.Background()); err != nil {
		t.Fatalf("SkipProtection err: %v", err)
	}
	if f.skipCalled {
		t.Fatalf("Skip must not be called when a password is configured")
	}
}

func TestSkipProtection_CallsService(t *testing.T) {
	f := &fakePasswords{}
	a := newTestApp(&fakeClient{statusResp: models.UnprotectedStatus()})
	if _, err := a.gate.Decide(context.Background()); err != nil {
		t.Fatalf("Decide err: %v", err)
	}
	a.passwords = f

	if err := a.SkipProtection(context.Background()); err != nil {
		t.Fatalf("SkipProtection err: %v", err)
	}
	if !f.skipCalled {
		t.Fatalf("expected Skip to reach the service")
	}
}
