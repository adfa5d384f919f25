package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanPublisher chan domain.Event

func (c chanPublisher) Publish(ev domain.Event) { c <- ev }

func (c chanPublisher) next(t *testing.T) domain.Event {
	t.Helper()
	select {
	case ev := <-c:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// fakeAuth blocks each login until the test releases it
type fakeAuth struct {
	gates map[string]chan error
}

func newFakeAuth(logins ...string) *fakeAuth {
	f := &fakeAuth{gates: make(map[string]chan error)}
	for _, l := range logins {
		f.gates[l] = make(chan error, 1)
	}
	return f
}

func (f *fakeAuth) Login(ctx context.Context, login, password string) (*domain.AuthResult, error) {
	gate, ok := f.gates[login]
	if !ok {
		return nil, domain.AuthError("login", domain.ErrAuthFailed)
	}
	if err := <-gate; err != nil {
		return nil, err
	}
	return &domain.AuthResult{Token: "tok-" + login, User: &domain.User{Slug: login}}, nil
}

func (f *fakeAuth) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	return &domain.AuthResult{Token: "tok-" + reg.Username, User: &domain.User{Slug: reg.Username}}, nil
}

func (f *fakeAuth) Me(ctx context.Context, token string) (*domain.User, error) {
	if token != "external" {
		return nil, domain.AuthError("me", domain.ErrAuthFailed)
	}
	return &domain.User{Slug: "ext"}, nil
}

func newTestService(auth domain.AuthClient) (*Service, chanPublisher) {
	events := make(chanPublisher, 16)
	return NewService(context.Background(), New("https://littlstar.com/api/v1/"), auth, events, nil), events
}

func TestService_Login(t *testing.T) {
	t.Run("success populates session", func(t *testing.T) {
		auth := newFakeAuth("ada")
		svc, events := newTestService(auth)

		id := svc.Login("ada", "pw")
		auth.gates["ada"] <- nil

		ev := events.next(t).(domain.LoginFinished)
		assert.Equal(t, id, ev.RequestID)
		require.NoError(t, ev.Err)
		assert.Equal(t, "ada", ev.User.Slug)
		assert.Equal(t, "tok-ada", svc.Session().Token())
		assert.Equal(t, "ada", svc.Session().User().Slug)
	})

	t.Run("failure leaves session untouched", func(t *testing.T) {
		svc, events := newTestService(newFakeAuth())

		svc.Login("nobody", "pw")

		ev := events.next(t).(domain.LoginFinished)
		assert.Nil(t, ev.User)
		assert.True(t, errors.Is(ev.Err, domain.ErrAuthFailed))
		assert.False(t, svc.Session().Authenticated())
		assert.Nil(t, svc.Session().User())
	})

	t.Run("empty credentials", func(t *testing.T) {
		svc, events := newTestService(newFakeAuth())
		svc.Login("", "")
		ev := events.next(t).(domain.LoginFinished)
		assert.Equal(t, domain.KindValidation, domain.KindOf(ev.Err))
	})

	t.Run("newer attempt completing first wins", func(t *testing.T) {
		auth := newFakeAuth("first", "second")
		svc, events := newTestService(auth)

		svc.Login("first", "pw")
		svc.Login("second", "pw")

		auth.gates["second"] <- nil
		ev := events.next(t).(domain.LoginFinished)
		assert.Equal(t, "second", ev.User.Slug)

		auth.gates["first"] <- nil
		ev = events.next(t).(domain.LoginFinished)
		assert.Equal(t, "first", ev.User.Slug, "superseded attempt still reports its own outcome")

		assert.Equal(t, "tok-second", svc.Session().Token())
	})

	t.Run("results apply in completion order", func(t *testing.T) {
		auth := newFakeAuth("first", "second")
		svc, events := newTestService(auth)

		svc.Login("first", "pw")
		svc.Login("second", "pw")

		auth.gates["first"] <- nil
		events.next(t)
		assert.Equal(t, "tok-first", svc.Session().Token())

		auth.gates["second"] <- nil
		events.next(t)
		assert.Equal(t, "tok-second", svc.Session().Token())
	})

	t.Run("logout fences in-flight attempts", func(t *testing.T) {
		auth := newFakeAuth("ada")
		svc, events := newTestService(auth)

		svc.Login("ada", "pw")
		svc.Logout()
		assert.IsType(t, domain.LoggedOut{}, events.next(t))

		auth.gates["ada"] <- nil
		ev := events.next(t).(domain.LoginFinished)
		require.NoError(t, ev.Err)
		assert.False(t, svc.Session().Authenticated())
	})
}

func TestService_Register(t *testing.T) {
	t.Run("mismatched confirmation", func(t *testing.T) {
		svc, events := newTestService(newFakeAuth())
		svc.Register(domain.Registration{Username: "ada", Email: "a@b.c", Password: "x", PasswordConfirmation: "y"})
		ev := events.next(t).(domain.LoginFinished)
		assert.Equal(t, domain.AttemptRegister, ev.Attempt)
		assert.Equal(t, domain.KindValidation, domain.KindOf(ev.Err))
		assert.False(t, svc.Session().Authenticated())
	})

	t.Run("success signs in", func(t *testing.T) {
		svc, events := newTestService(newFakeAuth())
		svc.Register(domain.Registration{Username: "ada", Email: "a@b.c", Password: "x", PasswordConfirmation: "x"})
		ev := events.next(t).(domain.LoginFinished)
		require.NoError(t, ev.Err)
		assert.Equal(t, "tok-ada", svc.Session().Token())
	})
}

func TestService_LoginExternal(t *testing.T) {
	svc, events := newTestService(newFakeAuth())

	svc.LoginExternal("external")
	ev := events.next(t).(domain.LoginFinished)
	require.NoError(t, ev.Err)
	assert.Equal(t, domain.AttemptExternal, ev.Attempt)
	assert.Equal(t, "external", svc.Session().Token())

	svc.LoginExternal("bogus")
	ev = events.next(t).(domain.LoginFinished)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(ev.Err))
	assert.Equal(t, "external", svc.Session().Token(), "failed attempt keeps previous session")
}

func TestService_CloseWaitsForAttempts(t *testing.T) {
	auth := newFakeAuth("ada")
	svc, events := newTestService(auth)

	id := svc.Login("ada", "secret")
	go func() {
		time.Sleep(20 * time.Millisecond)
		auth.gates["ada"] <- nil
	}()
	svc.Close()

	require.Len(t, events, 1, "outcome is published before Close returns")
	ev := (<-events).(domain.LoginFinished)
	assert.Equal(t, id, ev.RequestID)
	assert.NoError(t, ev.Err)
}

func TestSession_Restore(t *testing.T) {
	svc, _ := newTestService(newFakeAuth())
	svc.Restore("saved", &domain.User{Slug: "ada"})
	assert.True(t, svc.Session().Authenticated())

	u := svc.Session().User()
	u.Slug = "changed"
	assert.Equal(t, "ada", svc.Session().User().Slug, "User returns a copy")
}
