package router

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easynote/easynote-go/session"
)

type authFlag struct{ v atomic.Bool }

func (a *authFlag) IsAuthenticated() bool { return a.v.Load() }

type fakeEvents struct {
	mu   sync.Mutex
	subs []func(session.Event)
}

func (f *fakeEvents) Subscribe(fn func(session.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	idx := len(f.subs) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subs[idx] = nil
	}
}

func (f *fakeEvents) emit(e session.Event) {
	f.mu.Lock()
	subs := slices.Clone(f.subs)
	f.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(e)
		}
	}
}

func newRouter(t *testing.T, auth AuthState, opts ...Option) *Router {
	t.Helper()
	r, err := New(append([]Option{WithAuthState(auth)}, opts...)...)
	require.NoError(t, err)
	return r
}

func TestGuard_Decide(t *testing.T) {
	g := DefaultGuard()
	protected := Target{Route: Route{Name: NameLedger}, FullPath: "/ledger"}
	guest := Target{Route: Route{Name: NameLogin, Meta: Meta{Public: true, GuestOnly: true}}, FullPath: "/login"}
	public := Target{Route: Route{Name: NameNotFound, Meta: Meta{Public: true}}, FullPath: "/missing"}

	tests := []struct {
		name          string
		target        Target
		authenticated bool
		want          Decision
	}{
		{name: "protected, logged out", target: protected, authenticated: false, want: Decision{Redirect: "/login?redirect=/ledger"}},
		{name: "protected, logged in", target: protected, authenticated: true, want: Decision{}},
		{name: "guest only, logged in", target: guest, authenticated: true, want: Decision{Redirect: "/home"}},
		{name: "guest only, logged out", target: guest, authenticated: false, want: Decision{}},
		{name: "public, logged in", target: public, authenticated: true, want: Decision{}},
		{name: "public, logged out", target: public, authenticated: false, want: Decision{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := g.Decide(tc.target, tc.authenticated)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Redirect == "", got.Proceed())
		})
	}

	t.Run("return location keeps its query", func(t *testing.T) {
		target := Target{FullPath: "/expense?ledgerId=3&pageNum=2"}
		got := g.Decide(target, false)
		assert.Equal(t, "/login?redirect=/expense%3FledgerId%3D3%26pageNum%3D2", got.Redirect)
	})

	t.Run("zero guard uses defaults", func(t *testing.T) {
		assert.Equal(t, "/home", Guard{}.Decide(guest, true).Redirect)
	})
}

func TestTable(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	require.NoError(t, err)

	tests := []struct {
		path     string
		wantName string
		params   map[string]string
	}{
		{path: "/login", wantName: NameLogin},
		{path: "/login?redirect=/ledger", wantName: NameLogin},
		{path: "/home", wantName: NameHome},
		{path: "/ledger", wantName: NameLedger},
		{path: "/ledger/42", wantName: NameLedgerDetail, params: map[string]string{"id": "42"}},
		{path: "/setting", wantName: NameSetting},
		{path: "/nope/deeper", wantName: NameNotFound, params: map[string]string{"pathMatch": "nope/deeper"}},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			target, ok := table.Match(tc.path)
			require.True(t, ok)
			assert.Equal(t, tc.wantName, target.Route.Name)
			assert.Equal(t, tc.path, target.FullPath)
			if tc.params != nil {
				assert.Equal(t, tc.params, target.Params)
			}
		})
	}

	root, ok := table.Match("/")
	require.True(t, ok)
	assert.Equal(t, "/home", root.Route.Redirect)

	q, ok := table.Match("/login?redirect=/ledger")
	require.True(t, ok)
	assert.Equal(t, "/login", q.Path())
	assert.Equal(t, "/ledger", q.Query().Get(RedirectParam))

	var menu []string
	for _, r := range table.Menu() {
		menu = append(menu, r.Name)
	}
	want := []string{NameHome, NameLedger, NameIncome, NameExpense, NameFamily, NameBankCard, NameSetting}
	if diff := cmp.Diff(want, menu); diff != "" {
		t.Errorf("menu mismatch (-want +got):\n%s", diff)
	}

	r, ok := table.Lookup(NameLedgerDetail)
	require.True(t, ok)
	assert.True(t, r.Meta.Hidden)
	assert.Len(t, table.Routes(), len(DefaultRoutes()))
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable(nil)
	assert.ErrorIs(t, err, ErrNoRoutes)

	_, err = NewTable([]Route{{Path: "home"}})
	assert.ErrorIs(t, err, ErrRouteBad)

	_, err = NewTable([]Route{{Path: "/a", Name: "x"}, {Path: "/b", Name: "x"}})
	assert.ErrorIs(t, err, ErrNameExists)

	small, err := NewTable([]Route{{Path: "/only"}})
	require.NoError(t, err)
	_, ok := small.Match("/other")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrAuthStateNil)

	auth := &authFlag{}
	for name, opt := range map[string]Option{
		"nil title":   WithTitleSetter(nil),
		"nil logger":  WithLogger(nil),
		"nil hook":    WithNavigationHook(nil),
		"zero hops":   WithMaxHops(0),
		"empty table": WithRoutes(nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(WithAuthState(auth), opt)
			assert.Error(t, err)
		})
	}
}

func TestRouter_Push(t *testing.T) {
	ctx := context.Background()

	t.Run("logged out visitor is sent to login", func(t *testing.T) {
		r := newRouter(t, &authFlag{})
		target, err := r.Push(ctx, "/ledger")
		require.NoError(t, err)
		assert.Equal(t, "/login?redirect=/ledger", target.FullPath)
		assert.Equal(t, NameLogin, r.Current().Route.Name)
		assert.Equal(t, "登录 - EasyNote", r.Title())
	})

	t.Run("logged in user reaches the page", func(t *testing.T) {
		auth := &authFlag{}
		auth.v.Store(true)
		r := newRouter(t, auth)

		target, err := r.Push(ctx, "/ledger/3")
		require.NoError(t, err)
		assert.Equal(t, NameLedgerDetail, target.Route.Name)
		assert.Equal(t, "3", target.Params["id"])
		assert.Equal(t, "账本详情 - EasyNote", r.Title())
	})

	t.Run("logged in user is kept away from login", func(t *testing.T) {
		auth := &authFlag{}
		auth.v.Store(true)
		r := newRouter(t, auth)

		target, err := r.Push(ctx, "/register")
		require.NoError(t, err)
		assert.Equal(t, "/home", target.FullPath)
	})

	t.Run("root redirects through home", func(t *testing.T) {
		r := newRouter(t, &authFlag{})
		target, err := r.Push(ctx, "/")
		require.NoError(t, err)
		assert.Equal(t, "/login?redirect=/home", target.FullPath)
	})

	t.Run("unknown pages are public", func(t *testing.T) {
		r := newRouter(t, &authFlag{})
		target, err := r.Push(ctx, "/missing")
		require.NoError(t, err)
		assert.Equal(t, NameNotFound, target.Route.Name)
		assert.Equal(t, "404 - EasyNote", r.Title())
	})

	t.Run("logged in user still sees the 404 page", func(t *testing.T) {
		auth := &authFlag{}
		auth.v.Store(true)
		r := newRouter(t, auth)

		target, err := r.Push(ctx, "/missing")
		require.NoError(t, err)
		assert.Equal(t, NameNotFound, target.Route.Name)
		assert.Equal(t, "/missing", target.FullPath)
		assert.Equal(t, "404 - EasyNote", r.Title())
	})

	t.Run("titles go to the setter", func(t *testing.T) {
		var titles []string
		r := newRouter(t, &authFlag{}, WithTitleSetter(TitleSetterFunc(func(s string) { titles = append(titles, s) })))
		_, err := r.Push(ctx, "/register")
		require.NoError(t, err)
		assert.Equal(t, []string{"注册 - EasyNote"}, titles)
	})

	t.Run("same location is a no-op", func(t *testing.T) {
		var navigations int
		r := newRouter(t, &authFlag{}, WithNavigationHook(func(Target, Target) { navigations++ }))

		for range 3 {
			_, err := r.Push(ctx, "/login")
			require.NoError(t, err)
		}
		assert.Equal(t, 1, navigations)
	})

	t.Run("redirect loops are bounded", func(t *testing.T) {
		r := newRouter(t, &authFlag{}, WithRoutes([]Route{
			{Path: "/a", Redirect: "/b"},
			{Path: "/b", Redirect: "/a"},
		}), WithMaxHops(3))

		_, err := r.Push(ctx, "/a")
		assert.ErrorIs(t, err, ErrRedirectLoop)
		assert.Equal(t, "", r.Current().FullPath)
	})

	t.Run("no route", func(t *testing.T) {
		r := newRouter(t, &authFlag{}, WithRoutes([]Route{{Path: "/only", Meta: Meta{Public: true}}}))
		_, err := r.Push(ctx, "/else")
		assert.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("canceled context", func(t *testing.T) {
		r := newRouter(t, &authFlag{})
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.Push(canceled, "/login")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestRouter_Resolve(t *testing.T) {
	r := newRouter(t, &authFlag{})

	target, err := r.Resolve("/expense", false)
	require.NoError(t, err)
	assert.Equal(t, "/login?redirect=/expense", target.FullPath)

	target, err = r.Resolve("/expense", true)
	require.NoError(t, err)
	assert.Equal(t, "/expense", target.FullPath)

	assert.Equal(t, "", r.Current().FullPath, "resolve never navigates")
}

func TestRouter_Watch(t *testing.T) {
	ctx := context.Background()
	auth := &authFlag{}
	auth.v.Store(true)

	var navigations []string
	r := newRouter(t, auth, WithNavigationHook(func(_, to Target) { navigations = append(navigations, to.FullPath) }))
	events := &fakeEvents{}
	cancel := r.Watch(events)

	_, err := r.Push(ctx, "/ledger")
	require.NoError(t, err)

	auth.v.Store(false)
	events.emit(session.Event{Reason: session.ReasonInvalidated})
	events.emit(session.Event{Reason: session.ReasonLogout})

	assert.Equal(t, []string{"/ledger", "/login"}, navigations, "duplicate clears navigate once")

	cancel()
	auth.v.Store(true)
	_, err = r.Push(ctx, "/home")
	require.NoError(t, err)
	auth.v.Store(false)
	events.emit(session.Event{Reason: session.ReasonLogout})
	assert.Equal(t, "/home", r.Current().FullPath)
}

func TestRouter_WatchStore(t *testing.T) {
	ctx := context.Background()
	store, err := session.New(ctx)
	require.NoError(t, err)

	r := newRouter(t, store)
	defer r.Watch(store)()

	_, err = r.Push(ctx, "/ledger")
	require.NoError(t, err)
	require.Equal(t, "/login?redirect=/ledger", r.Current().FullPath)

	store.Clear(ctx, session.ReasonLogout)
	assert.Equal(t, "/login", r.Current().FullPath)
}

func TestPageTitle(t *testing.T) {
	assert.Equal(t, "首页 - EasyNote", PageTitle("首页"))
	assert.Equal(t, "简记 - EasyNote", PageTitle(""))
}
