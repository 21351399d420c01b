package router

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Meta annotates a route.
type Meta struct {
	Title  string
	Icon   string
	Hidden bool
	// Public routes are reachable without a session. The zero value
	// requires authentication.
	Public bool
	// GuestOnly routes are for visitors without a session; a signed-in
	// user is sent to the home page instead. Implies Public.
	GuestOnly bool
}

// Route is one entry of the navigation table. Path uses gorilla/mux
// syntax, e.g. "/ledger/{id}".
type Route struct {
	Path     string
	Name     string
	View     string
	Redirect string
	Meta     Meta
}

// Target is a matched route together with the concrete location asked for.
type Target struct {
	Route Route
	// FullPath is the path including its query string.
	FullPath string
	Params   map[string]string
}

// Path returns FullPath without its query string.
func (t Target) Path() string {
	path, _, _ := strings.Cut(t.FullPath, "?")
	return path
}

// Query returns the parsed query string of FullPath.
func (t Target) Query() url.Values {
	_, raw, _ := strings.Cut(t.FullPath, "?")
	q, _ := url.ParseQuery(raw)
	return q
}

// Route names of the default table.
const (
	NameLogin        = "Login"
	NameRegister     = "Register"
	NameHome         = "Home"
	NameLedger       = "Ledger"
	NameLedgerDetail = "LedgerDetail"
	NameIncome       = "Income"
	NameExpense      = "Expense"
	NameFamily       = "Family"
	NameBankCard     = "BankCard"
	NameMessage      = "Message"
	NameSetting      = "Setting"
	NameNotFound     = "NotFound"
)

// DefaultRoutes returns the EasyNote page table. The catch-all entry must
// stay last.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/login", Name: NameLogin, View: "auth/Login", Meta: Meta{Title: "登录", Public: true, GuestOnly: true}},
		{Path: "/register", Name: NameRegister, View: "auth/Register", Meta: Meta{Title: "注册", Public: true, GuestOnly: true}},
		{Path: "/", Redirect: "/home"},
		{Path: "/home", Name: NameHome, View: "home/Index", Meta: Meta{Title: "首页", Icon: "HomeFilled"}},
		{Path: "/ledger", Name: NameLedger, View: "ledger/Index", Meta: Meta{Title: "账本管理", Icon: "Notebook"}},
		{Path: "/ledger/{id}", Name: NameLedgerDetail, View: "ledger/Detail", Meta: Meta{Title: "账本详情", Hidden: true}},
		{Path: "/income", Name: NameIncome, View: "income/Index", Meta: Meta{Title: "收入管理", Icon: "TrendCharts"}},
		{Path: "/expense", Name: NameExpense, View: "expense/Index", Meta: Meta{Title: "支出管理", Icon: "ShoppingCart"}},
		{Path: "/family", Name: NameFamily, View: "family/Index", Meta: Meta{Title: "家庭管理", Icon: "UserFilled"}},
		{Path: "/bankcard", Name: NameBankCard, View: "bankcard/Index", Meta: Meta{Title: "银行卡管理", Icon: "CreditCard"}},
		{Path: "/message", Name: NameMessage, View: "message/Index", Meta: Meta{Title: "消息通知", Icon: "Bell", Hidden: true}},
		{Path: "/setting", Name: NameSetting, View: "setting/Index", Meta: Meta{Title: "个人设置", Icon: "Setting"}},
		{Path: "/{pathMatch:.*}", Name: NameNotFound, View: "auth/NotFound", Meta: Meta{Title: "404", Public: true}},
	}
}

var (
	ErrNoRoutes   = errors.New("route table is empty")
	ErrRouteBad   = errors.New("route path must start with /")
	ErrNoRoute    = errors.New("no route matches path")
	ErrNameExists = errors.New("duplicate route name")
)

// Table matches locations against a list of routes, first match wins.
type Table struct {
	mux    *mux.Router
	routes []Route
	byMux  map[*mux.Route]Route
	byName map[string]Route
}

// NewTable compiles routes.
func NewTable(routes []Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}

	t := &Table{
		mux:    mux.NewRouter(),
		routes: append([]Route(nil), routes...),
		byMux:  make(map[*mux.Route]Route, len(routes)),
		byName: make(map[string]Route, len(routes)),
	}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: %q", ErrRouteBad, r.Path)
		}
		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return nil, fmt.Errorf("%w: %q", ErrNameExists, r.Name)
			}
			t.byName[r.Name] = r
		}
		mr := t.mux.Path(r.Path)
		if err := mr.GetError(); err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Path, err)
		}
		t.byMux[mr] = r
	}
	return t, nil
}

// Match resolves fullPath, which may carry a query string.
func (t *Table) Match(fullPath string) (Target, bool) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return Target{}, false
	}
	if u.Path == "" {
		u.Path = "/"
	}

	req := &http.Request{Method: http.MethodGet, URL: u}
	var m mux.RouteMatch
	if !t.mux.Match(req, &m) || m.Route == nil {
		return Target{}, false
	}
	route, ok := t.byMux[m.Route]
	if !ok {
		return Target{}, false
	}
	return Target{Route: route, FullPath: u.RequestURI(), Params: m.Vars}, true
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Routes returns a copy of the table.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Menu returns the routes shown in the navigation menu: those with an
// icon that are not hidden.
func (t *Table) Menu() []Route {
	var menu []Route
	for _, r := range t.routes {
		if r.Meta.Icon != "" && !r.Meta.Hidden {
			menu = append(menu, r)
		}
	}
	return menu
}
