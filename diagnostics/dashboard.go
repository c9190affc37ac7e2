// Copyright 2025 The Nancy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package diagnostics

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nancyfx/nancy"
	"github.com/nancyfx/nancy/binding"
	"github.com/nancyfx/nancy/views"
)

//go:embed templates/*.html
var templates embed.FS

// Authentication outcomes reported to an [AuthObserver].
const (
	OutcomeLoginSucceeded  = "login_succeeded"
	OutcomeLoginFailed     = "login_failed"
	OutcomeSessionValid    = "session_valid"
	OutcomeSessionRejected = "session_rejected"
)

const (
	defaultBasePath   = "/_Nancy"
	defaultCookieName = "__ncd"
	defaultTimeout    = 15 * time.Minute

	sessionCookieItem = "diagnostics.cookie"
)

// AuthObserver is told the outcome of every login attempt and session
// check.
type AuthObserver interface {
	ObserveAuth(outcome string)
}

// Option configures a [Dashboard].
type Option func(*options)

type options struct {
	basePath   string
	cookieName string
	timeout    time.Duration
	crypto     *Cryptography
	serializer Serializer
	logger     *slog.Logger
	info       func() nancy.Info
	observer   AuthObserver
	now        func() time.Time
	engineOpts []nancy.Option
}

// WithBasePath sets the path the dashboard is mounted at. It scopes the
// cookie and prefixes links. The default is "/_Nancy".
func WithBasePath(p string) Option {
	return func(o *options) { o.basePath = p }
}

// WithCookieName sets the session cookie name. The default is "__ncd".
func WithCookieName(name string) Option {
	return func(o *options) { o.cookieName = name }
}

// WithSlidingTimeout sets how long a session stays valid after its last
// request. The default is 15 minutes.
func WithSlidingTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCryptography sets the cookie encryption and signing. The default
// uses random keys.
func WithCryptography(c *Cryptography) Option {
	return func(o *options) { o.crypto = c }
}

// WithSerializer sets the session serializer. The default is MessagePack.
func WithSerializer(s Serializer) Option {
	return func(o *options) { o.serializer = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInfo sets the source of the information pages, usually the
// application engine's Info method.
func WithInfo(f func() nancy.Info) Option {
	return func(o *options) { o.info = f }
}

// WithObserver sets the authentication observer.
func WithObserver(obs AuthObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEngineOptions passes options to the dashboard's own engine, such as
// a tracer provider or metrics recorder.
func WithEngineOptions(opts ...nancy.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// FromSettings returns options for s. A passphrase in s selects
// passphrase derived keys, so sessions survive restarts.
func FromSettings(s nancy.DiagnosticsSettings) ([]Option, error) {
	opts := []Option{
		WithBasePath(s.Path),
		WithCookieName(s.CookieName),
		WithSlidingTimeout(s.SlidingTimeout),
	}
	if s.Passphrase != "" {
		c, err := NewCryptography(PassphraseKeyGenerator{Passphrase: s.Passphrase, Salt: []byte(s.Salt)})
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCryptography(c))
	}
	return opts, nil
}

// Dashboard serves the diagnostics pages behind the session gate.
type Dashboard struct {
	gate     *Gate
	engine   *nancy.Engine
	base     string
	logger   *slog.Logger
	info     func() nancy.Info
	observer AuthObserver
}

type page struct {
	Base   string
	Failed bool
	Info   nancy.Info
}

// New creates a dashboard protected by password. An empty password
// disables the dashboard.
func New(password string, opts ...Option) (*Dashboard, error) {
	o := options{
		basePath:   defaultBasePath,
		cookieName: defaultCookieName,
		timeout:    defaultTimeout,
		serializer: MsgpackSerializer{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.cookieName == "" {
		o.cookieName = defaultCookieName
	}
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}
	if o.crypto == nil {
		c, err := RandomCryptography()
		if err != nil {
			return nil, err
		}
		o.crypto = c
	}
	base := "/" + strings.Trim(o.basePath, "/")
	if base == "/" {
		base = ""
	}

	renderer, err := views.New(templates, views.WithLocations("templates"), views.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	engine, err := nancy.New(append([]nancy.Option{
		nancy.WithLogger(o.logger),
		nancy.WithViews(renderer),
	}, o.engineOpts...)...)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		gate: &Gate{
			password:   password,
			cookieName: o.cookieName,
			cookiePath: base + "/",
			timeout:    o.timeout,
			crypto:     o.crypto,
			serializer: o.serializer,
			now:        o.now,
		},
		engine:   engine,
		base:     base,
		logger:   o.logger,
		info:     o.info,
		observer: o.observer,
	}
	if d.info == nil {
		d.info = engine.Info
	}

	engine.Before(d.authenticate)
	engine.After(d.refresh)
	if err := engine.Register(d.module()); err != nil {
		return nil, err
	}
	engine.Freeze()
	return d, nil
}

// MustNew is like New but panics on error.
func MustNew(password string, opts ...Option) *Dashboard {
	d, err := New(password, opts...)
	if err != nil {
		panic("diagnostics.MustNew: " + err.Error())
	}
	return d
}

// Gate returns the dashboard's session gate.
func (d *Dashboard) Gate() *Gate { return d.gate }

func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.engine.ServeHTTP(w, r)
}

func (d *Dashboard) module() *nancy.Module {
	m := nancy.NewModule("/")
	m.Get("/", func(c *nancy.Context) (*nancy.Response, error) {
		return c.View(http.StatusOK, "dashboard", d.page(false))
	})
	m.Get("/info", func(c *nancy.Context) (*nancy.Response, error) {
		return c.View(http.StatusOK, "info", d.page(false))
	})
	m.Get("/info/data", func(*nancy.Context) (*nancy.Response, error) {
		return nancy.JSON(http.StatusOK, d.info())
	})
	return m
}

func (d *Dashboard) page(failed bool) page {
	p := page{Base: d.base, Failed: failed}
	if !failed {
		p.Info = d.info()
	}
	return p
}

// authenticate gates every request. Logout and the disabled page need no
// session; a login attempt is a POST to the root.
func (d *Dashboard) authenticate(c *nancy.Context) *nancy.Response {
	if !d.gate.Enabled() {
		return d.view(c, "disabled", page{Base: d.base})
	}

	path := strings.TrimRight(c.Request.Path, "/")
	if strings.EqualFold(path, "/logout") {
		return nancy.Redirect(http.StatusSeeOther, d.base+"/").WithCookie(d.gate.ExpiredCookie())
	}

	if c.Request.Method == http.MethodPost && path == "" {
		return d.login(c)
	}

	value, ok := c.Request.Cookie(d.gate.cookieName)
	if !ok || value == "" {
		return d.view(c, "login", page{Base: d.base})
	}
	s, err := d.gate.Validate(value)
	if err != nil {
		d.observe(OutcomeSessionRejected)
		d.logger.Debug("diagnostics session rejected", "error", err, "remote", c.Request.RemoteAddr)
		c.Trace.Writef("diagnostics session rejected: %v", err)
		return d.view(c, "login", page{Base: d.base})
	}
	d.observe(OutcomeSessionValid)

	cookie, err := d.gate.Refresh(s)
	if err != nil {
		d.logger.Error("diagnostics session refresh failed", "error", err)
		return d.view(c, "login", page{Base: d.base})
	}
	c.Set(sessionCookieItem, cookie)
	return nil
}

type loginForm struct {
	Password string `form:"Password" validate:"required"`
}

func (d *Dashboard) login(c *nancy.Context) *nancy.Response {
	form, err := binding.Into[loginForm](c, binding.WithMaxBodySize(4<<10))
	if err != nil {
		c.Trace.Writef("diagnostics login form rejected: %v", err)
	}
	if err != nil || !d.gate.CheckPassword(form.Password) {
		d.observe(OutcomeLoginFailed)
		d.logger.Warn("diagnostics login failed", "remote", c.Request.RemoteAddr)
		return d.view(c, "login", page{Base: d.base, Failed: true})
	}

	s, err := d.gate.NewSession()
	if err == nil {
		var cookie *http.Cookie
		if cookie, err = d.gate.Cookie(s); err == nil {
			d.observe(OutcomeLoginSucceeded)
			d.logger.Info("diagnostics login", "remote", c.Request.RemoteAddr)
			return nancy.Redirect(http.StatusSeeOther, d.base+"/").WithCookie(cookie)
		}
	}
	d.logger.Error("diagnostics session creation failed", "error", err)
	return d.view(c, "login", page{Base: d.base, Failed: true})
}

// refresh re-issues the session cookie with a new expiry.
func (d *Dashboard) refresh(c *nancy.Context) {
	v, ok := c.Get(sessionCookieItem)
	if !ok || c.Response == nil {
		return
	}
	c.Response.WithCookie(v.(*http.Cookie))
}

func (d *Dashboard) view(c *nancy.Context, name string, p page) *nancy.Response {
	resp, err := c.View(http.StatusOK, name, p)
	if err != nil {
		d.logger.Error("diagnostics view failed", "view", name, "error", err)
		return nancy.Text(http.StatusInternalServerError, "diagnostics unavailable")
	}
	return resp
}

func (d *Dashboard) observe(outcome string) {
	if d.observer != nil {
		d.observer.ObserveAuth(outcome)
	}
}
