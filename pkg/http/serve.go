package xhttp

import (
	"os"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/prefork"
)

// env list (milliseconds / bytes):
// XHTTP_SERVER_READ_TIMEOUT
// XHTTP_SERVER_WRITE_TIMEOUT
// XHTTP_SERVER_REQUEST_TIMEOUT
// XHTTP_SERVER_READ_BUFFER_BYTE
// XHTTP_SERVER_WRITE_BUFFER_BYTE

var (
	defaultReadBufferSize  = 1024 * 4
	defaultWriteBufferSize = 1024 * 4
	defaultReadTimeout     = time.Millisecond * 2500
	defaultWriteTimeout    = time.Millisecond * 2500
	defaultRequestTimeout  = time.Millisecond * 5000
)

func init() {
	if v, ok := envInt("XHTTP_SERVER_READ_TIMEOUT"); ok {
		defaultReadTimeout = time.Millisecond * time.Duration(v)
	}
	if v, ok := envInt("XHTTP_SERVER_WRITE_TIMEOUT"); ok {
		defaultWriteTimeout = time.Millisecond * time.Duration(v)
	}
	if v, ok := envInt("XHTTP_SERVER_REQUEST_TIMEOUT"); ok {
		defaultRequestTimeout = time.Millisecond * time.Duration(v)
	}
	if v, ok := envInt("XHTTP_SERVER_READ_BUFFER_BYTE"); ok && v > 1024 {
		defaultReadBufferSize = v
	}
	if v, ok := envInt("XHTTP_SERVER_WRITE_BUFFER_BYTE"); ok && v > 1024 {
		defaultWriteBufferSize = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" || raw == "0" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

var DefaultServerOption = ServerOption{
	Handler:               NotFoundHandler,
	IdleTimeout:           time.Second * 10,
	MaxIdleWorkerDuration: time.Minute * 1,
	TCPKeepalivePeriod:    time.Minute * 120,
	// photos and scraped payloads never go through the API; 4MB covers backups of small tables
	MaxRequestBodySize: 4 * 1024 * 1024,
	RequestTimeout:     defaultRequestTimeout,
	ReadBufferSize:     defaultReadBufferSize,
	WriteBufferSize:    defaultWriteBufferSize,
	ReadTimeout:        defaultReadTimeout,
	WriteTimeout:       defaultWriteTimeout,
	Concurrency:        10_000,
	MaxConnsPerIP:      1_000,
	ErrorHandler: func(ctx *RequestCtx, err error) {
		logger.Warn("[xhttp] request error", "error", err, "path", string(ctx.Path()))
	},
	TCPKeepalive:                       true,
	DisablePreParseMultipartForm:       true,
	LogAllErrors:                       true,
	SleepWhenConcurrencyLimitsExceeded: 100,
	NoDefaultServerHeader:              true,
	NoDefaultDate:                      true,
	NoDefaultContentType:               true,
	CloseOnShutdown:                    true,
	Logger:                             logger.GetLogger(),
	RecoverThreshold:                   100,
}

type Prefork = prefork.Prefork
type Server = fasthttp.Server

type ServerOption struct {
	Handler RequestHandler

	// idle keep-alive connections are dropped after this, otherwise long
	// running dashboards pile up open files
	IdleTimeout time.Duration

	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration
	MaxRequestBodySize    int

	// used by TimeoutMiddleware callers as the default
	RequestTimeout time.Duration

	ReadBufferSize  int
	WriteBufferSize int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration

	Concurrency        int
	MaxConnsPerIP      int
	MaxRequestsPerConn int

	ErrorHandler                       func(ctx *RequestCtx, err error)
	Name                               string
	DisableKeepalive                   bool
	TCPKeepalive                       bool
	DisablePreParseMultipartForm       bool
	LogAllErrors                       bool
	SleepWhenConcurrencyLimitsExceeded time.Duration
	NoDefaultServerHeader              bool
	NoDefaultDate                      bool
	NoDefaultContentType               bool
	CloseOnShutdown                    bool
	Logger                             logger.Logger
	RecoverThreshold                   int
}

type Engine struct {
	*Router
	*Server
	*Prefork
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                            options.Handler,
		ErrorHandler:                       options.ErrorHandler,
		Name:                               options.Name,
		Concurrency:                        options.Concurrency,
		ReadBufferSize:                     options.ReadBufferSize,
		WriteBufferSize:                    options.WriteBufferSize,
		ReadTimeout:                        options.ReadTimeout,
		WriteTimeout:                       options.WriteTimeout,
		IdleTimeout:                        options.IdleTimeout,
		MaxConnsPerIP:                      options.MaxConnsPerIP,
		MaxRequestsPerConn:                 options.MaxRequestsPerConn,
		MaxIdleWorkerDuration:              options.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:                 options.TCPKeepalivePeriod,
		MaxRequestBodySize:                 options.MaxRequestBodySize,
		DisableKeepalive:                   options.DisableKeepalive,
		TCPKeepalive:                       options.TCPKeepalive,
		DisablePreParseMultipartForm:       options.DisablePreParseMultipartForm,
		LogAllErrors:                       options.LogAllErrors,
		SleepWhenConcurrencyLimitsExceeded: options.SleepWhenConcurrencyLimitsExceeded,
		NoDefaultServerHeader:              options.NoDefaultServerHeader,
		NoDefaultDate:                      options.NoDefaultDate,
		NoDefaultContentType:               options.NoDefaultContentType,
		CloseOnShutdown:                    options.CloseOnShutdown,
		Logger:                             options.Logger,
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: NewRouter(),
		option: options,
	}
}

// CreateServer returns an engine with the default options and router.
func CreateServer() *Engine {
	s := NewServer(DefaultServerOption)
	s.Router = CreateDefaultRouter()
	return s
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

func (e *Engine) PreforkListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	e.Prefork = prefork.New(e.Server)
	e.Prefork.Reuseport = true
	e.Prefork.RecoverThreshold = e.option.RecoverThreshold
	e.Prefork.Logger = e.Server.Logger
	logger.Info("[xhttp] prefork server is listening", "addr", addr)
	return e.Prefork.ListenAndServe(addr)
}

// Handler returns the routed handler wrapped by the registered middlewares.
func (e *Engine) Handler() RequestHandler {
	h := e.Router.Handler
	middle := slices.Clone(e.middle)
	// the first registered middleware ends up outermost
	slices.Reverse(middle)
	for _, m := range middle {
		h = m(h)
	}
	return h
}

func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route", "method", method, "path", r)
		}
	}
	for i, m := range e.middle {
		logger.Debug("[xhttp] middleware registered", "index", i+1, "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = e.Handler()
	return nil
}

// Use adds middleware to the chain which is run for every request.
// Middlewares run in registration order.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down", "pid", os.Getpid(), "is_child", prefork.IsChild())
	if e.Prefork != nil {
		e.Prefork.RecoverThreshold = 0
	}
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
