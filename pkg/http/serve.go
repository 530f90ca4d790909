package xhttp

import (
	"crypto/tls"
	"net"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/valyala/fasthttp"
)

var DefaultServerOption = ServerOption{
	Handler: func(ctx *RequestCtx) {
		ctx.Error(StatusText(StatusNotFound), StatusNotFound)
	},
	IdleTimeout:           time.Second * 10,
	MaxIdleWorkerDuration: time.Minute * 1,
	TCPKeepalivePeriod:    time.Minute * 120,
	// uploads carry base64 images inline
	MaxRequestBodySize: 16 * 1024 * 1024,
	ReadBufferSize:     1024 * 16,
	WriteBufferSize:    1024 * 16,
	ReadTimeout:        time.Second * 10,
	WriteTimeout:       time.Second * 10,
	Concurrency:        10_000,
	MaxConnsPerIP:      1_000,
	ErrorHandler: func(ctx *RequestCtx, err error) {
		logger.Warn("[xhttp] connection error", "error", err)
	},
	TCPKeepalive:                 true,
	DisablePreParseMultipartForm: true,
	LogAllErrors:                 false,
	NoDefaultServerHeader:        true,
	CloseOnShutdown:              true,
}

type ServerOption struct {
	Handler RequestHandler

	// idle keep-alive connections are closed after IdleTimeout
	IdleTimeout           time.Duration
	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration
	MaxRequestBodySize    int
	ReadBufferSize        int
	WriteBufferSize       int
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	Concurrency           int
	MaxConnsPerIP         int
	MaxRequestsPerConn    int

	ErrorHandler                 func(ctx *RequestCtx, err error)
	Name                         string
	TCPKeepalive                 bool
	DisablePreParseMultipartForm bool
	LogAllErrors                 bool
	NoDefaultServerHeader        bool
	CloseOnShutdown              bool
	ConnState                    func(net.Conn, fasthttp.ConnState)
	Logger                       logger.Logger
	TLSConfig                    *tls.Config
}

// WithTimeouts overrides read/write timeouts given in milliseconds; zero keeps the default.
func (o ServerOption) WithTimeouts(readMs, writeMs int) ServerOption {
	if readMs > 0 {
		o.ReadTimeout = time.Duration(readMs) * time.Millisecond
	}
	if writeMs > 0 {
		o.WriteTimeout = time.Duration(writeMs) * time.Millisecond
	}
	return o
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

type Server = fasthttp.Server

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                      options.Handler,
		ErrorHandler:                 options.ErrorHandler,
		Name:                         options.Name,
		Concurrency:                  options.Concurrency,
		ReadBufferSize:               options.ReadBufferSize,
		WriteBufferSize:              options.WriteBufferSize,
		ReadTimeout:                  options.ReadTimeout,
		WriteTimeout:                 options.WriteTimeout,
		IdleTimeout:                  options.IdleTimeout,
		MaxConnsPerIP:                options.MaxConnsPerIP,
		MaxRequestsPerConn:           options.MaxRequestsPerConn,
		MaxIdleWorkerDuration:        options.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:           options.TCPKeepalivePeriod,
		MaxRequestBodySize:           options.MaxRequestBodySize,
		TCPKeepalive:                 options.TCPKeepalive,
		DisablePreParseMultipartForm: options.DisablePreParseMultipartForm,
		LogAllErrors:                 options.LogAllErrors,
		NoDefaultServerHeader:        options.NoDefaultServerHeader,
		CloseOnShutdown:              options.CloseOnShutdown,
		ConnState:                    options.ConnState,
		Logger:                       options.Logger,
		TLSConfig:                    options.TLSConfig,
	}
}

func NewServer(options ServerOption) *Engine {
	if options.Logger == nil {
		options.Logger = logger.GetLogger()
	}
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
		option: options,
	}
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	return e.Server.ListenAndServe(addr)
}

// DoRouting installs the router as handler and wraps it with the registered middlewares,
// the first registered being the outermost.
func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route", "method", method, "path", r)
		}
	}
	e.Server.Handler = e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for i, m := range middle {
		e.Server.Handler = m(e.Server.Handler)
		logger.Debug("[xhttp] middleware registered", "index", i+1, "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	return nil
}

// Handler returns the fully wrapped handler; used by tests that bypass the listener.
func (e *Engine) Handler() RequestHandler {
	_ = e.DoRouting()
	return e.Server.Handler
}

// Use adds middleware to the end of the chain.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// CloseOnSignal shuts the server down on SIGINT/SIGTERM and closes done afterwards.
func (e *Engine) CloseOnSignal() <-chan struct{} {
	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		e.Shutdown()
		close(done)
	}()
	return done
}

func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down", "pid", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
