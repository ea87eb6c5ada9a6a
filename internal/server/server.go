package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lqqyt2423/go-mitmproxy/proxy"
	"github.com/lqqyt2423/go-mitmproxy/web"
	"go.uber.org/atomic"

	"github.com/geospoof/geospoof/internal/helper"
	"github.com/geospoof/geospoof/internal/metrics"
	"github.com/geospoof/geospoof/log"
)

type Options struct {
	Debug             int
	Addr              string
	StreamLargeBodies int64 // bodies larger than this are streamed and never rewritten
	SslInsecure       bool
	CaRootPath        string
	Upstream          string
	ShutdownTimeout   time.Duration

	WebAddr     string
	MetricsAddr string
	AllowHosts  []string
	IgnoreHosts []string
	LogFlows    bool
}

type Server struct {
	Opts *Options

	proxy     *proxy.Proxy
	metrics   *http.Server
	errorChan chan error
	quitChan  chan os.Signal
	stopping  atomic.Bool
}

func New(opts *Options, addons ...proxy.Addon) (*Server, error) {
	if opts.StreamLargeBodies <= 0 {
		opts.StreamLargeBodies = 1024 * 1024 * 5 // default: 5mb
	}

	p, err := proxy.NewProxy(&proxy.Options{
		Debug:             opts.Debug,
		Addr:              opts.Addr,
		StreamLargeBodies: opts.StreamLargeBodies,
		SslInsecure:       opts.SslInsecure,
		CaRootPath:        opts.CaRootPath,
		Upstream:          opts.Upstream,
	})
	if err != nil {
		return nil, err
	}
	p.SetShouldInterceptRule(helper.ShouldIntercept(opts.AllowHosts, opts.IgnoreHosts))

	for _, addon := range addons {
		p.AddAddon(addon)
	}
	if opts.LogFlows {
		p.AddAddon(&proxy.LogAddon{})
	}
	if opts.WebAddr != "" {
		p.AddAddon(web.NewWebAddon(opts.WebAddr))
	}

	s := &Server{
		Opts:      opts,
		proxy:     p,
		errorChan: make(chan error, 2),
		quitChan:  make(chan os.Signal, 1),
	}
	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s.metrics = &http.Server{Addr: opts.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}
	return s, nil
}

func (s *Server) Proxy() *proxy.Proxy {
	return s.proxy
}

// Start runs the proxy until it fails or SIGINT/SIGTERM (or Stop) arrives,
// then shuts it down within Opts.ShutdownTimeout.
func (s *Server) Start() error {
	signal.Notify(s.quitChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quitChan)

	if s.metrics != nil {
		go func() {
			ln, err := net.Listen("tcp", s.metrics.Addr)
			if err != nil {
				s.errorChan <- err
				return
			}
			log.Infof("Metrics already listen at %v", ln.Addr())
			if err := s.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.errorChan <- err
			}
		}()
	}

	go func() {
		log.Infof("Proxy is starting at %v...", s.Opts.Addr)
		s.errorChan <- s.proxy.Start()
	}()

	select {
	case err := <-s.errorChan:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			s.closeMetrics()
			return nil
		}
		log.Errorf("Proxy failed to start, %v", err)
		_ = s.proxy.Close()
		s.closeMetrics()
		return err
	case <-s.quitChan:
		log.Info("Proxy is shutting down...")
	}

	ctx := context.Background()
	if s.Opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Opts.ShutdownTimeout)
		defer cancel()
	}
	if s.metrics != nil {
		_ = s.metrics.Shutdown(ctx)
	}
	if err := s.proxy.Shutdown(ctx); err != nil {
		_ = s.proxy.Close()
		log.Errorf("Proxy already forced shutdown, %v", err)
		return nil
	}
	log.Info("Proxy already shutdown")
	return nil
}

// Stop asks a running Start to shut down. Only the first call has effect.
func (s *Server) Stop() {
	if s.stopping.CompareAndSwap(false, true) {
		s.quitChan <- syscall.SIGTERM
	}
}

func (s *Server) closeMetrics() {
	if s.metrics != nil {
		_ = s.metrics.Close()
	}
}
