package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abcdlsj/nss-docker/pkg/config"
	"github.com/abcdlsj/nss-docker/pkg/docker"
	"github.com/abcdlsj/nss-docker/pkg/metrics"
	"github.com/abcdlsj/nss-docker/pkg/resolver"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

const (
	// Metrics endpoint timeouts
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// backend is the resolver built from one version of the configuration
type backend struct {
	resolver *resolver.Resolver
	client   *docker.Client
	ttl      uint32
}

// Server answers DNS A queries for container names
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     *config.Config
	cfgPath string
	cfgMu   sync.Mutex

	backend   atomic.Pointer[backend]
	collector *metrics.Collector

	ready     chan struct{}
	readyOnce sync.Once

	watcher *fsnotify.Watcher
}

func New(cfg *config.Config, cfgPath string) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		cfgPath:   cfgPath,
		collector: metrics.NewCollector(),
		ready:     make(chan struct{}),
	}

	be, err := s.newBackend(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	s.backend.Store(be)

	return s, nil
}

func (s *Server) newBackend(cfg *config.Config) (*backend, error) {
	r, client, err := cfg.NewResolver(resolver.LogObserver{}, s.collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	return &backend{resolver: r, client: client, ttl: cfg.DNS.TTL}, nil
}

// Start listens on the configured DNS address over UDP and TCP and serves
// until Stop is called
func (s *Server) Start() error {
	addr := s.cfg.DNS.Listen

	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on udp %s: %w", addr, err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		pc.Close()
		return fmt.Errorf("failed to listen on tcp %s: %w", addr, err)
	}

	return s.Serve(pc, ln)
}

// Serve answers DNS queries on pc and ln until Stop is called
func (s *Server) Serve(pc net.PacketConn, ln net.Listener) error {
	if err := s.setupConfigWatcher(); err != nil {
		log.Error("Failed to setup config watcher", "err", err)
	}

	var started sync.WaitGroup
	started.Add(2)
	go func() {
		started.Wait()
		s.readyOnce.Do(func() { close(s.ready) })
	}()

	udp := &dns.Server{PacketConn: pc, Handler: s, NotifyStartedFunc: started.Done}
	tcp := &dns.Server{Listener: ln, Handler: s, NotifyStartedFunc: started.Done}

	g, ctx := errgroup.WithContext(s.ctx)

	g.Go(func() error { return serveUntil(ctx, udp.ActivateAndServe) })
	g.Go(func() error { return serveUntil(ctx, tcp.ActivateAndServe) })

	var metricsSrv *http.Server
	if s.cfg.Metrics.Listen != "" {
		metricsSrv = s.metricsServer()
		g.Go(func() error {
			log.Info("Starting metrics endpoint", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		udp.ShutdownContext(shutdownCtx)
		tcp.ShutdownContext(shutdownCtx)
		pc.Close()
		ln.Close()
		if metricsSrv != nil {
			metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	log.Info("DNS server started", "udp", pc.LocalAddr(), "tcp", ln.Addr(), "suffix", s.cfg.Suffix)

	return g.Wait()
}

// serveUntil runs serve and drops the error it returns once ctx is done
func serveUntil(ctx context.Context, serve func() error) error {
	if err := serve(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Ready is closed once both DNS listeners accept queries
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	return &http.Server{
		Addr:              s.cfg.Metrics.Listen,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func (s *Server) Stop() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if be := s.backend.Load(); be != nil {
		be.client.Close()
	}
}

// ServeDNS implements dns.Handler
func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := s.answer(r)
	if err := w.WriteMsg(m); err != nil {
		log.Error("Failed to write DNS response", "err", err)
	}
}

func (s *Server) answer(r *dns.Msg) *dns.Msg {
	m := new(dns.Msg)
	m.SetReply(r)

	if len(r.Question) != 1 {
		m.Rcode = dns.RcodeFormatError
		return m
	}

	q := r.Question[0]
	qtype := dns.TypeToString[q.Qtype]
	defer func() {
		s.collector.RecordDNSQuery(qtype, dns.RcodeToString[m.Rcode])
	}()

	be := s.backend.Load()
	name := strings.TrimSuffix(q.Name, ".")
	if q.Qclass != dns.ClassINET || !be.resolver.Matcher().Match(name) {
		m.Rcode = dns.RcodeRefused
		return m
	}

	m.Authoritative = true

	// Only IPv4 is served; other types get an empty answer
	if q.Qtype != dns.TypeA {
		return m
	}

	res := be.resolver.Resolve(s.ctx, name)
	switch {
	case res.Outcome == resolver.Found:
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: be.ttl},
			A:   net.IP(res.Addr[:]),
		})
	case resolver.KindOf(res.Err) == resolver.KindTransport && !docker.IsNotFound(res.Err):
		// Backend outages must not be cached as negative answers
		m.Authoritative = false
		m.Rcode = dns.RcodeServerFailure
	default:
		m.Rcode = dns.RcodeNameError
	}

	return m
}

// setupConfigWatcher sets up fsnotify watcher for configuration file changes
func (s *Server) setupConfigWatcher() error {
	if s.cfgPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %v", err)
	}

	// Watch the directory, editors replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(s.cfgPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %v", err)
	}

	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == filepath.Clean(s.cfgPath) && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					log.Info("Config file modified, reloading configuration")
					if err := s.Reload(); err != nil {
						log.Error("Failed to reload configuration", "err", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("Config watcher error", "err", err)
			case <-s.ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Reload re-reads the configuration file and swaps in a new resolver.
// The listen addresses only change on restart.
func (s *Server) Reload() error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	newCfg, err := config.Load(s.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %v", err)
	}

	be, err := s.newBackend(newCfg)
	if err != nil {
		return err
	}

	if newCfg.DNS.Listen != s.cfg.DNS.Listen || newCfg.Metrics.Listen != s.cfg.Metrics.Listen {
		log.Warn("Listen address changes take effect after restart")
	}
	log.SetLevel(newCfg.Level())

	old := s.backend.Swap(be)
	if old != nil {
		old.client.Close()
	}

	log.Info("Configuration reloaded", "suffix", newCfg.Suffix, "socket", newCfg.SocketPath)
	return nil
}
