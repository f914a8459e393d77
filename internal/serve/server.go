// Package serve renders a document on every source change and serves the
// result with live reload.
//
// The server owns three long-lived loops supervised by an errgroup: the
// HTTP server, the file watch loop, and the render queue consumer. Source
// changes are debounced into render requests; output changes notify the
// connected viewers directly.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/reload"
	"github.com/hupe1980/decktools/internal/render"
	"github.com/hupe1980/decktools/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Renderer produces the served output from the sources.
type Renderer interface {
	Run(ctx context.Context) error
	String() string
}

// Options configures a Server.
type Options struct {
	// Root is the directory that is watched and served.
	Root string

	// Addr is the host:port to listen on.
	Addr string

	// Page is the document opened in the browser, relative to Root.
	Page string

	// Debounce is the quiet period of coalesced watch rules.
	Debounce time.Duration

	// Rules route changed paths to rebuild or reload actions.
	Rules []watch.Rule

	// Renderer is invoked once at startup and for every rebuild.
	Renderer Renderer

	// MinVersion is an optional semver constraint the renderer must meet.
	// It is only checked when Renderer is a *render.Command.
	MinVersion string

	// Open opens Page in the default browser once the server listens.
	Open bool

	// OpenBrowser replaces the system browser launcher.
	OpenBrowser func(url string)

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives user-facing status lines and renderer output.
	Out io.Writer
}

// OptionsFromConfig builds Options from the serve section of the project
// config. Renderer output is streamed to out.
func OptionsFromConfig(cfg config.ServeConfig, out io.Writer, logger *slog.Logger) (Options, error) {
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return Options{}, err
	}

	rules, err := watch.ParseRules(cfg.Watch)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Root:     cfg.Root,
		Addr:     cfg.Addr(),
		Page:     cfg.Page,
		Debounce: debounce,
		Rules:    rules,
		Renderer: &render.Command{
			Name:   cfg.Render.Command,
			Args:   cfg.Render.Args,
			Dir:    cfg.Root,
			Out:    out,
			Logger: logger,
		},
		MinVersion: cfg.Render.MinVersion,
		Open:       cfg.Open,
		Logger:     logger,
		Out:        out,
	}, nil
}

// Server is the rebuild-and-reload server.
type Server struct {
	opts  Options
	hub   *reload.Hub
	queue *watch.Queue
	gate  *reloadGate

	renders atomic.Int64

	mu    sync.Mutex
	addr  string
	ready chan struct{}
}

// New validates opts and returns a server.
func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}

	if opts.Root == "" {
		opts.Root = "."
	}

	if info, err := os.Stat(opts.Root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", opts.Root)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.OpenBrowser == nil {
		opts.OpenBrowser = launcher.Open
	}

	hub := reload.NewHub(opts.Logger)

	return &Server{
		opts:  opts,
		hub:   hub,
		queue: watch.NewQueue(),
		gate:  newReloadGate(hub.Broadcast),
		ready: make(chan struct{}),
	}, nil
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// URL returns the address of the served page. It is only meaningful after
// Ready is closed.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fmt.Sprintf("http://%s/%s", s.addr, strings.TrimPrefix(s.opts.Page, "/"))
}

// Renders returns the number of completed render invocations.
func (s *Server) Renders() int64 {
	return s.renders.Load()
}

// Run renders once, starts serving, and blocks until ctx is cancelled,
// SIGINT or SIGTERM is received, or a loop fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.checkRenderer(ctx); err != nil {
		return err
	}

	fmt.Fprintln(s.opts.Out, "Building...")
	s.render(ctx, "(initial)")

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	dispatcher := watch.NewDispatcher(s.opts.Rules, s.opts.Debounce, map[watch.Action]watch.Handler{
		watch.ActionRebuild: func(path string) { s.queue.Request(path) },
		watch.ActionReload:  s.gate.reload,
	}, s.opts.Logger)
	defer dispatcher.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		s.hub.Close()

		return srv.Shutdown(shutdownCtx)
	})

	watching := make(chan struct{})

	g.Go(func() error {
		return watch.Watch(gctx, watch.Options{
			Root:   s.opts.Root,
			Logger: s.opts.Logger,
			Ready:  func() { close(watching) },
		}, func(rel string) {
			dispatcher.Dispatch(rel)
		})
	})

	g.Go(func() error {
		// A started render always runs to completion.
		return s.queue.Run(gctx, func(ctx context.Context, reason string) {
			s.render(context.WithoutCancel(ctx), reason)
		})
	})

	select {
	case <-watching:
	case <-gctx.Done():
		return g.Wait()
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	close(s.ready)

	url := s.URL()
	fmt.Fprintf(s.opts.Out, "Serving at %s\n", url)
	fmt.Fprintf(s.opts.Out, "Watching: %s\n", s.describeRules(watch.ActionRebuild))
	fmt.Fprintf(s.opts.Out, "Browser reloads when %s changes\n", s.describeRules(watch.ActionReload))

	if s.opts.Open {
		s.opts.OpenBrowser(url)
	}

	err = g.Wait()

	fmt.Fprintln(s.opts.Out, "\nshutting down")

	return err
}

func (s *Server) checkRenderer(ctx context.Context) error {
	cmd, ok := s.opts.Renderer.(*render.Command)
	if !ok || s.opts.MinVersion == "" {
		return nil
	}

	v, err := render.CheckVersion(ctx, cmd.Name, s.opts.MinVersion)
	if err != nil {
		return err
	}

	s.opts.Logger.Debug("renderer version", slog.String("command", cmd.Name), slog.String("version", v.String()))

	return nil
}

// render runs the renderer once and prints a status line. Reload
// notifications observed meanwhile are released only on success.
func (s *Server) render(ctx context.Context, trigger string) {
	start := time.Now()

	s.gate.begin()
	err := s.opts.Renderer.Run(ctx)
	released := s.gate.end(err == nil)

	s.renders.Add(1)

	now := start.Format("15:04:05")

	if err != nil {
		fmt.Fprintf(s.opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		s.opts.Logger.Warn("render failed", slog.String("trigger", trigger), slog.String("error", err.Error()))

		return
	}

	fmt.Fprintf(s.opts.Out, "[%s] %s → OK (%s)\n", now, trigger, time.Since(start).Round(time.Millisecond))

	if released > 0 {
		s.opts.Logger.Debug("released held reloads", slog.Int("paths", released))
	}
}

func (s *Server) describeRules(action watch.Action) string {
	var patterns []string

	for _, r := range s.opts.Rules {
		if r.Action == action {
			patterns = append(patterns, r.Pattern)
		}
	}

	return strings.Join(patterns, ", ")
}
