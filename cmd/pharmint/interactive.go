package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/internal/metrics"
)

var (
	interactiveWatch       bool
	interactiveMetricsAddr string
)

const shellHelp = `Commands:
  examples        list example queries
  example <n>     run example query n
  attach <path>   attach a document to the next query
  help            show this help
  quit | exit     leave`

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Read queries from stdin until quit",
	Long: "Read one query per line and print the digest of each run.\n\n" + shellHelp + `

--watch reloads data.dir when its fixtures change (memory backend only).
--metrics-addr serves Prometheus metrics at /metrics while the shell runs.`,
	RunE: interactiveCommand,
}

func init() {
	interactiveCmd.Flags().BoolVar(&interactiveWatch, "watch", false, "Reload the fixture directory when it changes")
	interactiveCmd.Flags().StringVar(&interactiveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default metrics.addr)")
}

func interactiveCommand(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := a.cfg.Metrics.Addr
	if interactiveMetricsAddr != "" {
		addr = interactiveMetricsAddr
	}
	return runInteractive(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout(), shellOptions{
		Watch:       interactiveWatch,
		MetricsAddr: addr,
	})
}

// shellOptions configures the background services of the interactive shell.
type shellOptions struct {
	Watch       bool
	MetricsAddr string
	// ready, when set, receives the bound metrics address.
	ready func(addr string)
}

// runInteractive runs the query loop alongside the optional fixture
// watcher and metrics server. It returns when in is exhausted, the user
// quits, or ctx is cancelled.
func runInteractive(ctx context.Context, a *app, in io.Reader, out io.Writer, opts shellOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()
	g, gctx := errgroup.WithContext(ctx)

	if opts.MetricsAddr != "" {
		ln, err := net.Listen("tcp", opts.MetricsAddr)
		if err != nil {
			return fmt.Errorf("listen metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		printStatus(out, "✓", "Metrics at http://"+ln.Addr().String()+"/metrics", color.FgGreen)
		if opts.ready != nil {
			opts.ready(ln.Addr().String())
		}
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if opts.Watch {
		switch {
		case a.memory == nil:
			printStatus(out, "⚠", "--watch needs the memory backend, ignoring", color.FgYellow)
		case a.cfg.Data.Dir == "":
			printStatus(out, "⚠", "--watch needs data.dir, ignoring", color.FgYellow)
		default:
			w := catalog.NewWatcher(a.cfg.Data.Dir, a.memory, a.logger, catalog.WithReloadHook(m.CatalogReloaded))
			printStatus(out, "✓", "Watching "+a.cfg.Data.Dir, color.FgGreen)
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	g.Go(func() error {
		defer cancel()
		return (&shell{app: a, out: out, metrics: m}).loop(gctx, in)
	})

	return g.Wait()
}

// shell is the line-oriented query loop.
type shell struct {
	app     *app
	out     io.Writer
	metrics *metrics.Metrics
	attach  string
}

func (s *shell) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(s.out, headingStyle.Render("pharmint interactive")+faintStyle.Render(" · type a query, 'examples' or 'quit'"))
	for {
		fmt.Fprint(s.out, "› ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := s.handle(ctx, strings.TrimSpace(line)); done {
				return nil
			}
		}
	}
}

// handle processes one input line and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, shellHelp)
		return false
	case "examples":
		printExamples(s.out)
		return false
	case "example":
		var n int
		if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 || n > len(exampleQueries) {
			printStatus(s.out, "✗", fmt.Sprintf("example needs a number between 1 and %d", len(exampleQueries)), color.FgRed)
			return false
		}
		line = exampleQueries[n-1]
		fmt.Fprintln(s.out, faintStyle.Render(line))
	case "attach":
		s.attach = strings.TrimSpace(arg)
		printStatus(s.out, "✓", "Next query will include "+s.attach, color.FgGreen)
		return false
	}

	opts := runOptions{
		Query:  line,
		Attach: s.attach,
		Report: s.app.reportConfig(),
	}
	if s.metrics != nil {
		opts.Recorder = s.metrics
	}
	res, err := s.app.execute(ctx, opts)
	s.attach = ""
	if err != nil {
		s.app.logger.Warn("query rejected", zap.Error(err))
		printStatus(s.out, "✗", err.Error(), color.FgRed)
		return false
	}
	renderResult(s.out, res, false)
	return false
}
