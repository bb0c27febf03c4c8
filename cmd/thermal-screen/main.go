// Command thermal-screen runs the screening pipeline over recorded frame
// streams, or over a live synthetic visit, and stores the captures.
//
//	thermal-screen [flags] file.tsf [file.tsf ...]
//	thermal-screen -synthetic [flags]
//	thermal-screen migrate [-db path] <up|down|status|version N|force N|help>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/thermal.screen/internal/config"
	"github.com/banshee-data/thermal.screen/internal/db"
	"github.com/banshee-data/thermal.screen/internal/monitor"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/pipeline"
	"github.com/banshee-data/thermal.screen/internal/thermal/synth"
	"github.com/banshee-data/thermal.screen/internal/timeutil"
	"github.com/banshee-data/thermal.screen/internal/version"
)

const defaultDBPath = "screenings.db"

var (
	dbPath     = flag.String("db", defaultDBPath, "Screening database path")
	tuningPath = flag.String("config", "", "Tuning config JSON (built-in defaults when empty)")
	listen     = flag.String("listen", "", "Serve the screening API and debug routes on this address")
	plotDir    = flag.String("plots", "", "Write per-session PNG plots to this directory")
	synthetic  = flag.Bool("synthetic", false, "Screen a synthetic visit instead of files")
	seed       = flag.Int64("seed", 1, "Synthetic noise seed")
	fps        = flag.Float64("fps", 8.7, "Synthetic frame rate")
	maxFrames  = flag.Int("frames", 0, "Stop synthetic mode after this many frames (0 runs until interrupted)")
	jobs       = flag.Int("j", runtime.NumCPU(), "Files processed concurrently")
	logDiag    = flag.Bool("log-diag", false, "Log tuning diagnostics to stderr")
	logTrace   = flag.Bool("log-trace", false, "Log per-frame telemetry to stderr")
	showVer    = flag.Bool("version", false, "Print the version and exit")
)

type options struct {
	DBPath     string
	TuningPath string
	Listen     string
	PlotDir    string
	Synthetic  bool
	Seed       int64
	FPS        float64
	MaxFrames  int
	Jobs       int
	Files      []string
	Clock      timeutil.Clock
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		fs := flag.NewFlagSet("migrate", flag.ExitOnError)
		path := fs.String("db", defaultDBPath, "Screening database path")
		_ = fs.Parse(os.Args[2:])
		if err := db.RunMigrateCommand(fs.Args(), *path, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	flag.Parse()
	if *showVer {
		fmt.Println("thermal-screen", version.String())
		return
	}

	writers := monitoring.LogWriters{Ops: os.Stderr}
	if *logDiag {
		writers.Diag = os.Stderr
	}
	if *logTrace {
		writers.Trace = os.Stderr
	}
	monitoring.SetLogWriters(writers)
	monitoring.Logf("[CLI] thermal-screen %s", version.String())

	if !*synthetic && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: thermal-screen [flags] file.tsf [file.tsf ...]")
		fmt.Fprintln(os.Stderr, "       thermal-screen -synthetic [flags]")
		fmt.Fprintln(os.Stderr, "       thermal-screen migrate [-db path] <command>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, options{
		DBPath:     *dbPath,
		TuningPath: *tuningPath,
		Listen:     *listen,
		PlotDir:    *plotDir,
		Synthetic:  *synthetic,
		Seed:       *seed,
		FPS:        *fps,
		MaxFrames:  *maxFrames,
		Jobs:       *jobs,
		Files:      flag.Args(),
		Clock:      timeutil.RealClock{},
	})
	if err != nil {
		log.Fatalf("thermal-screen: %v", err)
	}
}

// run processes the configured input, then keeps serving until ctx is done
// when a listen address is set.
func run(ctx context.Context, o options) error {
	tuning := config.DefaultTuningConfig()
	if o.TuningPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(o.TuningPath); err != nil {
			return err
		}
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}

	database, err := db.NewDB(o.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	var plotter *monitor.SessionPlotter
	var observers []pipeline.FrameObserver
	if o.PlotDir != "" {
		plotter = monitor.NewSessionPlotter()
		observers = append(observers, plotter)
	}

	proc := pipeline.NewProcessor(pipeline.ProcessorConfig{
		Config:    pipeline.ConfigFromTuning(tuning),
		Smoother:  frame.Identity{},
		Sink:      &db.ScreeningSink{DB: database, Clock: o.Clock},
		Observers: observers,
	})

	g, gctx := errgroup.WithContext(ctx)
	if o.Listen != "" {
		mux := http.NewServeMux()
		if err := database.AttachAdminRoutes(mux); err != nil {
			return err
		}
		monitor.NewHandlers(database).RegisterRoutes(mux)
		srv := &http.Server{Addr: o.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error { return serve(gctx, srv) })
	}

	g.Go(func() error {
		var err error
		if o.Synthetic {
			err = runSynthetic(gctx, proc, o)
		} else {
			err = processFiles(gctx, proc, o.Files, o.Jobs)
		}
		if err != nil {
			return err
		}
		if plotter != nil {
			plotter.Stop()
			n, err := plotter.GeneratePlots(o.PlotDir)
			if err != nil {
				return fmt.Errorf("failed to write plots: %w", err)
			}
			monitoring.Logf("[CLI] Wrote %d plots to %s", n, o.PlotDir)
		}
		if o.Listen != "" {
			monitoring.Logf("[CLI] Processing complete; serving on %s until interrupted", o.Listen)
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("[CLI] Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		monitoring.Opsf("[CLI] HTTP server shutdown error: %v", err)
	}
	return ctx.Err()
}

// processFiles screens each file in its own session, up to jobs at a time.
func processFiles(ctx context.Context, proc *pipeline.Processor, files []string, jobs int) error {
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, path := range files {
		g.Go(func() error { return processFile(gctx, proc, path) })
	}
	return g.Wait()
}

func processFile(ctx context.Context, proc *pipeline.Processor, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := frame.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s := proc.NewSession()
	start := time.Now()
	if err := proc.Run(ctx, s, r); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Logf("[CLI] %s: session %s screened %d frames in %s, final state %s",
		path, s.ID, s.Frames, time.Since(start).Round(time.Millisecond), s.Machine.State())
	return nil
}

// pacedSource plays a synthetic visit at the generator frame rate.
type pacedSource struct {
	ctx    context.Context
	gen    *synth.Generator
	ticker timeutil.Ticker
	limit  int
	n      int
}

func (p *pacedSource) Next() (*frame.Frame, error) {
	if p.limit > 0 && p.n >= p.limit {
		return nil, io.EOF
	}
	select {
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	case <-p.ticker.C():
	}
	p.n++
	return p.gen.NextFrame(), nil
}

func runSynthetic(ctx context.Context, proc *pipeline.Processor, o options) error {
	if o.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %v", o.FPS)
	}
	gen := synth.NewGenerator(o.Seed, o.Clock.Now())
	gen.FrameRate = o.FPS
	ticker := o.Clock.NewTicker(time.Duration(float64(time.Second) / o.FPS))
	defer ticker.Stop()

	s := proc.NewSession()
	monitoring.Logf("[CLI] Synthetic session %s at %.1f fps", s.ID, o.FPS)
	err := proc.Run(ctx, s, &pacedSource{ctx: ctx, gen: gen, ticker: ticker, limit: o.MaxFrames})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	monitoring.Logf("[CLI] Synthetic session %s screened %d frames", s.ID, s.Frames)
	return err
}
