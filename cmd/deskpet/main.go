// cmd/deskpet/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-deskpet/pkg/audio"
	"github.com/opd-ai/go-deskpet/pkg/config"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/engine"
	"github.com/opd-ai/go-deskpet/pkg/event"
	"github.com/opd-ai/go-deskpet/pkg/health"
	"github.com/opd-ai/go-deskpet/pkg/logging"
	"github.com/opd-ai/go-deskpet/pkg/render"
)

// errQuit ends the run loop without reporting a failure
var errQuit = errors.New("quit requested")

const (
	nudgeMagnitude = 400.0
	pauseDuration  = 3 * time.Second
	boostDuration  = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or JSON configuration file")
	createDefault := flag.Bool("default", false, "Write the default configuration to -config and exit")
	petNames := flag.String("pets", "tux", "Comma separated pet names")
	physics := flag.Bool("physics", true, "Start with physics enabled; overrides the config file when set")
	flag.Parse()

	ctx := context.Background()
	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		logging.NewLogger().Error(ctx, "Invalid environment configuration", err)
		os.Exit(1)
	}
	if *configPath == "" {
		*configPath = envConfig.ConfigPath
	}

	if *createDefault {
		bootstrapLogger := logging.NewLogger()
		if *configPath == "" {
			*configPath = "deskpet.yaml"
		}
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			bootstrapLogger.Error(ctx, "Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		bootstrapLogger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	// the terminal owns stdout, so logs go to a file or nowhere
	logger, closeLog, err := openLogger(envConfig.LogFile)
	if err != nil {
		logging.NewLogger().Error(ctx, "Failed to open log file", err, "log_file", envConfig.LogFile)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "physics" {
			cfg.General.PhysicsEnabled = *physics
		}
	})
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, envConfig, splitNames(*petNames), logger); err != nil {
		logger.Error(ctx, "deskpet exited with error", err)
		os.Exit(1)
	}
}

func openLogger(path string) (*logging.Logger, func(), error) {
	if path == "" {
		return logging.NewLoggerTo(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.NewLoggerTo(f), func() { f.Close() }, nil
}

// loadConfig reads path, falling back to the defaults with physics running
func loadConfig(path string, logger *logging.Logger) (*config.Config, error) {
	fallback := func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.General.PhysicsEnabled = true
		return cfg
	}
	if path == "" {
		return fallback(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(context.Background(), "Configuration file not found, using default configuration",
			"config_path", path,
		)
		return fallback(), nil
	}
	return config.LoadConfig(path)
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// scannerSettings prefers breaker settings from the config file and fills
// the rest from the environment.
func scannerSettings(file, env config.ScannerConfig) desktop.BreakerSettings {
	if file.MaxRequests == 0 {
		file.MaxRequests = env.MaxRequests
	}
	if file.Interval == 0 {
		file.Interval = env.Interval
	}
	if file.Timeout == 0 {
		file.Timeout = env.Timeout
	}
	if file.MaxConsecutiveFails == 0 {
		file.MaxConsecutiveFails = env.MaxConsecutiveFails
	}
	return file.BreakerSettings()
}

type app struct {
	desk     *render.TerminalDesktop
	renderer *render.Renderer
	world    *engine.Desktop
	pets     map[string]*render.PetWindow
	chime    *audio.Chime
	windows  []desktop.Handle
	logger   *logging.Logger
}

func run(ctx context.Context, cfg *config.Config, envConfig *config.EnvironmentConfig, names []string, logger *logging.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return logging.WrapError(err, "failed to create screen")
	}
	if err := screen.Init(); err != nil {
		return logging.WrapError(err, "failed to initialize screen")
	}
	var finiOnce sync.Once
	fini := func() { finiOnce.Do(screen.Fini) }
	defer fini()
	screen.EnableMouse()
	screen.HideCursor()

	desk := render.NewTerminalDesktop(screen, cfg.Physics.RefreshRate)
	scanner := desktop.NewEnvironmentScanner(desk, scannerSettings(cfg.Scanner, envConfig.ScannerConfig()), logger)
	world := engine.NewDesktop(cfg, scanner, engine.WithDesktopLogger(logger))
	defer world.Close()

	a := &app{
		desk:     desk,
		renderer: render.NewRenderer(desk, logger),
		world:    world,
		pets:     make(map[string]*render.PetWindow),
		logger:   logger,
	}
	a.placeWindows()
	for i, name := range names {
		pet := desk.NewPetWindow(name, nil, 2+i*10, 1)
		p, err := world.AddPet(name, pet)
		if err != nil {
			return logging.WrapError(err, "failed to add pet", "pet", name)
		}
		a.pets[p.Name] = pet
		a.renderer.AddPet(pet)
	}
	a.subscribe()

	if cfg.General.Sound {
		if play, err := audio.InitSpeaker(); err != nil {
			logger.Warn(ctx, "Audio initialization failed, continuing without sound", "error", err.Error())
		} else {
			a.chime = audio.NewChime(play, logger)
			a.chime.Attach(world.EventBus)
			defer a.chime.Detach()
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	events := make(chan tcell.Event, 64)
	g.Go(func() error {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return nil
			}
			select {
			case events <- ev:
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		fini()
		return nil
	})

	if envConfig.HealthAddr != "" {
		a.serveHealth(gctx, g, envConfig)
	}

	g.Go(func() error { return a.loop(gctx, events) })

	world.Start()
	err = g.Wait()
	world.Stop()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (a *app) placeWindows() {
	bounds := a.desk.Bounds()
	shelfY := bounds.Height * 2 / 3
	a.windows = append(a.windows,
		a.desk.AddWindow("notes", desktop.Rect{
			X: bounds.Width / 8, Y: shelfY,
			Width: bounds.Width / 3, Height: 4 * render.CellHeight,
		}),
		a.desk.AddWindow("terminal", desktop.Rect{
			X: bounds.Width / 2, Y: bounds.Height / 3,
			Width: bounds.Width / 3, Height: 5 * render.CellHeight,
		}),
	)
}

func (a *app) subscribe() {
	bus := a.world.EventBus
	say := func(text string) event.Handler {
		return func(e event.Event) {
			if pe, ok := e.(*event.PetEvent); ok {
				if pet := a.pets[pe.PetID]; pet != nil {
					pet.Say(text)
				}
				return
			}
			if ce, ok := e.(*event.ContactEvent); ok {
				if pet := a.pets[ce.PetID]; pet != nil {
					pet.Say(text)
				}
				return
			}
			if me, ok := e.(*event.MotionEvent); ok {
				if pet := a.pets[me.PetID]; pet != nil {
					pet.Say(text)
				}
			}
		}
	}
	bus.Subscribe(event.Slept, say("zzz"))
	bus.Subscribe(event.Bounce, say("boing"))
	bus.Subscribe(event.DragReleased, say("wheee"))
	bus.Subscribe(event.PhysicsEnabled, say(""))
}

func (a *app) serveHealth(ctx context.Context, g *errgroup.Group, envConfig *config.EnvironmentConfig) {
	hc := health.NewHealthChecker()
	hc.AddCheck(health.NewDesktopHealthCheck(a.world.IsRunning))
	if s, ok := a.world.Scanner.(*desktop.EnvironmentScanner); ok {
		hc.AddCheck(health.NewScannerHealthCheck(s.State))
	}
	hc.AddCheck(health.NewTickHealthCheck(envConfig.TickStaleAfter, a.world.LastTicks))
	hc.AddCheck(health.NewMemoryHealthCheck(500, nil))

	server := &http.Server{
		Addr:         envConfig.HealthAddr,
		Handler:      hc.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		a.logger.Info(ctx, "Starting health check server", "addr", envConfig.HealthAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return logging.WrapError(err, "health check server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

func (a *app) loop(ctx context.Context, events <-chan tcell.Event) error {
	interval := time.Second / time.Duration(render.DefaultRefreshRate)
	if rate := a.world.Config.Physics.RefreshRate; rate > 1 {
		interval = time.Duration(float64(time.Second) / rate)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := a.handleEvent(ev); err != nil {
				return err
			}
		case <-ticker.C:
			a.world.Update()
			a.renderer.SetStatus(a.statusLine())
			a.renderer.Draw()
		}
	}
}

func (a *app) statusLine() string {
	state := "physics off"
	if a.world.Config.General.PhysicsEnabled {
		state = "physics on"
	}
	return state + " [p]hysics [g]ravity [arrows] nudge [z] pause [x] boost [m]inimize [q]uit"
}

func (a *app) handleEvent(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.desk.Screen().Sync()
	case *tcell.EventMouse:
		a.renderer.HandleMouse(ev)
	case *tcell.EventKey:
		return a.handleKey(ev)
	}
	return nil
}

func (a *app) handleKey(ev *tcell.EventKey) error {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return errQuit
	case tcell.KeyRight:
		a.nudge(1)
	case tcell.KeyUp:
		a.nudge(3)
	case tcell.KeyLeft:
		a.nudge(5)
	case tcell.KeyDown:
		a.nudge(7)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return errQuit
		case 'p':
			a.world.SetPhysicsEnabled(!a.world.Config.General.PhysicsEnabled)
		case 'g':
			cfg := *a.world.Config
			cfg.Physics.GravityEnabled = !cfg.Physics.GravityEnabled
			a.world.Reconfigure(cfg)
		case 'z':
			for _, pet := range a.world.Pets() {
				pet.Bridge.DisableFor(pauseDuration)
			}
		case 'x':
			for _, pet := range a.world.Pets() {
				pet.Bridge.MultiplyForces(2, boostDuration)
			}
		case 'm':
			a.toggleFirstWindow()
		}
	}
	return nil
}

func (a *app) nudge(direction int) {
	for _, pet := range a.world.Pets() {
		pet.Bridge.AddDirectionalAcceleration(direction, nudgeMagnitude)
	}
}

func (a *app) toggleFirstWindow() {
	if len(a.windows) == 0 {
		return
	}
	windows, _ := a.desk.Windows()
	for _, w := range windows {
		if w.Handle == a.windows[0] {
			a.desk.SetMinimized(w.Handle, !w.Minimized)
			return
		}
	}
}
