package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/mq"
	"github.com/shaiso/Glyph/internal/orchestrator"
	"github.com/shaiso/Glyph/internal/repo"
	"github.com/shaiso/Glyph/internal/server"
)

// SessionFunc лениво создаёт Session после парсинга флагов.
type SessionFunc func() (*Session, error)

// OutputFunc лениво создаёт Output после парсинга флагов.
type OutputFunc func() *Output

// GlobalFlags — persistent-флаги корневой команды.
type GlobalFlags struct {
	Config    string
	Profile   string
	Languages []string
	GPU       bool
	Detail    int
	Output    string
	UseServer bool
	ServerURL string
	Verbose   bool
	JSON      bool

	// Changed сообщает, задан ли флаг явно. Незаданные флаги
	// не перекрывают значения из конфигурации.
	Changed func(name string) bool
}

// Register добавляет флаги в cmd как persistent.
func (g *GlobalFlags) Register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.Config, "config", "", "Path to an explicit config file (highest priority layer)")
	pf.StringVar(&g.Profile, "profile", "", "Named profile from [profiles.<name>]")
	pf.StringSliceVarP(&g.Languages, "languages", "l", []string{"en"}, "Languages to recognize, comma-separated (e.g. ch_sim,en)")
	pf.BoolVarP(&g.GPU, "gpu", "g", true, "Enable GPU acceleration")
	pf.IntVarP(&g.Detail, "detail", "d", 1, "Detail level: 0 text only, 1 boxes and confidence")
	pf.StringVarP(&g.Output, "output", "o", "json", "Output format: json, text, or detailed")
	pf.BoolVar(&g.UseServer, "use-server", false, "Send requests to the engine server instead of spawning the bridge")
	pf.StringVar(&g.ServerURL, "server-url", "", "Engine server URL (default from [server] host and port)")
	pf.BoolVarP(&g.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&g.JSON, "json", false, "Print tables in JSON format")

	g.Changed = pf.Changed
}

func (g *GlobalFlags) changed(name string) bool {
	return g.Changed != nil && g.Changed(name)
}

// Overrides возвращает явно заданные флаги распознавания.
func (g *GlobalFlags) Overrides() *config.Overrides {
	o := &config.Overrides{}
	if g.changed("languages") {
		o.Languages = g.Languages
	}
	if g.changed("gpu") {
		o.GPU = &g.GPU
	}
	if g.changed("output") {
		o.Output = &g.Output
	}
	if g.changed("detail") {
		o.Detail = &g.Detail
	}
	return o
}

// Session — состояние одного вызова CLI.
type Session struct {
	Flags  GlobalFlags
	Config *config.Config

	// Params — эффективные параметры: умолчания ← [default] ← профиль ← флаги.
	Params config.Params

	Locator     engine.Locator
	Interpreter string
	Logger      *slog.Logger
}

// NewSession загружает конфигурацию и вычисляет эффективные параметры.
func NewSession(flags GlobalFlags, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loader := config.Loader{
		Paths:    config.DefaultPaths(),
		Explicit: flags.Config,
		Logger:   logger,
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	params, err := cfg.Params(flags.Profile)
	if err != nil {
		return nil, err
	}
	params = params.Apply(flags.Overrides())
	if err := params.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("effective parameters",
		"languages", params.Languages,
		"gpu", params.GPU,
		"output", params.Output,
		"detail", params.Detail,
		"profile", flags.Profile,
		"sources", cfg.Sources,
	)

	return &Session{
		Flags:       flags,
		Config:      cfg,
		Params:      params,
		Interpreter: engine.Interpreter(),
		Logger:      logger,
	}, nil
}

// ServerSettings возвращает секцию [server] с учётом умолчаний.
func (s *Session) ServerSettings() config.ServerSettings {
	return s.Config.Server()
}

// UseServer сообщает, выбрана ли server-стратегия (--use-server или server.enabled).
func (s *Session) UseServer() bool {
	return s.Flags.UseServer || s.ServerSettings().Enabled
}

// ServerURL возвращает --server-url или адрес из [server].
func (s *Session) ServerURL() string {
	if s.Flags.ServerURL != "" {
		return s.Flags.ServerURL
	}
	return s.ServerSettings().URL()
}

// Client создаёт клиента движка.
//
// Для server-стратегии сначала проверяется здоровье сервера. Если он не
// отвечает и включён server.auto_start, сервер запускается локально;
// иначе возвращается ErrUnavailable.
func (s *Session) Client(ctx context.Context) (engine.Client, error) {
	if !s.UseServer() {
		return engine.New(engine.Options{
			Interpreter: s.Interpreter,
			Locator:     s.Locator,
			Logger:      s.Logger,
		}), nil
	}

	url := s.ServerURL()
	if !engine.HealthCheck(ctx, nil, url) {
		settings := s.ServerSettings()
		if !settings.AutoStart || s.Flags.ServerURL != "" {
			return nil, fmt.Errorf("%w: server at %s is not responding; start it with `glyph --server`", engine.ErrUnavailable, url)
		}
		if err := settings.Validate(); err != nil {
			return nil, err
		}

		s.Logger.Info("engine server is not running, starting it", "url", url)
		if _, err := s.Lifecycle().Start(ctx, settings.Host, settings.Port); err != nil {
			return nil, err
		}
	}

	return engine.New(engine.Options{
		UseServer: true,
		ServerURL: url,
		Logger:    s.Logger,
	}), nil
}

// Lifecycle создаёт управление локальным сервером движка.
func (s *Session) Lifecycle() *server.Lifecycle {
	return server.New(server.Config{
		Store:       server.FilePIDStore{Path: server.DefaultPIDPath()},
		Locator:     s.Locator,
		Interpreter: s.Interpreter,
		Logger:      s.Logger,
	})
}

// Sinks открывает получателей outcomes: PostgreSQL (store) и RabbitMQ (publish).
// Возвращённая функция закрывает соединения.
func (s *Session) Sinks(ctx context.Context, store, publish bool) ([]orchestrator.Sink, func(), error) {
	var (
		sinks   []orchestrator.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if store {
		pool, err := repo.NewPool(ctx, repo.DSN())
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		outcomes := repo.NewOutcomeRepo(pool)
		if err := outcomes.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, outcomes)
		s.Logger.Debug("outcome store enabled")
	}

	if publish {
		conn, err := mq.Dial(mq.URL(), s.Logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := conn.Close(); err != nil {
				s.Logger.Warn("failed to close amqp connection", "error", err)
			}
		})

		if err := mq.SetupTopology(conn); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, mq.NewPublisher(conn, s.Logger))
		s.Logger.Debug("outcome publishing enabled")
	}

	return sinks, closeAll, nil
}
