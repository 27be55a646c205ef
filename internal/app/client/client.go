package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slog"

	"equilibria/internal/app/client/config"
	"equilibria/internal/app/client/credential"
	"equilibria/internal/app/client/gateway"
	"equilibria/internal/domain/account"
	"equilibria/internal/domain/insights"
	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
	"equilibria/internal/domain/recovery"
	"equilibria/internal/infrastructure/storage"
)

// App связывает локальное хранилище, шлюз сервера и реконсилятор
type App struct {
	config     *config.Config
	log        *slog.Logger
	repo       record.Repository
	api        *gateway.Client
	creds      *credential.Store
	reconciler *reconcile.Service
	scorer     *recovery.Scorer
	summarizer *insights.Summarizer
	validator  account.Validator
	registry   *prometheus.Registry
	syncer     *SyncService
	now        func() time.Time
	wg         gosync.WaitGroup
	cancel     context.CancelFunc
}

type options struct {
	httpClient *http.Client
	now        func() time.Time
	registry   *prometheus.Registry
}

type Option func(*options)

// WithHTTPClient подменяет HTTP-клиент шлюза
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRegistry задаёт реестр метрик синхронизации
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	if cfg.ConfigDir != "" {
		if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
			return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
		}
	}

	repo, err := storage.Open(cfg.DataPath, cfg.StreamKeys, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	baseURL := gateway.BaseURL(cfg.ServerAddress, cfg.EnableTLS)
	var api *gateway.Client
	if o.httpClient != nil {
		api = gateway.NewWithHTTPClient(baseURL, o.httpClient, log)
	} else {
		api = gateway.New(baseURL, cfg.SyncTimeout, log)
	}

	app := &App{
		config:     cfg,
		log:        log,
		repo:       repo,
		api:        api,
		creds:      credential.NewStore(cfg.TokenPath, cfg.DeviceKeyPath),
		scorer:     recovery.NewScorer(cfg.RecoveryWeights),
		summarizer: insights.NewSummarizer(cfg.RiskThresholds),
		validator:  account.NewRegistrationValidator(),
		registry:   o.registry,
		now:        o.now,
	}

	rOpts := []reconcile.Option{
		reconcile.WithDeriver(record.StreamCheckIns, app.scorer.Derive),
		reconcile.WithDeriver(record.StreamWorkouts, deriveVolume),
		reconcile.WithMetrics(reconcile.NewMetrics(o.registry)),
		reconcile.WithTimeout(cfg.SyncTimeout),
		reconcile.WithMaxAttempts(cfg.MaxSyncAttempts),
	}
	for stream, gw := range api.Gateways(app.resolveWorkout) {
		rOpts = append(rOpts, reconcile.WithGateway(stream, gw))
	}
	app.reconciler = reconcile.New(repo, app.creds, log, rOpts...)
	app.syncer = NewSyncService(app)

	return app, nil
}

// Start выполняет действия при запуске клиента: дозагрузку при SYNC_ON_START
func (a *App) Start(ctx context.Context) {
	if !a.config.SyncOnStart || !a.IsAuthenticated() {
		return
	}
	if _, err := a.syncer.Sync(ctx); err != nil {
		a.log.Warn("Синхронизация при запуске не удалась", slog.String("error", err.Error()))
	}
}

// Run запускает периодическую дозагрузку до сигнала завершения
func (a *App) Run(interval time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.handleSignals()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.syncer.StartAutoSync(ctx, interval)
	}()

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
		"interval", interval,
	)

	a.wg.Wait()
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	a.log.Info("Получен сигнал завершения", "signal", sig.String())

	if a.cancel != nil {
		a.cancel()
	}
}

// Shutdown останавливает фоновую синхронизацию и закрывает хранилище
func (a *App) Shutdown() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return a.repo.Close()
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.SyncTimeout)
	defer cancel()

	status, err := a.api.Health(ctx)
	if err != nil {
		return err
	}
	a.log.Debug("Сервер доступен", slog.String("status", status))
	return nil
}

// Owner - владелец локальных записей: id пользователя или "default"
func (a *App) Owner() string {
	return a.creds.Owner()
}

// IsAuthenticated проверяет наличие сохранённых учётных данных
func (a *App) IsAuthenticated() bool {
	_, err := a.creds.Token(context.Background())
	return err == nil
}

// Config возвращает конфигурацию клиента
func (a *App) Config() *config.Config {
	return a.config
}

// Sync возвращает сервис синхронизации
func (a *App) Sync() *SyncService {
	return a.syncer
}

// resolveWorkout переводит ссылку на тренировку в серверный id.
// Ссылка ищется среди локальных тренировок по локальному и серверному id;
// числовая ссылка без локальной записи считается серверным id.
func (a *App) resolveWorkout(ctx context.Context, ref string) (string, bool, error) {
	rec, err := a.findWorkout(ctx, ref)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		if isRemoteRef(ref) {
			return ref, true, nil
		}
		return "", false, fmt.Errorf("тренировка %s не найдена", ref)
	}
	if !rec.Synced {
		return "", false, nil
	}
	return rec.RemoteID, true, nil
}

func (a *App) findWorkout(ctx context.Context, ref string) (*record.Record, error) {
	records, err := a.repo.ReadAll(ctx, a.Owner(), record.StreamWorkouts)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].LocalID == ref || (records[i].HasRemoteID() && records[i].RemoteID == ref) {
			return &records[i], nil
		}
	}
	return nil, nil
}

func isRemoteRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// deriveVolume заполняет общий объём тренировки
func deriveVolume(p record.Payload) (record.Payload, error) {
	var w record.Workout
	switch v := p.(type) {
	case record.Workout:
		w = v
	case *record.Workout:
		w = *v
	default:
		return nil, fmt.Errorf("%w: ожидалась тренировка, получено %T", record.ErrInvalidData, p)
	}
	w.TotalVolume = w.Volume()
	return w, nil
}
