package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"equilibria/cmd/client/cmd/sync"
	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/app/client"
	"equilibria/internal/app/client/config"
	"equilibria/internal/utils/logger"
)

var (
	cfgFile    string
	cfg        *config.Config
	log        *slog.Logger
	app        *client.App
	debug      bool
	jsonOutput bool
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "equilibria",
	Short: "Equilibria - дневник восстановления и тренировок",
	Long: `Equilibria - клиент для ежедневных отметок самочувствия, тренировок
и данных носимых устройств.

Все записи сначала сохраняются локально и работают без сети. При наличии
входа они отправляются на сервер; неотправленные записи дозагружаются
командой sync.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, types.Failure("Ошибка: %v", err))
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(config.Options{ConfigFile: cfgFile})
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log = logger.WithLevel(cfg.Env, level)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}
	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))

	if drainsOnStart(cmd) {
		app.Start(cmd.Context())
	}
	return nil
}

// drainsOnStart: команда sync сама управляет дозагрузкой, остальные
// (включая wearable sync) запускают её при SYNC_ON_START
func drainsOnStart(cmd *cobra.Command) bool {
	return cmd != sync.SyncCmd
}

func shutdownApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Shutdown()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера Equilibria")
}
