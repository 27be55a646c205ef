package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/app/client"
	"equilibria/internal/domain/reconcile"
	"equilibria/internal/domain/record"
)

var (
	syncStatus bool
	resetStats bool
	retry      bool
	watch      time.Duration
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Дозагрузка неотправленных записей",
	Long: `Повторно отправляет на сервер записи, которые не удалось отправить
при сохранении. Записи каждого потока отправляются от старых к новым,
каждая не более одного раза за запуск. Записи, исчерпавшие лимит попыток
(MAX_SYNC_ATTEMPTS), пропускаются. В лимит засчитываются только отказы
сервера; сетевые сбои и таймауты попыток не тратят. Флаг --retry-exhausted
возвращает исчерпавшие лимит записи в очередь.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		switch {
		case resetStats:
			app.Sync().ResetStats()
			fmt.Println(types.Success("✅ Статистика синхронизации сброшена"))
			return nil
		case syncStatus:
			return showSyncStatus(cmd, app)
		case watch > 0:
			return app.Run(watch)
		}
		return runSync(cmd, app)
	},
}

func runSync(cmd *cobra.Command, app *client.App) error {
	run := app.Sync().Sync
	if retry {
		run = app.Sync().RetryExhausted
	}

	if !app.IsAuthenticated() {
		return fmt.Errorf("требуется аутентификация. Выполните: equilibria auth login")
	}

	if !types.JSONOutput(cmd) {
		fmt.Println(types.Header("=== Синхронизация данных ==="))
	}

	result, err := run(cmd.Context())
	if errors.Is(err, reconcile.ErrNoCredential) {
		return fmt.Errorf("требуется аутентификация. Выполните: equilibria auth login")
	}
	if err != nil {
		return err
	}
	if types.JSONOutput(cmd) {
		return types.PrintJSON(os.Stdout, result)
	}

	fmt.Println()
	for _, st := range result.Streams {
		if st.Pending == 0 {
			continue
		}
		fmt.Printf("%s: отправлено %d из %d", st.Stream.DisplayName(), st.Synced, st.Pending)
		if st.Owner == record.AnonymousOwner && app.Owner() != record.AnonymousOwner {
			fmt.Print(" (записи без входа)")
		}
		if st.Exhausted > 0 {
			fmt.Print(types.Warning(", исчерпали попытки: %d", st.Exhausted))
		}
		fmt.Println()
		for i, e := range st.Errors {
			if i == 3 {
				fmt.Printf("  ... и еще %d ошибок\n", len(st.Errors)-3)
				break
			}
			fmt.Printf("  • %s: %v\n", types.ShortID(e.LocalID), e.Err)
		}
	}

	if result.Success {
		fmt.Println(types.Success("✅ Синхронизация завершена! Отправлено: %d", result.Uploaded))
	} else {
		fmt.Println(types.Warning("⚠️  Синхронизация завершена с ошибками: %d", result.Failed))
	}
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))

	status, err := app.Sync().Status(cmd.Context())
	if err != nil {
		return err
	}
	printAttempts(status.Attempts)
	return nil
}

func printAttempts(attempts []reconcile.Sample) {
	if len(attempts) == 0 {
		return
	}
	fmt.Println("\n🔁 Попытки в этом запуске:")
	for _, a := range attempts {
		fmt.Printf("  %s / %s: %.0f\n", a.Stream, a.Outcome, a.Value)
	}
}

func showSyncStatus(cmd *cobra.Command, app *client.App) error {
	status, err := app.Sync().Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("ошибка получения статуса: %w", err)
	}
	if types.JSONOutput(cmd) {
		return types.PrintJSON(os.Stdout, status)
	}

	fmt.Println(types.Header("=== Статус синхронизации ==="))
	fmt.Printf("Владелец записей: %s\n", status.Owner)

	fmt.Println("\n📤 Ожидают отправки:")
	for _, s := range record.Streams() {
		fmt.Printf("  %s: %d\n", s.DisplayName(), status.Pending[s])
	}

	stats := status.Stats
	fmt.Println("\n📊 Статистика:")
	fmt.Printf("  Всего синхронизаций: %d\n", stats.TotalSyncs)
	fmt.Printf("  Отправлено записей: %d\n", stats.TotalUploaded)
	fmt.Printf("  Ошибок отправки: %d\n", stats.TotalErrors)
	fmt.Printf("  Среднее время: %.2f сек\n", stats.AvgSyncDuration)
	if !stats.LastSuccessful.IsZero() {
		fmt.Printf("  Последняя успешная: %s\n", types.FormatTime(stats.LastSuccessful))
	}
	if !stats.LastFailed.IsZero() {
		fmt.Printf("  Последняя неудачная: %s\n", types.FormatTime(stats.LastFailed))
	}

	printAttempts(status.Attempts)

	cfg := app.Config()
	fmt.Println("\n⚙️  Конфигурация:")
	fmt.Printf("  Таймаут запроса: %v\n", cfg.SyncTimeout)
	fmt.Printf("  Размер пакета: %d записей\n", cfg.DrainBatchSize)
	fmt.Printf("  Макс. попыток: %d\n", cfg.MaxSyncAttempts)
	fmt.Printf("  Синхронизация при запуске: %v\n", cfg.SyncOnStart)

	fmt.Print("\n🌐 Соединение с сервером: ")
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SyncTimeout)
	defer cancel()
	if err := app.CheckConnection(ctx); err != nil {
		fmt.Println(types.Failure("❌ Ошибка: %v", err))
	} else {
		fmt.Println(types.Success("✅ OK"))
	}

	fmt.Print("🔐 Аутентификация: ")
	if status.Authenticated {
		fmt.Println(types.Success("✅ Выполнена"))
	} else {
		fmt.Println(types.Warning("❌ Требуется вход"))
	}
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
	SyncCmd.Flags().BoolVar(&resetStats, "reset", false, "сбросить статистику синхронизации")
	SyncCmd.Flags().BoolVar(&retry, "retry-exhausted", false, "сбросить счётчики попыток и отправить отвергнутые записи заново")
	SyncCmd.Flags().DurationVar(&watch, "watch", 0, "повторять дозагрузку с интервалом до Ctrl+C")
}
