package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/auth"
	"equilibria/cmd/client/cmd/checkin"
	"equilibria/cmd/client/cmd/insights"
	"equilibria/cmd/client/cmd/session"
	"equilibria/cmd/client/cmd/sync"
	"equilibria/cmd/client/cmd/types"
	"equilibria/cmd/client/cmd/wearable"
	"equilibria/cmd/client/cmd/workout"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент Equilibria",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает каталог конфигурации и config.yaml с текущими настройками
	2. Создает локальное хранилище записей
	3. Проверяет соединение с сервером

Клиент работает и без сервера: записи сохраняются локально и
отправляются позже командой sync.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println(types.Header("=== Инициализация Equilibria ==="))
		fmt.Println()

		path, created, err := cfg.WriteDefault()
		if err != nil {
			return err
		}
		if created {
			fmt.Println(types.Success("✓ Создан файл конфигурации: %s", path))
		} else {
			fmt.Printf("Файл конфигурации уже существует: %s\n", path)
		}

		if cfg.InMemory() {
			fmt.Println(types.Warning("⚠️  DATA_PATH=:memory: записи не сохраняются между запусками"))
		} else {
			fmt.Println(types.Success("✓ Локальное хранилище: %s", cfg.DataPath))
		}

		fmt.Println("Проверка соединения с сервером...")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			fmt.Println(types.Warning("⚠️  Не удалось подключиться к серверу: %v", err))
			fmt.Println("Вы можете работать в офлайн-режиме, записи будут отправлены позже.")
		} else {
			fmt.Println(types.Success("✓ Соединение с сервером установлено"))
		}

		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Зарегистрируйтесь: equilibria auth register")
		fmt.Println("2. Войдите в систему: equilibria auth login")
		fmt.Println("3. Отметьте самочувствие: equilibria checkin submit")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.WhoAmICmd)

	rootCmd.AddCommand(checkin.CheckInCmd)
	checkin.CheckInCmd.AddCommand(checkin.SubmitCmd)
	checkin.CheckInCmd.AddCommand(checkin.ListCmd)

	rootCmd.AddCommand(workout.WorkoutCmd)
	workout.WorkoutCmd.AddCommand(workout.CreateCmd)
	workout.WorkoutCmd.AddCommand(workout.ListCmd)
	workout.WorkoutCmd.AddCommand(workout.TemplatesCmd)

	rootCmd.AddCommand(session.SessionCmd)
	session.SessionCmd.AddCommand(session.LogCmd)
	session.SessionCmd.AddCommand(session.ListCmd)
	session.SessionCmd.AddCommand(session.ShowCmd)

	rootCmd.AddCommand(wearable.WearableCmd)
	wearable.WearableCmd.AddCommand(wearable.SyncCmd)
	wearable.WearableCmd.AddCommand(wearable.ListCmd)

	rootCmd.AddCommand(insights.InsightsCmd)
	insights.InsightsCmd.AddCommand(insights.SummaryCmd)
	insights.InsightsCmd.AddCommand(insights.DashboardCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
