package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/app/client/gateway"
)

var (
	loginEmail string
	skipSync   bool
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему Equilibria",
	Long: `Аутентификация на сервере Equilibria.

Токен сохраняется локально в зашифрованном виде. После входа
неотправленные записи пользователя дозагружаются на сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		fmt.Println(types.Header("=== Вход в систему ==="))
		fmt.Println()

		email := loginEmail
		if email == "" {
			email = prompt("Email: ")
		}
		password, err := readPassword("Пароль: ")
		if err != nil {
			return err
		}

		fmt.Println("Аутентификация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		cred, err := app.Login(ctx, email, password)
		if errors.Is(err, gateway.ErrUnauthorized) {
			return fmt.Errorf("неверный email или пароль")
		}
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(types.Success("✅ Вход выполнен успешно! Пользователь: %s", cred.Username))

		if skipSync {
			return nil
		}

		fmt.Println("Синхронизация данных...")
		result, err := app.Sync().Sync(ctx)
		switch {
		case err != nil:
			fmt.Println(types.Warning("⚠️  Ошибка синхронизации: %v", err))
			fmt.Println("Вы можете продолжить работу в офлайн-режиме")
		case !result.Success:
			fmt.Println(types.Warning("⚠️  Синхронизация завершена с ошибками (%d)", result.Failed))
			fmt.Println("Вы можете продолжить работу в офлайн-режиме")
		default:
			fmt.Println(types.Success("✓ Данные синхронизированы, отправлено: %d", result.Uploaded))
		}
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "email пользователя")
	LoginCmd.Flags().BoolVar(&skipSync, "no-sync", false, "не дозагружать записи после входа")
}
