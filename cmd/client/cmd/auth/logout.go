package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/app/client/credential"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long: `Удаляет сохранённый токен. Локальные записи остаются на устройстве
и снова станут доступны после входа под тем же пользователем.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if err := app.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}
		fmt.Println(types.Success("✓ Выход выполнен"))
		return nil
	},
}

var WhoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Показать текущего пользователя",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		cred, err := app.CurrentUser()
		if errors.Is(err, credential.ErrNoCredential) {
			fmt.Println("Вход не выполнен, записи сохраняются как", app.Owner())
			return nil
		}
		if err != nil {
			return err
		}

		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, map[string]string{
				"id": cred.UserID, "email": cred.Email, "username": cred.Username,
			})
		}
		fmt.Printf("Пользователь: %s <%s>\n", cred.Username, cred.Email)
		fmt.Printf("ID: %s\n", cred.UserID)
		fmt.Printf("Вход выполнен: %s\n", types.FormatTime(cred.IssuedAt))
		return nil
	},
}
