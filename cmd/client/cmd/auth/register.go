package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/domain/account"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать нового пользователя",
	Long: `Регистрация нового пользователя на сервере Equilibria.

После регистрации войдите в систему, чтобы записи отправлялись на сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		fmt.Println(types.Header("=== Регистрация нового пользователя ==="))
		fmt.Println()

		email := prompt("Email: ")
		username := prompt("Имя пользователя: ")
		if email == "" || username == "" {
			return fmt.Errorf("email и имя пользователя обязательны")
		}

		password, err := readPassword("Пароль: ")
		if err != nil {
			return err
		}
		passwordConfirm, err := readPassword("Повторите пароль: ")
		if err != nil {
			return err
		}

		if password != passwordConfirm {
			return fmt.Errorf("пароли не совпадают")
		}
		if err := account.NewRegistrationValidator().ValidatePassword(password); err != nil {
			return err
		}

		fmt.Println("Регистрация...")
		user, err := app.Register(cmd.Context(), email, username, password)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(types.Success("✅ Регистрация успешно завершена! id: %s", user.ID))
		fmt.Println("Теперь вы можете войти в систему: equilibria auth login")
		return nil
	},
}
