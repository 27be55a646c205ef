package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AuthCmd - родительская команда для всех операций с авторизацией пользователя
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Управление пользователем",
	Long:  `Регистрация, вход, выход и просмотр текущего пользователя.`,
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) string {
	fmt.Print(label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(label string) (string, error) {
	fmt.Print(label)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(password), nil
}
