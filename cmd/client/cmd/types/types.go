// Package types содержит общие для команд клиента ключи контекста и функции вывода.
package types

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"equilibria/internal/app/client"
)

type contextKey string

// ClientAppKey - ключ приложения в контексте команды
const ClientAppKey contextKey = "app"

var (
	Success = color.New(color.FgGreen).SprintfFunc()
	Warning = color.New(color.FgYellow).SprintfFunc()
	Failure = color.New(color.FgRed).SprintfFunc()
	Header  = color.New(color.Bold).SprintfFunc()
)

// App достаёт приложение из контекста команды
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

// JSONOutput сообщает, запрошен ли вывод в JSON (флаг --json)
func JSONOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

func PrintJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// SyncMark - отметка статуса синхронизации записи
func SyncMark(synced bool) string {
	if synced {
		return Success("✓ синхронизировано")
	}
	return Warning("⏳ ожидает отправки")
}

func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

// ShortID - первые 8 символов локального id
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
