package workout

import (
	"github.com/spf13/cobra"
)

// WorkoutCmd - родительская команда тренировок
var WorkoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Тренировки и шаблоны",
	Long:  `Создание тренировок вручную или из встроенных шаблонов, просмотр истории.`,
}
