package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/domain/record"
)

var (
	workoutRef string
	duration   int
	completed  []string
	notes      string
	limit      int
)

// SessionCmd - родительская команда выполненных тренировок
var SessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Выполненные тренировки",
}

var LogCmd = &cobra.Command{
	Use:   "log",
	Short: "Записать выполненную тренировку",
	Long: `Сохраняет факт выполнения тренировки.

Тренировка указывается локальным id (из workout list) или серверным id.
Если тренировка ещё не отправлена на сервер, запись будет отправлена
после её синхронизации.`,
	Example: `  equilibria session log --workout 1b4e28ba --duration 55 -x Squat -x "Leg Extensions"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		rec, err := app.LogSession(cmd.Context(), record.WorkoutSession{
			WorkoutID:          workoutRef,
			DurationMinutes:    duration,
			ExercisesCompleted: completed,
			Notes:              notes,
		})
		if err != nil {
			return fmt.Errorf("ошибка сохранения тренировки: %w", err)
		}

		if types.JSONOutput(cmd) {
			saved, err := record.Decode[record.WorkoutSession]([]record.Record{*rec})
			if err != nil {
				return err
			}
			return types.PrintJSON(os.Stdout, saved[0])
		}

		fmt.Println(types.Success("✅ Тренировка записана"))
		fmt.Printf("ID: %s\n", rec.LocalID)
		fmt.Printf("Статус: %s\n", types.SyncMark(rec.Synced))
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "История выполненных тренировок",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		list, err := app.ListSessions(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("ошибка получения истории: %w", err)
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("Выполненных тренировок пока нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tТренировка\tМинут\tУпражнений\tДата\tСтатус\t\n")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t\n",
				types.ShortID(s.LocalID),
				types.ShortID(s.Payload.WorkoutID),
				s.Payload.DurationMinutes,
				len(s.Payload.ExercisesCompleted),
				types.FormatTime(s.CreatedAt),
				types.SyncMark(s.Synced),
			)
		}
		w.Flush()
		return nil
	},
}

var ShowCmd = &cobra.Command{
	Use:   "show <local-id|prefix>",
	Short: "Подробности выполненной тренировки",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		s, err := app.GetSession(cmd.Context(), args[0])
		if errors.Is(err, record.ErrNotFound) {
			return fmt.Errorf("выполненная тренировка %s не найдена", args[0])
		}
		if err != nil {
			return err
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, s)
		}

		fmt.Println(types.Header("=== Выполненная тренировка ==="))
		fmt.Printf("ID: %s\n", s.LocalID)
		if s.RemoteID != "" {
			fmt.Printf("Серверный ID: %s\n", s.RemoteID)
		}
		fmt.Printf("Тренировка: %s\n", s.Payload.WorkoutID)
		fmt.Printf("Длительность: %d мин\n", s.Payload.DurationMinutes)
		fmt.Printf("Дата: %s\n", types.FormatTime(s.CreatedAt))
		if len(s.Payload.ExercisesCompleted) > 0 {
			fmt.Printf("Упражнения: %s\n", strings.Join(s.Payload.ExercisesCompleted, ", "))
		}
		if s.Payload.Notes != "" {
			fmt.Printf("Заметки: %s\n", s.Payload.Notes)
		}
		fmt.Printf("Статус: %s\n", types.SyncMark(s.Synced))
		return nil
	},
}

func init() {
	LogCmd.Flags().StringVarP(&workoutRef, "workout", "w", "", "id тренировки")
	LogCmd.Flags().IntVarP(&duration, "duration", "d", 0, "длительность, минут")
	LogCmd.Flags().StringArrayVarP(&completed, "exercise", "x", nil, "выполненное упражнение, можно указать несколько раз")
	LogCmd.Flags().StringVar(&notes, "notes", "", "заметки")
	_ = LogCmd.MarkFlagRequired("workout")
	_ = LogCmd.MarkFlagRequired("duration")

	ListCmd.Flags().IntVar(&limit, "limit", 20, "ограничение количества записей")
}
