package workout

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/domain/record"
)

var limit int

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "История тренировок",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		list, err := app.ListWorkouts(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("ошибка получения тренировок: %w", err)
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("Тренировок пока нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tСервер\tНазвание\tУпражнений\tОбъём\tСоздано\tСтатус\t\n")
		for _, item := range list {
			remote := item.RemoteID
			if remote == "" {
				remote = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t\n",
				types.ShortID(item.LocalID),
				remote,
				types.Truncate(item.Payload.Name, 30),
				len(item.Payload.Exercises),
				item.Payload.TotalVolume,
				types.FormatTime(item.CreatedAt),
				types.SyncMark(item.Synced),
			)
		}
		w.Flush()
		fmt.Printf("\nВсего тренировок: %d\n", len(list))
		return nil
	},
}

var TemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Встроенные шаблоны и библиотека упражнений",
	RunE: func(cmd *cobra.Command, _ []string) error {
		templates := record.Templates()
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, map[string]any{
				"templates": templates,
				"library":   record.ExerciseLibrary(),
			})
		}

		for _, t := range templates {
			fmt.Println(types.Header("%s", t.Name))
			fmt.Printf("  %s\n", strings.Join(t.Exercises, ", "))
		}
		fmt.Println()
		fmt.Printf("Библиотека упражнений: %d\n", len(record.ExerciseLibrary()))
		return nil
	},
}

func init() {
	ListCmd.Flags().IntVar(&limit, "limit", 20, "ограничение количества записей")
}
