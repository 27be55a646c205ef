package workout

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/domain/record"
)

var (
	workoutName  string
	description  string
	workoutType  string
	templateName string
	exercises    []string
	isTemplate   bool
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать тренировку",
	Long: `Создает тренировку из списка упражнений или из встроенного шаблона.

Упражнение задаётся как "Название[:подходыxповторы[@вес]]", по умолчанию 3x10@0.
Общий объём тренировки считается как сумма подходов × повторов.`,
	Example: `  equilibria workout create --template "Push Day"
  equilibria workout create --name Arms -e "Curl:4x12@15" -e "Dips:3x10"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		var rec *record.Record
		if templateName != "" {
			rec, err = app.SaveTemplate(cmd.Context(), templateName)
		} else {
			var w record.Workout
			w, err = buildWorkout()
			if err != nil {
				return err
			}
			rec, err = app.SaveWorkout(cmd.Context(), w)
		}
		if err != nil {
			return fmt.Errorf("ошибка сохранения тренировки: %w", err)
		}

		saved, err := record.Decode[record.Workout]([]record.Record{*rec})
		if err != nil {
			return err
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, saved[0])
		}

		w := saved[0].Payload
		fmt.Println(types.Success("✅ Тренировка «%s» сохранена", w.Name))
		fmt.Printf("ID: %s\n", rec.LocalID)
		fmt.Printf("Упражнений: %d, общий объём: %d\n", len(w.Exercises), w.TotalVolume)
		fmt.Printf("Статус: %s\n", types.SyncMark(rec.Synced))
		return nil
	},
}

func buildWorkout() (record.Workout, error) {
	w := record.Workout{
		Name:        workoutName,
		Description: description,
		WorkoutType: workoutType,
		IsTemplate:  isTemplate,
	}
	for _, spec := range exercises {
		ex, err := parseExercise(spec)
		if err != nil {
			return record.Workout{}, err
		}
		w.Exercises = append(w.Exercises, ex)
	}
	return w, nil
}

func init() {
	CreateCmd.Flags().StringVarP(&workoutName, "name", "n", "", "название тренировки")
	CreateCmd.Flags().StringVarP(&description, "description", "d", "", "описание")
	CreateCmd.Flags().StringVar(&workoutType, "type", "strength", "тип тренировки")
	CreateCmd.Flags().StringVarP(&templateName, "template", "t", "", "создать из встроенного шаблона")
	CreateCmd.Flags().StringArrayVarP(&exercises, "exercise", "e", nil, "упражнение, можно указать несколько раз")
	CreateCmd.Flags().BoolVar(&isTemplate, "save-as-template", false, "пометить как пользовательский шаблон")
	CreateCmd.MarkFlagsMutuallyExclusive("template", "name")
	CreateCmd.MarkFlagsMutuallyExclusive("template", "exercise")
}
