package checkin

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/domain/record"
)

var (
	sleepHours   float64
	sleepQuality int
	soreness     int
	energy       int
	stress       int
	hrv          float64
	limit        int
)

// CheckInCmd - родительская команда ежедневных отметок
var CheckInCmd = &cobra.Command{
	Use:     "checkin",
	Aliases: []string{"ci"},
	Short:   "Ежедневные отметки самочувствия",
}

var SubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Отметить самочувствие",
	Long: `Сохраняет утреннюю отметку: сон, болезненность мышц, энергию и стресс.

Оценка восстановления считается локально и уточняется сервером, если
отметка отправлена. Без сети отметка сохраняется и отправляется позже.`,
	Example: `  equilibria checkin submit --sleep 7.5 --quality 8 --soreness 3 --energy 7 --stress 4
  equilibria checkin submit --sleep 6 --soreness 6 --energy 4 --hrv 48`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		in := newCheckIn(cmd)
		rec, err := app.SubmitCheckIn(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("ошибка сохранения отметки: %w", err)
		}

		saved, err := record.Decode[record.CheckIn]([]record.Record{*rec})
		if err != nil {
			return err
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, saved[0])
		}

		p := saved[0].Payload
		fmt.Println(types.Success("✅ Отметка сохранена"))
		fmt.Printf("Оценка восстановления: %.1f / 10\n", p.RecoveryScore)
		fmt.Printf("Рекомендуемая нагрузка: %s\n", p.RecommendedIntensity)
		fmt.Printf("Статус: %s\n", types.SyncMark(rec.Synced))
		return nil
	},
}

func newCheckIn(cmd *cobra.Command) record.CheckIn {
	in := record.CheckIn{
		SleepHours:    sleepHours,
		SleepQuality:  sleepQuality,
		SorenessLevel: soreness,
		EnergyLevel:   energy,
		StressLevel:   stress,
	}
	if cmd.Flags().Changed("hrv") {
		v := hrv
		in.HRVRmssd = &v
	}
	return in
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "История отметок",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		list, err := app.ListCheckIns(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("ошибка получения истории: %w", err)
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("Отметок пока нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tДата\tСон\tБолезн.\tЭнергия\tОценка\tНагрузка\tСтатус\t\n")
		for _, c := range list {
			p := c.Payload
			fmt.Fprintf(w, "%s\t%s\t%.1f ч\t%d\t%d\t%.1f\t%s\t%s\t\n",
				types.ShortID(c.LocalID),
				types.FormatTime(c.CreatedAt),
				p.SleepHours,
				p.SorenessLevel,
				p.EnergyLevel,
				p.RecoveryScore,
				p.RecommendedIntensity,
				types.SyncMark(c.Synced),
			)
		}
		w.Flush()
		fmt.Printf("\nВсего отметок: %d\n", len(list))
		return nil
	},
}

func init() {
	SubmitCmd.Flags().Float64Var(&sleepHours, "sleep", 0, "часы сна")
	SubmitCmd.Flags().IntVar(&sleepQuality, "quality", 5, "качество сна (0-10)")
	SubmitCmd.Flags().IntVar(&soreness, "soreness", 0, "болезненность мышц (1-10)")
	SubmitCmd.Flags().IntVar(&energy, "energy", 0, "уровень энергии (1-10)")
	SubmitCmd.Flags().IntVar(&stress, "stress", 5, "уровень стресса (0-10)")
	SubmitCmd.Flags().Float64Var(&hrv, "hrv", 0, "HRV RMSSD, мс")
	_ = SubmitCmd.MarkFlagRequired("sleep")
	_ = SubmitCmd.MarkFlagRequired("soreness")
	_ = SubmitCmd.MarkFlagRequired("energy")

	ListCmd.Flags().IntVar(&limit, "limit", 20, "ограничение количества записей")
}
