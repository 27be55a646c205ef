package insights

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/app/client"
	"equilibria/internal/domain/insights"
	"equilibria/internal/domain/record"
)

// InsightsCmd - родительская команда аналитики
var InsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Сводки и главный экран",
}

var SummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Недельная сводка",
	Long: `Сводка за последние 7 суток: средняя оценка восстановления, число
тренировок и дней отдыха, общий объём (с предупреждением, если он выше
RISK_HIGH_VOLUME_ABOVE) и риск перетренированности.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		sum, err := app.WeeklySummary(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка расчёта сводки: %w", err)
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, sum)
		}

		printSummary(sum)
		return nil
	},
}

var DashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Главный экран: оценка дня и ожидающие отправки записи",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		d, err := app.Dashboard(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка загрузки главного экрана: %w", err)
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, d)
		}

		fmt.Println(types.Header("=== Сегодня ==="))
		switch d.Source {
		case client.SourceNone:
			fmt.Println("Данных о восстановлении пока нет. Отметьтесь: equilibria checkin submit")
		default:
			fmt.Printf("Оценка восстановления: %s (%s)\n", scoreColor(*d.Score), sourceName(d.Source))
			fmt.Printf("Рекомендуемая нагрузка: %s\n", d.Recommendation)
		}
		if d.Offline {
			fmt.Println(types.Warning("⚠️  Сервер недоступен, показаны локальные данные"))
		}

		if d.PendingTotal > 0 {
			fmt.Println(types.Warning("Ожидают отправки: %d", d.PendingTotal))
			for _, s := range record.Streams() {
				if n := d.Pending[s]; n > 0 {
					fmt.Printf("  %s: %d\n", s.DisplayName(), n)
				}
			}
		}
		fmt.Println()
		printSummary(d.Weekly)
		return nil
	},
}

var weekdays = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

func printSummary(sum insights.WeeklySummary) {
	fmt.Println(types.Header("=== Неделя %s - %s ===", sum.From.Format("02.01"), sum.To.Format("02.01")))
	if sum.AverageRecoveryScore != nil {
		fmt.Printf("Средняя оценка: %s\n", scoreColor(*sum.AverageRecoveryScore))
	} else {
		fmt.Println("Средняя оценка: нет отметок")
	}
	fmt.Printf("Отметок: %d, тренировок: %d, дней отдыха: %d\n", sum.CheckInCount, sum.WorkoutCount, sum.RestDays)
	fmt.Printf("Общий объём: %d подходов\n", sum.TotalVolume)
	if sum.HighVolume {
		fmt.Println(types.Warning("⚠️  Высокий объём: риск перетренированности"))
	} else {
		fmt.Println(types.Success("Объём тренировок в норме"))
	}
	fmt.Printf("Риск перетренированности: %s\n", riskName(sum.OvertrainingRisk))
	if sum.PendingSyncCount > 0 {
		fmt.Println(types.Warning("Не отправлено на сервер: %d", sum.PendingSyncCount))
	}

	fmt.Println()
	for i, day := range sum.Days {
		bar := ""
		score := "  - "
		if day.AverageScore != nil {
			bar = strings.Repeat("█", int(*day.AverageScore+0.5))
			score = fmt.Sprintf("%4.1f", *day.AverageScore)
		}
		fmt.Printf("%s %s %-10s объём %d\n", weekdays[i], score, bar, day.TotalVolume)
	}
}

func scoreColor(score float64) string {
	switch {
	case score >= 8:
		return types.Success("%.1f", score)
	case score >= 5:
		return types.Warning("%.1f", score)
	default:
		return types.Failure("%.1f", score)
	}
}

func sourceName(s client.ScoreSource) string {
	if s == client.SourceRemote {
		return "с сервера"
	}
	return "локально"
}

func riskName(r insights.Risk) string {
	switch r {
	case insights.RiskHigh:
		return types.Failure("высокий")
	case insights.RiskMedium:
		return types.Warning("средний")
	case insights.RiskLow:
		return types.Success("низкий")
	default:
		return "недостаточно данных"
	}
}
