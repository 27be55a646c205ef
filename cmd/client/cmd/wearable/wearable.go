package wearable

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"equilibria/cmd/client/cmd/types"
	"equilibria/internal/domain/record"
)

var (
	source    string
	date      string
	inputFile string
	sample    record.WearableSample
	limit     int
)

// WearableCmd - родительская команда данных носимых устройств
var WearableCmd = &cobra.Command{
	Use:   "wearable",
	Short: "Данные носимых устройств",
}

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Сохранить показания устройства",
	Long: `Сохраняет дневные показания носимого устройства (Apple Health, Google Fit, Oura и др.).

Показания можно передать флагами или JSON-файлом в формате API (--file, "-" для stdin).`,
	Example: `  equilibria wearable sync --source oura --date 2026-03-04 --hrv 62 --sleep-minutes 450 --steps 9000
  equilibria wearable sync --file export.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		in, err := readSample()
		if err != nil {
			return err
		}

		rec, err := app.SyncWearable(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("ошибка сохранения показаний: %w", err)
		}

		if types.JSONOutput(cmd) {
			saved, err := record.Decode[record.WearableSample]([]record.Record{*rec})
			if err != nil {
				return err
			}
			return types.PrintJSON(os.Stdout, saved[0])
		}
		fmt.Println(types.Success("✅ Показания %s за %s сохранены", in.Source, in.MeasurementDate.Format("2006-01-02")))
		fmt.Printf("Статус: %s\n", types.SyncMark(rec.Synced))
		return nil
	},
}

func readSample() (record.WearableSample, error) {
	if inputFile == "" {
		in := sample
		in.Source = source
		d, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return record.WearableSample{}, fmt.Errorf("некорректная дата %q: %w", date, err)
		}
		in.MeasurementDate = d
		return in, nil
	}

	var r io.Reader = os.Stdin
	if inputFile != "-" {
		f, err := os.Open(inputFile)
		if err != nil {
			return record.WearableSample{}, fmt.Errorf("ошибка открытия файла: %w", err)
		}
		defer f.Close()
		r = f
	}

	var in record.WearableSample
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return record.WearableSample{}, fmt.Errorf("ошибка разбора показаний: %w", err)
	}
	return in, nil
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "История показаний",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		list, err := app.ListWearables(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("ошибка получения показаний: %w", err)
		}
		if types.JSONOutput(cmd) {
			return types.PrintJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("Показаний пока нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tИсточник\tДата\tHRV\tПульс покоя\tСон, мин\tШаги\tСтатус\t\n")
		for _, s := range list {
			p := s.Payload
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%d\t%d\t%d\t%s\t\n",
				types.ShortID(s.LocalID),
				p.Source,
				p.MeasurementDate.Format("2006-01-02"),
				p.HRVRmssd,
				p.RestingHeartRate,
				p.SleepDurationMinutes,
				p.Steps,
				types.SyncMark(s.Synced),
			)
		}
		w.Flush()
		return nil
	},
}

func init() {
	f := SyncCmd.Flags()
	f.StringVar(&source, "source", "", "источник: apple_health, google_fit, oura, ble")
	f.StringVar(&date, "date", time.Now().Format("2006-01-02"), "дата измерения (ГГГГ-ММ-ДД)")
	f.StringVar(&inputFile, "file", "", "JSON-файл с показаниями")
	f.Float64Var(&sample.HRVRmssd, "hrv", 0, "HRV RMSSD, мс")
	f.Float64Var(&sample.HRVSdnn, "hrv-sdnn", 0, "HRV SDNN, мс")
	f.IntVar(&sample.RestingHeartRate, "resting-hr", 0, "пульс покоя")
	f.IntVar(&sample.AvgHeartRate, "avg-hr", 0, "средний пульс")
	f.IntVar(&sample.SleepDurationMinutes, "sleep-minutes", 0, "длительность сна, минут")
	f.IntVar(&sample.DeepSleepMinutes, "deep-sleep", 0, "глубокий сон, минут")
	f.IntVar(&sample.RemSleepMinutes, "rem-sleep", 0, "REM-сон, минут")
	f.IntVar(&sample.Steps, "steps", 0, "шаги")
	f.IntVar(&sample.ActiveCalories, "calories", 0, "активные калории")
	SyncCmd.MarkFlagsMutuallyExclusive("file", "source")

	ListCmd.Flags().IntVar(&limit, "limit", 20, "ограничение количества записей")
}
