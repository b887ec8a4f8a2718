package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/loangate/approval"
	"github.com/YuminosukeSato/loangate/config"
	"github.com/YuminosukeSato/loangate/dataset"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/pkg/telemetry"
	"github.com/YuminosukeSato/loangate/preprocessing"
	"github.com/YuminosukeSato/loangate/store"
)

// parseRecordFlag parses "name=value,name=value".
func parseRecordFlag(s string) (map[string]string, error) {
	values := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.NewValueError("--record", fmt.Sprintf("expected name=value, got %q", pair))
		}
		values[strings.TrimSpace(k)] = v
	}
	return values, nil
}

func newPredictCmd(root *rootOptions) *cobra.Command {
	var (
		modelPath   string
		record      string
		csvPath     string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict approval for one record or a CSV of records",
		Example: `  loangate predict --model model.json --record "no_of_dependents=2,education=Graduate,self_employed=No,income_amount=9600000,loan_amont=29900000,loan_amont_term=12,cibil_score=778,residential_assets_value=2400000,commercial_assets_value=17600000,luxury_assets_value=22700000,bank_asset_value=8000000"
  loangate predict --model model.json --csv applications.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (record == "") == (csvPath == "") {
				return errors.New("exactly one of --record or --csv is required")
			}
			ctx := cmd.Context()

			storeCfg := root.cfg.Store
			if modelPath != "" {
				storeCfg = config.StoreConfig{Driver: config.DriverFile, Path: modelPath}
			}
			st, err := store.Open(ctx, storeCfg)
			if err != nil {
				return err
			}
			defer st.Close()

			recorder := telemetry.NewRecorder()
			svc := approval.NewService(nil, st, recorder, root.logger)
			if _, err := svc.LoadLatest(ctx); err != nil {
				return err
			}

			var records []preprocessing.Record
			if record != "" {
				values, err := parseRecordFlag(record)
				if err != nil {
					return err
				}
				r, err := dataset.ParseRecord(values)
				if err != nil {
					return err
				}
				records = []preprocessing.Record{r}
			} else {
				f, err := os.Open(csvPath)
				if err != nil {
					return errors.Wrapf(err, "failed to open %s", csvPath)
				}
				defer f.Close()
				if records, err = dataset.ReadUnlabeledCSV(f); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for i, r := range records {
				d, err := svc.Predict(r)
				if err != nil {
					return errors.Wrapf(err, "record %d", i)
				}
				status := "rejected"
				if d.Approved() {
					status = "approved"
				}
				fmt.Fprintf(out, "%d\t%s\t%.4f\n", i, status, d.Probability)
			}

			if metricsFile != "" {
				return recorder.WriteTextfile(metricsFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Snapshot JSON file; defaults to the configured store")
	cmd.Flags().StringVar(&record, "record", "", "One application as name=value pairs separated by commas")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file of applications")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")
	return cmd
}
