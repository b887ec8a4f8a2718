package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/loangate/approval"
	"github.com/YuminosukeSato/loangate/config"
	"github.com/YuminosukeSato/loangate/dataset"
	"github.com/YuminosukeSato/loangate/metrics"
	"github.com/YuminosukeSato/loangate/pkg/log"
	"github.com/YuminosukeSato/loangate/pkg/telemetry"
	"github.com/YuminosukeSato/loangate/store"
)

func newTrainCmd(root *rootOptions) *cobra.Command {
	var (
		dataPath    string
		outPath     string
		lossPlot    string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model on a CSV dataset and save its snapshot",
		Example: `  loangate train --data loan_approval_dataset.csv --out model.json
  loangate train --data loans.csv --config loangate.yaml --loss-plot loss.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := root.cfg

			storeCfg := cfg.Store
			if outPath != "" {
				storeCfg = config.StoreConfig{Driver: config.DriverFile, Path: outPath}
			}
			st, err := store.Open(ctx, storeCfg)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := dataset.LoadCSV(dataPath)
			if err != nil {
				return err
			}

			pcfg := cfg.Pipeline()
			pcfg.RecordLoss = lossPlot != ""
			pipeline, err := approval.NewPipeline(pcfg, root.logger.With(log.ComponentKey, "approval"))
			if err != nil {
				return err
			}

			recorder := telemetry.NewRecorder()
			svc := approval.NewService(pipeline, st, recorder, root.logger.With(log.StoreDriverKey, storeCfg.Driver))
			result, err := svc.Train(ctx, records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "snapshot %s (train=%d, test=%d)\n",
				result.Snapshot.ID, result.Split.TrainSize(), result.Split.TestSize())
			if result.Report != nil {
				fmt.Fprintln(out, result.Report)
			} else {
				fmt.Fprintln(out, "no test split; evaluation skipped")
			}

			if lossPlot != "" {
				if err := metrics.SaveLossCurve(lossPlot, result.LossHistory); err != nil {
					return err
				}
			}
			if metricsFile != "" {
				if err := recorder.WriteTextfile(metricsFile); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "CSV dataset with a loan_status column")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the snapshot to this JSON file instead of the configured store")
	cmd.Flags().StringVar(&lossPlot, "loss-plot", "", "Save the training loss curve (.png, .svg or .pdf)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
