package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/loangate/config"
	"github.com/YuminosukeSato/loangate/metrics"
	"github.com/YuminosukeSato/loangate/store"
)

// historyLen is how many previous snapshot IDs show lists.
const historyLen = 5

// historian is implemented by stores that remember earlier snapshots.
type historian interface {
	History(ctx context.Context, n int) ([]string, error)
}

func newShowCmd(root *rootOptions) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the parameters and metrics stored in a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			snap, err := st.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:            %s\n", snap.ID)
			fmt.Fprintf(out, "created:       %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(out, "learning rate: %g\n", snap.HyperParams.LearningRate)
			fmt.Fprintf(out, "epochs:        %d\n", snap.HyperParams.Epochs)
			fmt.Fprintf(out, "split:         %.2f/%.2f (seed %d)\n", snap.Split.Training, snap.Split.Testing, snap.Split.Seed)
			fmt.Fprintf(out, "bias:          %.6f\n\n", snap.Bias)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "feature\tweight\tmean\tstd")
			for j, w := range snap.Weights {
				name := fmt.Sprintf("x%d", j)
				if j < len(snap.FeatureNames) {
					name = snap.FeatureNames[j]
				}
				fmt.Fprintf(tw, "%s\t%.6f\t%.4g\t%.4g\n", name, w, snap.Mean[j], snap.Std[j])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if report := metrics.ReportFromRecord(snap.Metrics); report != nil {
				fmt.Fprintf(out, "\n%s\n", report)
			}

			if h, ok := st.(historian); ok {
				ids, err := h.History(ctx, historyLen)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nrecent snapshots:\n")
				for _, id := range ids {
					fmt.Fprintf(out, "  %s\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Snapshot JSON file; defaults to the configured store")
	return cmd
}
