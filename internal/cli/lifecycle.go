package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

func init() {
	rootCmd.AddCommand(
		newLifecycleCmd("activate", "Activate a draft or paused experiment",
			func(eng *engine.Engine, id string) (*store.Experiment, error) {
				return eng.Activate(context.Background(), id, tenant)
			}),
		newLifecycleCmd("pause", "Pause an active experiment",
			func(eng *engine.Engine, id string) (*store.Experiment, error) {
				return eng.Pause(context.Background(), id, tenant)
			}),
		newLifecycleCmd("stop", "Complete an experiment (terminal)",
			func(eng *engine.Engine, id string) (*store.Experiment, error) {
				return eng.Stop(context.Background(), id, tenant)
			}),
		newDeleteCmd(),
	)
}

func newLifecycleCmd(use, short string, run func(*engine.Engine, string) (*store.Experiment, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <experiment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(eng *engine.Engine, _ store.Store) error {
				exp, err := run(eng, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Experiment '%s' is now %s.\n", exp.Name, exp.Status)
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <experiment-id>",
		Short: "Delete a draft experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(eng *engine.Engine, _ store.Store) error {
				if err := eng.Delete(context.Background(), args[0], tenant); err != nil {
					return err
				}
				fmt.Println("Experiment deleted.")
				return nil
			})
		},
	}
}
