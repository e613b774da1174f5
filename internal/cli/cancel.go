package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type CancelOptions struct {
	GlobalOptions
}

func DefaultCancelOptions() *CancelOptions {
	return &CancelOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdCancel() *cobra.Command {
	o := DefaultCancelOptions()
	cmd := &cobra.Command{
		Use:   "cancel JOB_ID",
		Short: "Cancel a pending job.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *CancelOptions) Run(ctx context.Context, args []string) error {
	job, err := o.Client().CancelJob(ctx, args[0])
	if err != nil {
		return fmt.Errorf("cancelling %s: %w", args[0], err)
	}

	fmt.Printf("%s\t%s\n", job.JobID, job.Status)
	return nil
}
