package cli

import (
	"github.com/spf13/cobra"
)

// NewCmdList is shorthand for `get jobs`.
func NewCmdList() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Display the job list.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate([]string{"jobs"}); err != nil {
				return err
			}
			return o.Run(cmd.Context(), []string{"jobs"})
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}
