package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DownloadOptions struct {
	GlobalOptions

	Output string
}

func DefaultDownloadOptions() *DownloadOptions {
	return &DownloadOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDownload() *cobra.Command {
	o := DefaultDownloadOptions()
	cmd := &cobra.Command{
		Use:   "download JOB_ID",
		Short: "Download the audio of a completed job.",
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

func (o *DownloadOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, "Target file (defaults to <JOB_ID>.wav)")
}

func (o *DownloadOptions) Run(ctx context.Context, args []string) error {
	id := args[0]

	data, err := o.Client().DownloadAudio(ctx, id)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", id, err)
	}

	target := o.Output
	if target == "" {
		target = id + ".wav"
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	fmt.Printf("%s\t%d bytes\n", target, len(data))
	return nil
}
