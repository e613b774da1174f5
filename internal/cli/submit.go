package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/synthbed/tts-api/api/v1"
)

type SubmitOptions struct {
	GlobalOptions

	Language   string
	WebhookURL string
	File       string
}

func DefaultSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdSubmit() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:   "submit [TEXT]",
		Short: "Submit a text-to-speech job.",
		Args:  cobra.MaximumNArgs(1),
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

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Language, "language", "l", o.Language, "Language of the text (defaults to the server default)")
	fs.StringVarP(&o.WebhookURL, "webhook-url", "w", o.WebhookURL, "URL notified when the job reaches a terminal state")
	fs.StringVarP(&o.File, "file", "f", o.File, "Read the text from a file instead of the argument ('-' for stdin)")
}

func (o *SubmitOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if len(args) == 0 && o.File == "" {
		return fmt.Errorf("provide the text as an argument or via --file")
	}
	if o.WebhookURL == "" {
		return fmt.Errorf("--webhook-url is required")
	}
	return nil
}

func (o *SubmitOptions) Run(ctx context.Context, args []string) error {
	text, err := o.readText(args)
	if err != nil {
		return err
	}

	response, err := o.Client().CreateJob(ctx, api.CreateJobRequest{
		Text:       text,
		Language:   o.Language,
		WebhookURL: o.WebhookURL,
	})
	if err != nil {
		return fmt.Errorf("submitting job: %w", err)
	}

	fmt.Printf("%s\t%s\n", response.JobID, response.Status)
	return nil
}

func (o *SubmitOptions) readText(args []string) (string, error) {
	switch {
	case o.File == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	case o.File != "":
		data, err := os.ReadFile(o.File)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", o.File, err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return args[0], nil
	}
}
