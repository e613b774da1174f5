package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/synthbed/tts-api/internal/cli"
)

func main() {
	command := NewTTSCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewTTSCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ttsctl [flags] [options]",
		Short: "ttsctl controls the TTS API service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdSubmit())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdList())
	cmd.AddCommand(cli.NewCmdCancel())
	cmd.AddCommand(cli.NewCmdDownload())
	cmd.AddCommand(cli.NewCmdListen())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
