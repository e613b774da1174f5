package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/synthbed/tts-api/internal/client"
)

type GlobalOptions struct {
	ServerUrl string
	APIKey    string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ServerUrl: "http://localhost:8001",
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server")
	fs.StringVarP(&o.APIKey, "api-key", "k", o.APIKey, "API key sent with every request")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

func (o *GlobalOptions) Client() *client.Client {
	return client.New(o.ServerUrl, o.APIKey)
}
