package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/synthbed/tts-api/internal/webhook"
)

type ListenOptions struct {
	GlobalOptions

	Address string
	Secret  string
}

func DefaultListenOptions() *ListenOptions {
	return &ListenOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Address:       ":9090",
		Secret:        "your-webhook-secret-key-change-in-production",
	}
}

// NewCmdListen runs a local webhook receiver that verifies and prints
// incoming job notifications. Useful when trying the service out.
func NewCmdListen() *cobra.Command {
	o := DefaultListenOptions()
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run a local webhook receiver that verifies signatures.",
		Args:  cobra.NoArgs,
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

func (o *ListenOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Address, "address", "a", o.Address, "Address to listen on")
	fs.StringVarP(&o.Secret, "secret", "s", o.Secret, "Shared secret used to verify signatures")
}

func (o *ListenOptions) Run(ctx context.Context, args []string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get("X-Webhook-Signature")
		timestamp, err := strconv.ParseInt(r.Header.Get("X-Webhook-Timestamp"), 10, 64)
		if err != nil || !webhook.VerifyBody(body, timestamp, signature, o.Secret) {
			fmt.Printf("REJECTED\t%s\tbad signature\n", r.Header.Get("X-Webhook-ID"))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		fmt.Printf("VERIFIED\t%s\tattempt=%s\t%s\n",
			r.Header.Get("X-Webhook-ID"), r.Header.Get("X-Webhook-Attempt"), string(body))
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: o.Address, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	fmt.Printf("listening for webhooks on %s\n", o.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
