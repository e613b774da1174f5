package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"

	api "github.com/synthbed/tts-api/api/v1"
)

const (
	jsonFormat = "json"
)

var (
	legalOutputTypes = []string{jsonFormat}
)

type GetOptions struct {
	GlobalOptions

	Output   string
	Page     int
	PageSize int
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Page:          1,
		PageSize:      20,
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (jobs | jobs/ID | languages | health)",
		Short: "Display one or many resources.",
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.IntVar(&o.Page, "page", o.Page, "Page of the job list")
	fs.IntVar(&o.PageSize, "page-size", o.PageSize, "Jobs per page")
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, _ := parseKindID(args[0])
	if !funk.Contains([]string{"jobs", "languages", "health"}, kind) {
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()

	kind, id := parseKindID(args[0])
	switch {
	case kind == "jobs" && id != "":
		job, err := c.GetJob(ctx, id)
		if err != nil {
			return fmt.Errorf("reading jobs/%s: %w", id, err)
		}
		return o.print(job, func() { printJobsTable(*job) })
	case kind == "jobs":
		list, err := c.ListJobs(ctx, o.Page, o.PageSize)
		if err != nil {
			return fmt.Errorf("listing jobs: %w", err)
		}
		return o.print(list, func() { printJobsTable(list.Jobs...) })
	case kind == "languages":
		languages, err := c.ListLanguages(ctx)
		if err != nil {
			return fmt.Errorf("listing languages: %w", err)
		}
		return o.print(languages, func() { printLanguagesTable(languages) })
	default:
		health, err := c.Health(ctx)
		if err != nil {
			return fmt.Errorf("reading health: %w", err)
		}
		return o.print(health, func() { printHealthTable(health) })
	}
}

func (o *GetOptions) print(resource any, table func()) error {
	if o.Output == jsonFormat {
		marshalled, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(marshalled))
		return nil
	}
	table()
	return nil
}

func parseKindID(arg string) (string, string) {
	kind, id, _ := strings.Cut(arg, "/")
	return kind, id
}

func printJobsTable(jobs ...api.Job) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tLANGUAGE\tCREATED\tDELIVERED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			j.JobID, j.Status, j.Language, j.CreatedAt.Format(time.RFC3339), j.WebhookDelivered)
	}
	w.Flush()
}

func printLanguagesTable(list *api.LanguageList) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "LANGUAGE\tMODEL\tLOADED\tDEFAULT")
	for _, l := range list.Languages {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", l.Language, l.Model, l.Loaded, l.Default)
	}
	w.Flush()
}

func printHealthTable(h *api.Health) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "STATUS\tWORKER\tQUEUE\tPENDING\tLOADED")
	fmt.Fprintf(w, "%s\t%t\t%d\t%d\t%s\n",
		h.Status, h.WorkerRunning, h.QueueLength, h.PendingJobs, strings.Join(h.LoadedLanguages, ","))
	w.Flush()
}
