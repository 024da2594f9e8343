package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/dashboard"
	"github.com/noah-isme/uniportal-api/internal/gateway"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/pkg/config"
	"github.com/noah-isme/uniportal-api/pkg/listing"
	"github.com/noah-isme/uniportal-api/pkg/logger"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// options is shared by every subcommand. Flags are bound through viper so
// each one can also be set as PORTALCTL_<FLAG>.
type options struct {
	v      *viper.Viper
	out    io.Writer
	cfg    *config.Config
	client *gateway.Client
	specs  service.TableSpecs
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{v: viper.New(), out: out}
	opts.v.SetEnvPrefix("PORTALCTL")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Inspect university portal tables from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.String("base-url", "", "backend base URL, defaults to UPSTREAM_BASE_URL")
	flags.String("email", "", "sign-in email")
	flags.String("password", "", "sign-in password")
	flags.StringP("output", "o", outputTable, "output format: table or json")
	flags.Duration("timeout", 0, "backend call timeout, defaults to UPSTREAM_TIMEOUT")
	flags.Bool("verbose", false, "log backend calls to stderr")
	_ = opts.v.BindPFlags(flags)

	root.AddCommand(
		newUniversitiesCmd(opts),
		newPaymentsCmd(opts),
		newStudentsCmd(opts),
		newDashboardCmd(opts),
	)
	return root
}

func (o *options) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg = cfg

	switch o.output() {
	case outputTable, outputJSON:
	default:
		return fmt.Errorf("unknown output format %q", o.output())
	}

	baseURL := o.v.GetString("base-url")
	if baseURL == "" {
		baseURL = cfg.Upstream.BaseURL
	}
	if baseURL == "" {
		return errors.New("backend base URL is not configured")
	}
	timeout := o.v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = cfg.Upstream.Timeout
	}

	logr := zap.NewNop()
	if o.v.GetBool("verbose") {
		cfg.Log.Format = "console"
		if logr, err = logger.New(cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	o.client = gateway.New(baseURL, gateway.DefaultHTTPClient(timeout), logr, nil)
	o.specs = service.NewTableSpecs(cfg.Listing)
	return nil
}

func (o *options) output() string {
	return strings.ToLower(o.v.GetString("output"))
}

// signin authenticates against app and returns a context carrying the backend token.
func (o *options) signin(ctx context.Context, app models.App) (context.Context, error) {
	email := o.v.GetString("email")
	password := o.v.GetString("password")
	if email == "" || password == "" {
		return nil, errors.New("credentials required: set --email and --password or PORTALCTL_EMAIL and PORTALCTL_PASSWORD")
	}
	res, err := o.client.Signin(ctx, app, models.SigninRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign in to %s: %w", app, err)
	}
	return gateway.ContextWithToken(ctx, res.Token), nil
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("search", "", "case-insensitive search term")
	cmd.Flags().String("category", "", "category filter, \"all\" disables it")
	cmd.Flags().Int("page", 1, "page to show")
}

// listQuery maps the list flags onto a listing query. Unset filters stay nil.
func listQuery(cmd *cobra.Command) listing.Query {
	var q listing.Query
	if cmd.Flags().Changed("search") {
		search, _ := cmd.Flags().GetString("search")
		q.Search = &search
	}
	if cmd.Flags().Changed("category") {
		category, _ := cmd.Flags().GetString("category")
		q.Category = &category
	}
	q.Page, _ = cmd.Flags().GetInt("page")
	return q
}

// renderPage loads items into a table, applies the flags and prints the
// resulting page followed by its summary line.
func renderPage[T any](o *options, cmd *cobra.Command, engine *listing.Engine[T], items []T, noun string, header []string, row func(T) []string) error {
	table := listing.NewTable(engine)
	table.Load(table.BeginLoad(), items)

	query := listQuery(cmd)
	if query.Page > 1 && (query.Search != nil || query.Category != nil) {
		// filters reset the page, so apply them before navigating
		table.Apply(listing.Query{Search: query.Search, Category: query.Category})
		query = listing.Query{Page: query.Page}
	}
	page := table.Apply(query)

	if o.output() == outputJSON {
		enc := json.NewEncoder(o.out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			listing.Page[T]
			State   listing.State `json:"state"`
			Summary string        `json:"summary"`
		}{Page: page, State: table.State(), Summary: page.Summary(noun)})
	}

	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, item := range page.Items {
		fmt.Fprintln(tw, strings.Join(row(item), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(o.out, page.Summary(noun))
	if page.TotalPages > 1 {
		fmt.Fprintf(o.out, "Page %d of %d\n", page.Page, page.TotalPages)
	}
	return nil
}

func newUniversitiesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "universities",
		Short: "List universities (super-admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := o.signin(cmd.Context(), models.AppSuperAdmin)
			if err != nil {
				return err
			}
			items, err := o.client.Universities(ctx)
			if err != nil {
				return err
			}
			return renderPage(o, cmd, o.specs.Universities, items, "universities",
				[]string{"CODE", "NAME", "EMAIL", "STATUS"},
				func(u models.University) []string { return []string{u.Code, u.Name, u.Email, u.Status} })
		},
	}
	addListFlags(cmd)
	return cmd
}

func newPaymentsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payment transactions (super-admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := o.signin(cmd.Context(), models.AppSuperAdmin)
			if err != nil {
				return err
			}
			list, err := o.client.Payments(ctx)
			if err != nil {
				return err
			}
			if err := renderPage(o, cmd, o.specs.Payments, list.Payments, "payments",
				[]string{"TRANSACTION", "STUDENT", "UNIVERSITY", "AMOUNT", "STATUS"},
				func(p models.Payment) []string {
					return []string{p.TransactionID, p.StudentName, p.UniversityName, strconv.FormatFloat(p.Amount, 'f', 2, 64), p.Status}
				}); err != nil {
				return err
			}
			if o.output() == outputTable {
				fmt.Fprintf(o.out, "Total revenue %.2f across %d payments\n", list.TotalRevenue, list.Count)
			}
			return nil
		},
	}
	addListFlags(cmd)
	return cmd
}

func newStudentsCmd(o *options) *cobra.Command {
	var rawApp string
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List students visible to a university or department admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ok := models.ParseApp(rawApp)
			if !ok || (app != models.AppUniversityAdmin && app != models.AppDepartmentAdmin) {
				return fmt.Errorf("--app must be %s or %s", models.AppUniversityAdmin, models.AppDepartmentAdmin)
			}
			ctx, err := o.signin(cmd.Context(), app)
			if err != nil {
				return err
			}
			items, err := o.client.Students(ctx, app)
			if err != nil {
				return err
			}
			return renderPage(o, cmd, o.specs.Students, items, "students",
				[]string{"STUDENT ID", "NAME", "EMAIL", "DEPARTMENT", "LEVEL"},
				func(s models.Student) []string { return []string{s.StudentID, s.Name, s.Email, s.Department, s.Level} })
		},
	}
	cmd.Flags().StringVar(&rawApp, "app", string(models.AppUniversityAdmin), "admin app to sign in through")
	addListFlags(cmd)
	return cmd
}

type seriesResult struct {
	Kind   models.SeriesKind    `json:"kind"`
	Days   int                  `json:"days"`
	Points []models.SeriesPoint `json:"points"`
	Error  string               `json:"error,omitempty"`
}

func newDashboardCmd(o *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform totals and growth series (super-admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days == 0 {
				days = o.cfg.Dashboard.DefaultRangeDays
			}
			if days == 0 {
				days = dashboard.DefaultRangeDays
			}
			if !dashboard.ValidRange(days) {
				return dashboard.ErrInvalidRange
			}

			ctx, err := o.signin(cmd.Context(), models.AppSuperAdmin)
			if err != nil {
				return err
			}
			summary, err := o.client.DashboardSummary(ctx)
			if err != nil {
				return err
			}

			// a failing series is reported on its own and never hides the other one
			series := make([]seriesResult, 0, 2)
			for _, kind := range []models.SeriesKind{models.SeriesTransactionGrowth, models.SeriesUserGrowth} {
				res := seriesResult{Kind: kind, Days: days}
				points, err := o.client.Series(ctx, kind, days)
				if err != nil {
					res.Error = err.Error()
				}
				res.Points = points
				series = append(series, res)
			}

			if o.output() == outputJSON {
				enc := json.NewEncoder(o.out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Summary *models.DashboardSummary `json:"summary"`
					Series  []seriesResult           `json:"series"`
				}{Summary: summary, Series: series})
			}
			return printDashboard(o.out, summary, series)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "series window in days, defaults to DASHBOARD_DEFAULT_RANGE_DAYS")
	return cmd
}

func printDashboard(out io.Writer, summary *models.DashboardSummary, series []seriesResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Universities\t%d\n", summary.TotalUniversities)
	fmt.Fprintf(tw, "Transactions\t%d\n", summary.TotalTransactions)
	fmt.Fprintf(tw, "Users\t%d\n", summary.TotalUsers)
	for _, s := range series {
		fmt.Fprintf(tw, "\n%s (last %d days)\n", s.Kind, s.Days)
		switch {
		case s.Error != "":
			fmt.Fprintf(tw, "unavailable: %s\n", s.Error)
		case len(s.Points) == 0:
			fmt.Fprintln(tw, s.Kind.EmptyMessage())
		default:
			for _, p := range s.Points {
				fmt.Fprintf(tw, "%s\t%s\n", p.Date, strconv.FormatFloat(p.Value, 'f', -1, 64))
			}
		}
	}
	return tw.Flush()
}
