package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	awsclient "tasnim.dev/pro-upgrade/internal/aws"
	"tasnim.dev/pro-upgrade/internal/config"
	"tasnim.dev/pro-upgrade/internal/tui"
	"tasnim.dev/pro-upgrade/internal/upgrade"
	"tasnim.dev/pro-upgrade/internal/utils"
)

var errInterrupted = errors.New("interrupted: instances stopped so far were left stopped")

type upgradeFlags struct {
	profile    string
	region     string
	account    string
	version    string
	noWait     bool
	allRunning bool
	useTUI     bool
	verbose    bool

	pollInterval      time.Duration
	lifecycleTimeout  time.Duration
	conversionTimeout time.Duration
	concurrency       int

	logLevel  string
	logFormat string
}

func NewUpgradeCmd() *cobra.Command {
	var f upgradeFlags

	cmd := &cobra.Command{
		Use:   "upgrade [instance-id...]",
		Short: "Convert Ubuntu LTS instances to Ubuntu Pro",
		Long: `Stops each eligible instance, converts its license from Ubuntu LTS
(RunInstances) to Ubuntu Pro (RunInstances:0g00) and starts it again.

Instances that are not Ubuntu, not on the requested version or already
billed as Ubuntu Pro are skipped without being touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !f.allRunning {
				return errors.New("pass one or more instance ids or --all-running")
			}
			if len(args) > 0 && f.allRunning {
				return errors.New("instance ids and --all-running are mutually exclusive")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			profile, region := cfg.Merge(f.profile, f.region)
			account := f.account
			if account == "" {
				account = cfg.AccountID
			}

			log, err := newLogger(f.logLevel, f.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := awsclient.NewServiceClient(ctx, profile, region, account)
			if err != nil {
				return fmt.Errorf("initializing AWS client: %w", err)
			}

			ids := args
			if f.allRunning {
				ids, err = runningInstanceIDs(ctx, client)
				if err != nil {
					return err
				}
				log.WithField("count", len(ids)).Info("discovered running instances")
			}

			runCfg := upgrade.Config{
				Region:            client.Region,
				AccountID:         client.AccountID,
				PollInterval:      durationOr(f.pollInterval, cfg.PollInterval()),
				LifecycleTimeout:  durationOr(f.lifecycleTimeout, cfg.LifecycleWait()),
				ConversionTimeout: durationOr(f.conversionTimeout, cfg.ConversionWait()),
				Concurrency:       cfg.Workers(),
			}
			if f.concurrency > 0 {
				runCfg.Concurrency = f.concurrency
			}
			providers := upgrade.Providers{Compute: client.EC2, Inventory: client.SSM, License: client.License}
			opts := upgrade.RunOptions{Version: f.version, Wait: !f.noWait}

			if f.useTUI && term.IsTerminal(int(os.Stdout.Fd())) {
				return runWithTUI(ctx, providers, runCfg, opts, ids, log, profile)
			}

			orch, err := upgrade.New(providers, runCfg,
				upgrade.WithObserver(upgrade.Observers{
					tui.NewPrinter(cmd.OutOrStdout(), f.verbose),
					upgrade.LogObserver(log),
				}),
				upgrade.WithLogger(log),
			)
			if err != nil {
				return err
			}
			logResults(log, orch.Run(ctx, ids, opts))
			return interrupted(ctx)
		},
	}

	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "AWS region to use")
	cmd.Flags().StringVar(&f.account, "account", "", "AWS account id (resolved from STS when empty)")
	cmd.Flags().StringVar(&f.version, "version", "", "only convert this Ubuntu version, e.g. 18.04")
	cmd.Flags().BoolVar(&f.noWait, "no-wait", false, "submit conversions without waiting; instances stay stopped")
	cmd.Flags().BoolVar(&f.allRunning, "all-running", false, "process every running instance in the region")
	cmd.Flags().BoolVar(&f.useTUI, "tui", false, "show a live progress view (terminal only)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "print every conversion status check")
	cmd.Flags().DurationVar(&f.pollInterval, "poll-interval", 0, "delay between conversion status checks (default 5s)")
	cmd.Flags().DurationVar(&f.lifecycleTimeout, "lifecycle-timeout", 0, "max wait for an instance to stop or start (default 10m)")
	cmd.Flags().DurationVar(&f.conversionTimeout, "conversion-timeout", 0, "max wait for a conversion task (default 1h)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "instances processed at once (default 1)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warning", "diagnostics log level")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "diagnostics log format: text or json")

	return cmd
}

func runWithTUI(ctx context.Context, p upgrade.Providers, cfg upgrade.Config, opts upgrade.RunOptions, ids []string, log *logrus.Logger, profile string) error {
	// Log lines would tear the progress view.
	out := log.Out
	log.SetOutput(io.Discard)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	src := tui.NewEventSource(runCtx.Done())

	orch, err := upgrade.New(p, cfg, upgrade.WithObserver(src), upgrade.WithLogger(log))
	if err != nil {
		return err
	}

	finished := make(chan []upgrade.Result, 1)
	go func() {
		finished <- orch.Run(runCtx, ids, opts)
	}()

	model := tui.NewModel(src, cancel, profile, cfg.Region, cfg.AccountID)
	final, err := tea.NewProgram(model).Run()
	cancel()
	results := <-finished
	log.SetOutput(out)
	logResults(log, results)
	if err != nil {
		return fmt.Errorf("running progress view: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Cancelled() {
		return errInterrupted
	}
	return interrupted(ctx)
}

// logResults records how each instance ended and how long it took.
func logResults(log logrus.FieldLogger, results []upgrade.Result) {
	for _, r := range results {
		entry := log.WithFields(logrus.Fields{
			"instance": r.InstanceID,
			"outcome":  r.Outcome,
			"stage":    r.Stage,
			"elapsed":  utils.Elapsed(r.Elapsed),
		})
		if r.TaskID != "" {
			entry = entry.WithField("task", r.TaskID)
		}
		if r.Err != nil {
			entry = entry.WithError(r.Err)
		}
		entry.Info("instance finished")
	}
}

func runningInstanceIDs(ctx context.Context, client *awsclient.ServiceClient) ([]string, error) {
	instances, err := client.EC2.ListInstances(ctx, types.InstanceStateNameRunning)
	if err != nil {
		return nil, fmt.Errorf("listing running instances: %w", err)
	}
	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.InstanceID
	}
	return ids, nil
}

func durationOr(flag, fallback time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return fallback
}

func interrupted(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return errInterrupted
	}
	return nil
}
