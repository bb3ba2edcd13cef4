package cli

import (
	"fmt"
	"io"

	"github.com/centraunit/scopegraph"
	"github.com/centraunit/scopegraph/internal/config"
	"github.com/centraunit/scopegraph/mock"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDemoCommand creates the demo command
func NewDemoCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a reference object graph and print its container tree",
		Long: `Build one of the reference scenarios inside a session container and
print the resulting container tree.

  aborter  C depends on A and B, B depends on A, all share one Aborter
  deep     Deep5 -> Deep4 -> ... -> Deep1, registered with --scope

With --destroy the top value is destroyed afterwards and the tree is
printed again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if cfg.NoColor {
				color.NoColor = true
			}

			logger, err := newLogger(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return runDemo(cmd.OutOrStdout(), cfg.Demo, logger)
		},
	}

	cmd.Flags().StringP("scenario", "s", "aborter", "scenario to build (aborter, deep)")
	cmd.Flags().String("scope", string(scopegraph.ScopeContainer), "scope of the deep scenario producers")
	cmd.Flags().Bool("destroy", false, "destroy the top value and print the tree again")
	_ = v.BindPFlag("demo.scenario", cmd.Flags().Lookup("scenario"))
	_ = v.BindPFlag("demo.scope", cmd.Flags().Lookup("scope"))
	_ = v.BindPFlag("demo.destroy", cmd.Flags().Lookup("destroy"))

	return cmd
}

type demo struct {
	root      *scopegraph.Container
	session   *scopegraph.Container
	top       any
	producers []*scopegraph.Producer
	journal   *mock.Journal
}

func runDemo(w io.Writer, cfg config.DemoConfig, logger *zap.Logger) error {
	d, err := buildDemo(cfg, logger)
	if err != nil {
		return err
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "Resolved %T in session %s\n", d.top, shortID(d.session))
	renderTree(w, d.root)
	renderUsage(w, d.producers)

	if !cfg.Destroy {
		return nil
	}

	err = scopegraph.Destroy(d.top)
	fmt.Fprintln(w)
	header.Fprintf(w, "Destroyed %T\n", d.top)
	renderTree(w, d.root)
	renderUsage(w, d.producers)
	if entries := d.journal.Entries(); len(entries) > 0 {
		fmt.Fprintf(w, "destroy hooks: %v\n", entries)
	}
	return err
}

func buildDemo(cfg config.DemoConfig, logger *zap.Logger) (*demo, error) {
	reg := scopegraph.NewRegistry()
	d := &demo{journal: &mock.Journal{}}
	d.root = scopegraph.New(scopegraph.WithRegistry(reg), scopegraph.WithLogger(logger))
	d.session = d.root.Extend()

	var err error
	switch cfg.Scenario {
	case "deep":
		if d.producers, err = mock.RegisterDeep(reg, scopegraph.Scope(cfg.Scope), d.journal); err != nil {
			return nil, err
		}
		d.top, err = scopegraph.Inject[*mock.Deep5](d.session)
	default:
		var sc *mock.Scenario
		if sc, err = mock.RegisterScenario(reg); err != nil {
			return nil, err
		}
		d.producers = []*scopegraph.Producer{sc.Singleton, sc.Aborter, sc.Transient, sc.A, sc.B, sc.C}
		d.top, err = scopegraph.Inject[*mock.C](d.session)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s scenario: %w", cfg.Scenario, err)
	}
	return d, nil
}
