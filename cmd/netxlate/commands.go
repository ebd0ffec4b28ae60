package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"netxlate/internal/core"
	"netxlate/internal/prompt"
	"netxlate/internal/session"
	"netxlate/internal/update"

	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "netxlate",
		Short:         "Translate network device configurations between vendors",
		Version:       core.Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newTranslateCmd(a),
		newModelsCmd(a),
		newVendorsCmd(a),
		newVersionCmd(a),
	)
	return root
}

type translateOptions struct {
	req      core.TranslationRequest
	explain  bool
	testPlan bool
}

func newTranslateCmd(a *app) *cobra.Command {
	var opts translateOptions
	cmd := &cobra.Command{
		Use:   "translate [FILE|-]",
		Short: "Translate a configuration to another vendor",
		Long: `Translate a network device configuration to the syntax of another vendor.

The source configuration is read from FILE, or from stdin when FILE is "-"
or omitted. --explain and --test-plan run on the translated result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, a, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.req.TargetVendor, "target-vendor", "", "vendor to translate to, e.g. \"Arista (EOS)\"")
	f.StringVar(&opts.req.SourceVendor, "source-vendor", "", "vendor of the source configuration (default: detect)")
	f.StringVar(&opts.req.SourceOS, "source-os", "", "OS variant of the source configuration")
	f.StringVar(&opts.req.TargetOS, "target-os", "", "OS variant to translate to")
	f.StringVar(&opts.req.ModelID, "model", "", "model id (default: the configured default model)")
	f.StringVar(&opts.req.CustomInstructions, "instructions", "", "additional instructions for the model")
	f.BoolVar(&opts.explain, "explain", false, "also explain the translated configuration")
	f.BoolVar(&opts.testPlan, "test-plan", false, "also generate a verification test plan")
	_ = cmd.MarkFlagRequired("target-vendor")
	return cmd
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), core.MaxSourceTextLength+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

// resultErr turns a non-success outcome into a command error.
func resultErr(action string, result core.ActionResult) error {
	switch result.Outcome {
	case core.OutcomeSuccess:
		return nil
	case core.OutcomeFailure:
		return fmt.Errorf("%s failed: %w", action, result.Err)
	default:
		return fmt.Errorf("%s returned %s", action, result.Outcome)
	}
}

func runTranslate(cmd *cobra.Command, a *app, opts translateOptions, args []string) error {
	source, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	opts.req.SourceText = source
	if opts.req.ModelID == "" {
		opts.req.ModelID = a.registry.Default()
	}

	sess := session.New("", session.Config{
		Invoker:      a.invoker,
		Builder:      prompt.NewBuilder(a.catalog),
		DefaultModel: a.registry.Default(),
		Logger:       a.logger,
	})

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	result := sess.Translate(ctx, opts.req)
	if err := resultErr(core.ActionTranslate, result); err != nil {
		return err
	}
	fmt.Fprintln(out, result.Text)

	followOn := session.FollowOn{ModelID: opts.req.ModelID, CustomInstructions: opts.req.CustomInstructions}
	if opts.explain {
		result := sess.Explain(ctx, followOn)
		if err := resultErr(core.ActionExplain, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n# Explanation\n\n%s\n", result.Text)
	}
	if opts.testPlan {
		result := sess.TestPlan(ctx, followOn)
		if err := resultErr(core.ActionTestPlan, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n# Test Plan\n\n%s\n", result.Text)
	}
	return nil
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, m := range a.registry.List() {
				id := m.ID
				if id == a.registry.Default() {
					id += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", id, m.DisplayName, m.Description)
			}
			if a.registry.Degraded() {
				fmt.Fprintln(w, "\n(model list unavailable, showing built-in fallback)")
			}
			return w.Flush()
		},
	}
}

func newVendorsCmd(a *app) *cobra.Command {
	var vendor string
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "List vendors and their OS variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if vendor != "" {
				for _, code := range a.catalog.OSVariantsFor(vendor) {
					fmt.Fprintf(out, "%s\t%s\n", code, a.catalog.DisplayName(code))
				}
				return nil
			}
			for _, name := range a.catalog.Vendors() {
				fmt.Fprintf(out, "%s: %s\n", name, strings.Join(a.catalog.OSVariantsFor(name), ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor", "", "list the OS variants of one vendor")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version, optionally checking for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "netxlate %s\n", core.Version)
			if check {
				fmt.Fprintln(out, update.Summary(a.updates.Check(cmd.Context())))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check the release feed for a newer version")
	return cmd
}
