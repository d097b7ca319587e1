package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahul/campaigner/internal/agent"
	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/compliance"
	"github.com/rahul/campaigner/internal/observability"
	"github.com/rahul/campaigner/internal/store"
	"github.com/rahul/campaigner/internal/tone"
	"github.com/rahul/campaigner/internal/wizard"
)

var (
	planInput  intakeFlags
	planJSON   bool
	writeInput intakeFlags
	writePlan  string

	validateSteps int
	validateAB    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the steps of a campaign",
	Long: `Plan a campaign from an intake given as flags or as a JSON/YAML file.
The configured model proposes the plan; when it is unavailable or returns
something unusable the built-in cadence tables are used instead.`,
	Example: `  campaigner plan --goal "re-engage past leads" --audience "first-time buyers" --sms
  campaigner plan --intake intake.yaml --json`,
	RunE: runPlan,
}

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write and validate campaign copy",
	Long: `Write campaign copy for a plan. Without --plan the plan is generated
first. Copy that fails validation is still printed, followed by the issues,
and the command exits non-zero.`,
	RunE: runWrite,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate campaign copy",
	Long:  "Validate campaign copy read from a file, or from stdin when no file or \"-\" is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	registerIntakeFlags(planCmd, &planInput)
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")

	registerIntakeFlags(writeCmd, &writeInput)
	writeCmd.Flags().StringVar(&writePlan, "plan", "", "Plan JSON file (default: generate one)")

	validateCmd.Flags().IntVar(&validateSteps, "steps", 0, "Expected number of email steps (0 skips the check)")
	validateCmd.Flags().BoolVar(&validateAB, "ab", false, "Require Subject A and Subject B lines")
}

func registerIntakeFlags(cmd *cobra.Command, f *intakeFlags) {
	cmd.Flags().StringVarP(&f.file, "intake", "i", "", "Intake JSON/YAML file (\"-\" for stdin)")
	cmd.Flags().StringVar(&f.goal, "goal", "", "Campaign goal")
	cmd.Flags().StringVar(&f.audience, "audience", "", "Who the campaign is for")
	cmd.Flags().IntVar(&f.length, "length", 0, "Number of emails (1-30)")
	cmd.Flags().StringVar(&f.cadence, "cadence", "", "Cadence notes, e.g. \"over 6 weeks\"")
	cmd.Flags().BoolVar(&f.sms, "sms", false, "Add SMS companions")
	cmd.Flags().StringVar(&f.smsSteps, "sms-steps", "", "Email step numbers that get an SMS, e.g. \"2,5\"")
	cmd.Flags().StringVar(&f.emphasize, "emphasize", "", "Points to emphasize")
	cmd.Flags().StringVar(&f.avoid, "avoid", "", "Topics or phrases to avoid")
	cmd.Flags().BoolVar(&f.ab, "ab", false, "Write A/B subject lines")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	intake, err := planInput.intake(cmd.InOrStdin())
	if err != nil {
		return err
	}
	model, modelName, err := loadModel(cfg)
	if err != nil {
		return err
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.App.LogDir)
	service, err := buildService(cfg, model, modelName, logger)
	if err != nil {
		return err
	}

	result, err := service.Plan(observability.WithRequestID(cmd.Context(), ""), intake)
	if err != nil {
		return err
	}
	if planJSON {
		return writeOutput(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Plan (%s):\n%s\n", result.Source, wizard.FormatPlan(result.Plan()))
	return nil
}

func runWrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	intake, err := writeInput.intake(cmd.InOrStdin())
	if err != nil {
		return err
	}
	model, modelName, err := loadModel(cfg)
	if err != nil {
		return err
	}
	if model == nil {
		return fmt.Errorf("%w: enable a provider in %s", agent.ErrNoModel, configFile)
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.App.LogDir)
	service, err := buildService(cfg, model, modelName, logger)
	if err != nil {
		return err
	}
	ctx := observability.WithRequestID(cmd.Context(), "")

	var plan campaign.Plan
	if writePlan != "" {
		data, err := readInput(writePlan, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read plan: %w", err)
		}
		if err := decodeFile(writePlan, data, &plan); err != nil {
			return fmt.Errorf("decode plan: %w", err)
		}
	} else {
		result, err := service.Plan(ctx, intake)
		if err != nil {
			return err
		}
		plan = result.Plan()
	}

	db, err := store.NewStore(cfg.Memory.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	snippets, err := tone.ForPlan(ctx, db, intake.Audience, plan)
	if err != nil {
		return err
	}

	text, err := service.Write(ctx, agent.WriteRequest{
		Intake:     intake,
		Plan:       plan,
		Snippets:   snippets,
		ABSubjects: intake.ABSubjects,
	})
	var outErr *agent.OutputError
	if errors.As(err, &outErr) {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		fmt.Fprintf(cmd.ErrOrStderr(), "\nValidation issues:\n%s\n", wizard.FormatIssues(outErr.Issues))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if validateSteps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read copy: %w", err)
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.App.LogDir)
	service, err := buildService(cfg, nil, "", logger)
	if err != nil {
		return err
	}
	requestID := observability.RequestID(observability.WithRequestID(cmd.Context(), ""))
	result := service.Validate(requestID, string(data), compliance.Options{
		ABSubjects:    validateAB,
		ExpectedSteps: validateSteps,
	})
	if err := writeOutput(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.IsValid {
		return fmt.Errorf("%w: %d issue(s)", agent.ErrInvalidOutput, len(result.Issues))
	}
	return nil
}
