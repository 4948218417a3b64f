package cli

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/akolanti/smartsort/internal/app"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage classification rules",
	Long: `Rules are evaluated in ascending priority. The first active rule whose
conditions all match decides the category, target path and filename.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rule, active or not",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an active rule",
	Long: `Adds a rule. Conditions are ANDed and unset conditions are ignored.

Example:
  smartsort rules add invoices --priority 10 --mime-contains pdf \
    --text-contains invoice --category Invoices --target 03_sorted/Finance/Invoices`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesAdd,
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable [rule-id]",
	Short: "Deactivate a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesSetActive(false),
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable [rule-id]",
	Short: "Reactivate a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesSetActive(true),
}

type ruleFlags struct {
	priority      int
	filenameRegex string
	mimeType      string
	mimeContains  string
	textContains  string
	sizeMin       int64
	sizeMax       int64
	category      string
	target        string
	filename      string
	tags          []string
}

var newRule ruleFlags

func init() {
	f := rulesAddCmd.Flags()
	f.IntVarP(&newRule.priority, "priority", "p", 100, "lower values are evaluated first")
	f.StringVar(&newRule.filenameRegex, "filename-regex", "", "regular expression matched against the original filename")
	f.StringVar(&newRule.mimeType, "mime", "", "exact mime type")
	f.StringVar(&newRule.mimeContains, "mime-contains", "", "substring of the mime type")
	f.StringVar(&newRule.textContains, "text-contains", "", "case insensitive substring of the extracted text")
	f.Int64Var(&newRule.sizeMin, "size-min", -1, "minimum file size in bytes")
	f.Int64Var(&newRule.sizeMax, "size-max", -1, "maximum file size in bytes")
	f.StringVar(&newRule.category, "category", "", "category to assign")
	f.StringVar(&newRule.target, "target", "", "target path to suggest")
	f.StringVar(&newRule.filename, "filename", "", "filename to suggest")
	f.StringSliceVar(&newRule.tags, "tags", nil, "tags recorded in the classification trace")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		rules, err := a.Service.Rules.ListRules(cmd.Context())
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No rules configured")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRIORITY\tACTIVE\tNAME\tCATEGORY\tTARGET")
		for _, r := range rules {
			fmt.Fprintf(tw, "%d\t%d\t%t\t%s\t%s\t%s\n", r.Id, r.Priority, r.Active, r.Name, r.Actions.Category, r.Actions.TargetPath)
		}
		return tw.Flush()
	})
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	rule, err := newRule.build(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app.App) error {
		id, err := a.Service.Rules.SaveRule(cmd.Context(), rule)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added rule %d (%s)\n", id, rule.Name)
		return nil
	})
}

func runRulesSetActive(active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rule id %q", args[0])
		}
		return withApp(cmd, func(a *app.App) error {
			if err := a.Service.Rules.SetRuleActive(cmd.Context(), id, active); err != nil {
				return err
			}
			state := "disabled"
			if active {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %d %s\n", id, state)
			return nil
		})
	}
}

func (f ruleFlags) build(name string) (docModel.Rule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return docModel.Rule{}, errors.New("rule name is required")
	}
	if f.filenameRegex != "" {
		if _, err := regexp.Compile(f.filenameRegex); err != nil {
			return docModel.Rule{}, fmt.Errorf("invalid filename regex: %w", err)
		}
	}
	if f.category == "" && f.target == "" && f.filename == "" && len(f.tags) == 0 {
		return docModel.Rule{}, errors.New("a rule needs at least one of --category, --target, --filename or --tags")
	}
	rule := docModel.Rule{
		Name:     name,
		Priority: f.priority,
		Active:   true,
		Conditions: docModel.Conditions{
			FilenameRegex:    f.filenameRegex,
			MimeType:         f.mimeType,
			MimeTypeContains: f.mimeContains,
			TextContains:     f.textContains,
		},
		Actions: docModel.Actions{
			Category:          f.category,
			TargetPath:        f.target,
			SuggestedFilename: f.filename,
			Tags:              f.tags,
		},
	}
	if f.sizeMin >= 0 {
		v := f.sizeMin
		rule.Conditions.FileSizeMin = &v
	}
	if f.sizeMax >= 0 {
		v := f.sizeMax
		rule.Conditions.FileSizeMax = &v
	}
	return rule, nil
}
