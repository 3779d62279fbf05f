package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	ruleID      string
	ruleType    string
	ruleChannel string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage matching rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List matching rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			rules := store.Rules()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), rules)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "ID", "NAME", "TYPE", "PATTERNS", "CHANNEL", "ENABLED")
			for _, r := range rules {
				channel := "any"
				if r.ChannelFilter != nil {
					channel = string(*r.ChannelFilter)
				}
				row(w, r.RuleID, r.Name, r.MatchType, strings.Join(r.Patterns, ", "), channel, r.Enabled)
			}
			return w.Flush()
		})
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add NAME PATTERN...",
	Short: "Add a matching rule",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rule := matching.Rule{
			RuleID:    ruleID,
			Name:      args[0],
			MatchType: matching.MatchType(ruleType),
			Patterns:  args[1:],
			Enabled:   true,
		}
		if rule.RuleID == "" {
			rule.RuleID = uuid.NewString()
		}
		if ruleChannel != "" {
			ch := common.Channel(strings.ToUpper(ruleChannel))
			rule.ChannelFilter = &ch
		}
		if err := matching.Validate(rule); err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			if err := store.AddUniqueRule(ctx, rule); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rule.RuleID)
			return nil
		})
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a matching rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			return store.DeleteRule(ctx, args[0])
		})
	},
}

func setRuleEnabled(enabled bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			rule, ok := matching.Find(store.Rules(), args[0])
			if !ok {
				return analyzer.ErrRuleNotFound
			}
			rule.Enabled = enabled
			return store.UpdateRule(ctx, rule)
		})
	}
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Enable a matching rule",
	Args:  cobra.ExactArgs(1),
	RunE:  setRuleEnabled(true),
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Disable a matching rule",
	Args:  cobra.ExactArgs(1),
	RunE:  setRuleEnabled(false),
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Work with transaction categories",
}

var categorySetCmd = &cobra.Command{
	Use:   "set TRANSACTION_ID CATEGORY",
	Short: "Change the category of one transaction",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			return store.UpdateTransactionCategory(ctx, args[0], strings.Join(args[1:], " "))
		})
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			for _, c := range store.Categorizer().AllCategories() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		})
	},
}

var categorySuggestCmd = &cobra.Command{
	Use:   "suggest TEXT",
	Short: "Suggest categories matching a partial name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			for _, c := range store.Categorizer().Suggest(strings.Join(args, " "), 5) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		})
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Force a category for descriptions containing a pattern",
	Long: `Overrides are checked before the built-in keyword rules when new statements are
processed. Transactions already in the ledger keep their category.`,
}

var overrideAddCmd = &cobra.Command{
	Use:   "add PATTERN CATEGORY",
	Short: "Add or replace an override",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			return store.AddCategoryOverride(ctx, args[0], strings.Join(args[1:], " "))
		})
	},
}

var overrideRemoveCmd = &cobra.Command{
	Use:   "remove PATTERN",
	Short: "Remove an override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			removed, err := store.RemoveCategoryOverride(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no override for %q", args[0])
			}
			return nil
		})
	},
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List overrides in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			overrides := store.CategoryOverrides()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), overrides)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "PATTERN", "CATEGORY")
			for _, o := range overrides {
				row(w, o.Pattern, o.Category)
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd, categoryCmd, overrideCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesDeleteCmd, rulesEnableCmd, rulesDisableCmd)
	categoryCmd.AddCommand(categorySetCmd, categoryListCmd, categorySuggestCmd)
	overrideCmd.AddCommand(overrideAddCmd, overrideRemoveCmd, overrideListCmd)

	rulesAddCmd.Flags().StringVar(&ruleID, "id", "", "rule id (default: generated)")
	rulesAddCmd.Flags().StringVar(&ruleType, "type", string(matching.MatchContains), "contains, regex or merchant")
	rulesAddCmd.Flags().StringVar(&ruleChannel, "channel", "", "only match this payment channel, e.g. ACH")
}
