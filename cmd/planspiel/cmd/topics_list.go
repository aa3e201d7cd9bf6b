package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/planspiel/cmd/planspiel/internal/topics"
	"github.com/nfrund/planspiel/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List the registered topics in table or JSON format.

Examples:
  planspiel topics list                       # all topics as a table
  planspiel topics list --format json         # all topics as JSON
  planspiel topics list --scope framework     # websocket topics only
  planspiel topics list --module planspiel    # game notifications only`,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	if err := topics.Initialize(); err != nil {
		return fmt.Errorf("initialize topics: %w", err)
	}

	var scope topicmgr.TopicScope
	if listScopeFilter != "" {
		scope = parseScope(listScopeFilter)
		if scope == "" {
			return fmt.Errorf("invalid scope %q, valid scopes: framework, module", listScopeFilter)
		}
	}

	manager := topicmgr.Default()
	var topicList []topicmgr.Topic
	switch {
	case listModuleFilter != "":
		for _, t := range manager.ListByModule(listModuleFilter) {
			if scope == "" || t.Scope() == scope {
				topicList = append(topicList, t)
			}
		}
	case scope != "":
		topicList = manager.ListByScope(scope)
	default:
		topicList = manager.List()
	}

	out := cmd.OutOrStdout()
	switch listOutputFormat {
	case "json":
		return topics.WriteJSON(out, topicList)
	case "table":
		if len(topicList) == 0 {
			fmt.Fprintln(out, noTopicsMessage())
			return nil
		}
		return topics.WriteTable(out, topicList)
	default:
		return fmt.Errorf("unsupported output format %q, use table or json", listOutputFormat)
	}
}

func noTopicsMessage() string {
	var filters []string
	if listModuleFilter != "" {
		filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
	}
	if listScopeFilter != "" {
		filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
	}
	if len(filters) == 0 {
		return "No topics found"
	}
	return "No topics found matching: " + strings.Join(filters, ", ")
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
