package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
)

// tableFunc fills a table for the table output format.
type tableFunc func(table *tablewriter.Table) error

// outputFormat resolves --output. "auto" renders a table on a terminal and
// JSON everywhere else.
func outputFormat(w io.Writer) (string, error) {
	format := strings.ToLower(viper.GetString("output"))

	switch format {
	case "", constants.FormatAuto:
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (use auto, table, json or yaml)", constants.ErrInvalidOutputFormat, format)
	}
}

// render writes value in the selected output format. A --jq filter forces
// structured output and is applied to the JSON form of value.
func render(cmd *cobra.Command, value any, fill tableFunc) error {
	return renderWithFooter(cmd, value, fill, nil)
}

// renderPage renders a collection page; table output ends with a pagination summary.
func renderPage(cmd *cobra.Command, value any, fill tableFunc, total, skip, limit int) error {
	return renderWithFooter(cmd, value, fill, func() {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Total: %d (skip %d, limit %d)\n", total, skip, limit)
	})
}

func renderWithFooter(cmd *cobra.Command, value any, fill tableFunc, footer func()) error {
	out := cmd.OutOrStdout()

	format, err := outputFormat(out)
	if err != nil {
		return err
	}

	expression := strings.TrimSpace(viper.GetString("jq"))
	if expression != "" && format == constants.FormatTable {
		format = constants.FormatJSON
	}

	if format == constants.FormatTable {
		table := tablewriter.NewWriter(out)

		err = fill(table)
		if err != nil {
			return err
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		if footer != nil {
			footer()
		}

		return nil
	}

	generic, err := toGeneric(value)
	if err != nil {
		return err
	}

	documents := []any{generic}

	if expression != "" {
		documents, err = runJQ(cmd.Context(), expression, generic)
		if err != nil {
			return err
		}
	}

	for _, document := range documents {
		err = encode(out, format, document)
		if err != nil {
			return err
		}
	}

	return nil
}

func encode(out io.Writer, format string, document any) error {
	switch format {
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)

		if err := encoder.Encode(document); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	default:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(document); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	}

	return nil
}

// toGeneric converts a value to the maps and slices encoding/json decodes
// into, which is the input shape gojq and yaml expect.
func toGeneric(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	var generic any

	err = json.Unmarshal(data, &generic)
	if err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}

	return generic, nil
}

// runJQ evaluates a jq expression and returns every emitted value.
func runJQ(ctx context.Context, expression string, input any) ([]any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]any, 0, 1)
	iterator := code.RunWithContext(ctx, input)

	for {
		value, ok := iterator.Next()
		if !ok {
			break
		}

		if valueErr, isErr := value.(error); isErr {
			return nil, fmt.Errorf("jq: %w", valueErr)
		}

		results = append(results, value)
	}

	return results, nil
}

// formatValue renders a generic field value for a table cell.
func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case map[string]any:
		if label, ok := resourceLabel(typed); ok {
			return label
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return string(data)
}

// resourceLabel renders links and embedded resources by type and id.
func resourceLabel(object map[string]any) (string, bool) {
	sys, ok := object["sys"].(map[string]any)
	if !ok {
		return "", false
	}

	kind, _ := sys["type"].(string)
	id, _ := sys["id"].(string)

	if kind == "Link" {
		linkType, _ := sys["linkType"].(string)

		return fmt.Sprintf("-> %s %s", linkType, id), true
	}

	fields, _ := object["fields"].(map[string]any)
	for _, name := range []string{"name", "title"} {
		if title, ok := fields[name].(string); ok {
			return fmt.Sprintf("%s %s (%s)", kind, id, title), true
		}
	}

	return fmt.Sprintf("%s %s", kind, id), true
}

// appendFields adds one row per field, sorted by name.
func appendFields(table *tablewriter.Table, fields map[string]any) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_ = table.Append(name, formatValue(fields[name]))
	}
}
