package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// NewEntryCommand creates the entry command.
func NewEntryCommand() *cobra.Command {
	var resolve bool

	cmd := &cobra.Command{
		Use:   "entry ENTRY_ID",
		Short: "Get an entry",
		Long:  "Display the fields of a single entry, optionally with its links resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			entry, err := client.GetEntry(ctx, args[0], viper.GetString("locale"))
			if err != nil {
				return fmt.Errorf("failed to get entry: %w", err)
			}

			view, err := entryView(ctx, entry, resolve)
			if err != nil {
				return err
			}

			return render(cmd, view, func(table *tablewriter.Table) error {
				table.Header("Field", "Value")
				_ = table.Append("ID", entry.ID())
				_ = table.Append("Content Type", entry.ContentTypeID())
				_ = table.Append("Locale", entry.Locale())
				_ = table.Append("Updated", formatTime(entry.Sys().UpdatedAt))

				fields, _ := view["fields"].(map[string]any)
				appendFields(table, fields)

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "resolve link fields one level deep")

	return cmd
}

// NewEntriesCommand creates the entries command.
func NewEntriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List entries",
		Long:  "List entries of the space, optionally filtered by content type and field values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := buildQuery(cmd)
			if err != nil {
				return err
			}

			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			entries, err := client.GetEntries(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			warnItemErrors(cmd, entries.Errors())

			return renderPage(cmd, entries, func(table *tablewriter.Table) error {
				table.Header("ID", "Content Type", "Locale", "Title", "Updated")

				for _, entry := range entries.All() {
					_ = table.Append(
						entry.ID(),
						entry.ContentTypeID(),
						entry.Locale(),
						displayTitle(entry.String("name"), entry.String("title")),
						formatTime(entry.Sys().UpdatedAt),
					)
				}

				return nil
			}, entries.Total(), entries.Skip(), entries.Limit())
		},
	}

	cmd.Flags().String("content-type", "", "restrict to one content type id")
	addQueryFlags(cmd)

	return cmd
}

// addQueryFlags registers the collection flags shared by list commands.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", constants.DefaultPageSize, fmt.Sprintf("page size, at most %d", constants.MaxPageSize))
	cmd.Flags().Int("skip", 0, "page offset")
	cmd.Flags().StringSlice("order", nil, "order by fields, prefix with - to reverse")
	cmd.Flags().StringArray("where", nil, "filter as key=value, e.g. fields.color=rainbow (repeatable)")
	cmd.Flags().Int("include", -1, "link levels to include, 0 to 10")
}

// buildQuery reads the collection flags into a query.
func buildQuery(cmd *cobra.Command) (*cda.Query, error) {
	query := cda.NewQuery().WithLocale(viper.GetString("locale"))

	flags := cmd.Flags()

	if flags.Lookup("content-type") != nil {
		contentType, _ := flags.GetString("content-type")
		query.WithContentType(contentType)
	}

	limit, _ := flags.GetInt("limit")
	skip, _ := flags.GetInt("skip")
	order, _ := flags.GetStringSlice("order")
	where, _ := flags.GetStringArray("where")
	include, _ := flags.GetInt("include")

	query.WithLimit(min(limit, constants.MaxPageSize)).WithSkip(skip)

	if len(order) > 0 {
		query.WithOrder(order...)
	}

	if include >= 0 {
		query.WithInclude(include)
	}

	for _, filter := range where {
		key, value, err := parseFilter(filter)
		if err != nil {
			return nil, err
		}

		query.Where(key, value)
	}

	return query, nil
}

func parseFilter(filter string) (string, string, error) {
	key, value, ok := strings.Cut(filter, "=")

	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: %q", constants.ErrInvalidWhereClause, filter)
	}

	return key, value, nil
}

// entryView returns the JSON form of an entry. With resolve set, link fields
// are replaced by the resources they point at; targets that do not exist are
// left as links.
func entryView(ctx context.Context, entry *cda.Entry, resolve bool) (map[string]any, error) {
	generic, err := toGeneric(entry)
	if err != nil {
		return nil, err
	}

	view, _ := generic.(map[string]any)
	if !resolve {
		return view, nil
	}

	fields, _ := view["fields"].(map[string]any)

	for _, name := range entry.FieldNames() {
		if link, err := entry.Link(name); err == nil {
			resolved, found, err := resolveLink(ctx, link)
			if err != nil {
				return nil, err
			}

			if found {
				fields[name] = resolved
			}

			continue
		}

		links, err := entry.Links(name)
		if err != nil {
			continue
		}

		items, _ := fields[name].([]any)

		for i, link := range links {
			resolved, found, err := resolveLink(ctx, link)
			if err != nil {
				return nil, err
			}

			if found && i < len(items) {
				items[i] = resolved
			}
		}
	}

	return view, nil
}

func resolveLink(ctx context.Context, link *cda.Link) (any, bool, error) {
	resource, err := link.Resolve(ctx)
	if err != nil {
		if cda.IsNotFound(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to resolve %s: %w", link.Target(), err)
	}

	generic, err := toGeneric(resource)
	if err != nil {
		return nil, false, err
	}

	return generic, true, nil
}

func displayTitle(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}

	return ""
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}

	return value.Format(time.RFC3339)
}
