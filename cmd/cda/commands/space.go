package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewContentTypeCommand creates the content-type command.
func NewContentTypeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "content-type CONTENT_TYPE_ID",
		Aliases: []string{"ct"},
		Short:   "Get a content type",
		Long:    "Display a content type and the fields its entries carry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			contentType, err := client.GetContentType(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get content type: %w", err)
			}

			return render(cmd, contentType, func(table *tablewriter.Table) error {
				table.Header("Field", "Name", "Type", "Localized", "Required")

				for _, field := range contentType.Fields {
					fieldType := field.Type
					if field.LinkType != "" {
						fieldType += " (" + field.LinkType + ")"
					}

					_ = table.Append(
						field.ID,
						field.Name,
						fieldType,
						strconv.FormatBool(field.Localized),
						strconv.FormatBool(field.Required),
					)
				}

				return nil
			})
		},
	}
}

// NewContentTypesCommand creates the content-types command.
func NewContentTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content-types",
		Short: "List content types",
		Long:  "List the content types of the space",
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

			contentTypes, err := client.GetContentTypes(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to list content types: %w", err)
			}

			warnItemErrors(cmd, contentTypes.Errors())

			return renderPage(cmd, contentTypes, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Display Field", "Fields")

				for _, contentType := range contentTypes.All() {
					_ = table.Append(
						contentType.SysInfo.ID,
						contentType.Name,
						contentType.DisplayField,
						strconv.Itoa(len(contentType.Fields)),
					)
				}

				return nil
			}, contentTypes.Total(), contentTypes.Skip(), contentTypes.Limit())
		},
	}

	addQueryFlags(cmd)

	return cmd
}

// NewSpaceCommand creates the space command.
func NewSpaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "space",
		Short: "Show the space",
		Long:  "Display the configured space and its locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			space, err := client.GetSpace(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get space: %w", err)
			}

			return render(cmd, space, func(table *tablewriter.Table) error {
				table.Header("Locale", "Name", "Default", "Fallback")

				for _, locale := range space.Locales {
					_ = table.Append(locale.Code, locale.Name, strconv.FormatBool(locale.Default), locale.FallbackCode)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Space: %s (%s)\n", space.Name, space.SysInfo.ID)

				return nil
			})
		},
	}
}
