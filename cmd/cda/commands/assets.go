package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// NewAssetCommand creates the asset command.
func NewAssetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "asset ASSET_ID",
		Short: "Get an asset",
		Long:  "Display the metadata and file details of a single asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd)
			if err != nil {
				return err
			}

			asset, err := client.GetAsset(cmd.Context(), args[0], viper.GetString("locale"))
			if err != nil {
				return fmt.Errorf("failed to get asset: %w", err)
			}

			return render(cmd, asset, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append("ID", asset.ID())
				_ = table.Append("Title", asset.Title())
				_ = table.Append("Description", asset.Description())
				_ = table.Append("Locale", asset.Locale())

				file, err := asset.File()
				if err == nil {
					_ = table.Append("File Name", file.FileName)
					_ = table.Append("Content Type", file.ContentType)
					_ = table.Append("URL", file.URL)
					_ = table.Append("Size", fileSize(file))
				}

				_ = table.Append("Updated", formatTime(asset.Sys().UpdatedAt))

				return nil
			})
		},
	}
}

// NewAssetsCommand creates the assets command.
func NewAssetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List assets",
		Long:  "List assets of the space",
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

			assets, err := client.GetAssets(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to list assets: %w", err)
			}

			warnItemErrors(cmd, assets.Errors())

			return renderPage(cmd, assets, func(table *tablewriter.Table) error {
				table.Header("ID", "Title", "File Name", "Content Type", "Size")

				for _, asset := range assets.All() {
					var name, contentType, size string

					if file, err := asset.File(); err == nil {
						name, contentType, size = file.FileName, file.ContentType, fileSize(file)
					}

					_ = table.Append(asset.ID(), asset.Title(), name, contentType, size)
				}

				return nil
			}, assets.Total(), assets.Skip(), assets.Limit())
		},
	}

	addQueryFlags(cmd)

	return cmd
}

func fileSize(file *cda.AssetFile) string {
	if file.Details == nil {
		return constants.NotAvailable
	}

	return strconv.FormatInt(file.Details.Size, 10)
}
