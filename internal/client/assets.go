package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// GetAsset implements cda.AssetsClient.GetAsset.
func (c *Client) GetAsset(ctx context.Context, id, locale string) (*cda.Asset, error) {
	asset, err := resolveAs[*cda.Asset](ctx, c, c.identity(cda.TypeAsset, id, locale))
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}

	return asset, nil
}

// GetAssets implements cda.AssetsClient.GetAssets.
func (c *Client) GetAssets(ctx context.Context, query *cda.Query) (*cda.ResourceArray[*cda.Asset], error) {
	table, resources, itemErrors, err := c.fetchAll(ctx, cda.TypeAsset, query)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	return collect[*cda.Asset](table, resources, itemErrors), nil
}
