package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// GetEntry implements cda.EntriesClient.GetEntry.
func (c *Client) GetEntry(ctx context.Context, id, locale string) (*cda.Entry, error) {
	entry, err := resolveAs[*cda.Entry](ctx, c, c.identity(cda.TypeEntry, id, locale))
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}

	return entry, nil
}

// GetEntries implements cda.EntriesClient.GetEntries.
func (c *Client) GetEntries(ctx context.Context, query *cda.Query) (*cda.ResourceArray[*cda.Entry], error) {
	table, resources, itemErrors, err := c.fetchAll(ctx, cda.TypeEntry, query)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	return collect[*cda.Entry](table, resources, itemErrors), nil
}
