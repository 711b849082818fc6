package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// GetContentType implements cda.SpaceClient.GetContentType.
func (c *Client) GetContentType(ctx context.Context, id string) (*cda.ContentType, error) {
	contentType, err := resolveAs[*cda.ContentType](ctx, c, c.identity(cda.TypeContentType, id, ""))
	if err != nil {
		return nil, fmt.Errorf("getting content type: %w", err)
	}

	return contentType, nil
}

// GetContentTypes lists content types. Content types already materialized in
// this session are returned as the same instances.
func (c *Client) GetContentTypes(ctx context.Context, query *cda.Query) (*cda.ResourceArray[*cda.ContentType], error) {
	table, resources, itemErrors, err := c.fetchAll(ctx, cda.TypeContentType, query)
	if err != nil {
		return nil, fmt.Errorf("listing content types: %w", err)
	}

	return collect[*cda.ContentType](table, resources, itemErrors), nil
}

// GetSpace implements cda.SpaceClient.GetSpace.
func (c *Client) GetSpace(ctx context.Context) (*cda.Space, error) {
	space, err := resolveAs[*cda.Space](ctx, c, c.identity(cda.TypeSpace, c.space, ""))
	if err != nil {
		return nil, fmt.Errorf("getting space: %w", err)
	}

	return space, nil
}
