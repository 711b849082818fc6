package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/delivery-client/internal/http"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// Transport implements graph.Fetcher over the delivery API.
type Transport struct {
	httpClient  *http.Client
	space       string
	environment string
}

// NewTransport creates a transport for one space and environment.
func NewTransport(httpClient *http.Client, space, environment string) *Transport {
	return &Transport{
		httpClient:  httpClient,
		space:       space,
		environment: environment,
	}
}

// FetchResource implements graph.Fetcher.FetchResource.
func (t *Transport) FetchResource(ctx context.Context, resourceType cda.ResourceType, id, locale string) (*cda.RawResource, error) {
	path, err := t.resourcePath(resourceType, id)
	if err != nil {
		return nil, err
	}

	var query url.Values
	if locale != "" && resourceType.IsLocalized() {
		query = url.Values{"locale": []string{locale}}
	}

	resp, err := t.httpClient.Get(ctx, path, query)
	if err != nil {
		if cda.IsNotFound(err) {
			return nil, &cda.NotFoundError{
				Identity: cda.Identity{Space: t.space, Environment: t.environment, Type: resourceType, ID: id, Locale: locale},
				Err:      err,
			}
		}

		return nil, fmt.Errorf("getting %s %q: %w", resourceType, id, err)
	}

	var raw cda.RawResource

	err = json.Unmarshal(resp.Body, &raw)
	if err != nil {
		return nil, &cda.MalformedResponseError{Path: path, Reason: err.Error()}
	}

	return &raw, nil
}

// FetchCollection implements graph.Fetcher.FetchCollection.
func (t *Transport) FetchCollection(ctx context.Context, resourceType cda.ResourceType, query *cda.Query) (*cda.Envelope, error) {
	path, err := t.collectionPath(resourceType)
	if err != nil {
		return nil, err
	}

	var queryParams url.Values
	if query != nil {
		queryParams = query.ToValues()
	}

	resp, err := t.httpClient.Get(ctx, path, queryParams)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", resourceType, err)
	}

	var envelope cda.Envelope

	err = json.Unmarshal(resp.Body, &envelope)
	if err != nil {
		return nil, &cda.MalformedResponseError{Path: path, Reason: err.Error()}
	}

	if query != nil {
		envelope.Locale = query.Locale
	}

	return &envelope, nil
}

func (t *Transport) environmentPath() string {
	return "/spaces/" + url.PathEscape(t.space) + "/environments/" + url.PathEscape(t.environment)
}

func (t *Transport) collectionPath(resourceType cda.ResourceType) (string, error) {
	switch resourceType {
	case cda.TypeEntry:
		return t.environmentPath() + "/entries", nil
	case cda.TypeAsset:
		return t.environmentPath() + "/assets", nil
	case cda.TypeContentType:
		return t.environmentPath() + "/content_types", nil
	case cda.TypeSpace, cda.TypeArray, cda.TypeLink, cda.TypeError:
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedResourceType, resourceType)
}

func (t *Transport) resourcePath(resourceType cda.ResourceType, id string) (string, error) {
	if resourceType == cda.TypeSpace {
		return "/spaces/" + url.PathEscape(t.space), nil
	}

	path, err := t.collectionPath(resourceType)
	if err != nil {
		return "", err
	}

	return path + "/" + url.PathEscape(id), nil
}
