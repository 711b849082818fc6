package cda

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Asset is a materialized media resource.
type Asset struct {
	fieldSet
}

// AssetFile describes the binary behind an asset.
type AssetFile struct {
	URL         string       `json:"url"                   yaml:"url"`
	FileName    string       `json:"fileName"              yaml:"fileName"`
	ContentType string       `json:"contentType"           yaml:"contentType"`
	Details     *FileDetails `json:"details,omitempty"     yaml:"details,omitempty"`
	Upload      string       `json:"upload,omitempty"      yaml:"upload,omitempty"`
}

// FileDetails holds size and, for images, dimensions.
type FileDetails struct {
	Size  int64         `json:"size"            yaml:"size"`
	Image *ImageDetails `json:"image,omitempty" yaml:"image,omitempty"`
}

// ImageDetails holds image dimensions in pixels.
type ImageDetails struct {
	Width  int `json:"width"  yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// NewAsset builds an asset. The fields map is owned by the asset afterwards.
func NewAsset(identity Identity, sys Sys, fields map[string]any, opts ...ResourceOption) *Asset {
	options := &resourceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &Asset{fieldSet: newFieldSet(identity, sys, fields, options)}
}

// Title returns the asset title.
func (a *Asset) Title() string {
	return a.String("title")
}

// Description returns the asset description.
func (a *Asset) Description() string {
	return a.String("description")
}

// File returns the file metadata in the asset's own (or default) locale.
func (a *Asset) File() (*AssetFile, error) {
	return a.FileIn("")
}

// FileIn returns the file metadata for a locale, following FieldIn's fallback rules.
func (a *Asset) FileIn(locale string) (*AssetFile, error) {
	raw, err := a.FieldIn("file", locale)
	if err != nil {
		return nil, err
	}

	file := &AssetFile{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           file,
	})
	if err != nil {
		return nil, fmt.Errorf("creating file decoder: %w", err)
	}

	err = decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s file: %w", a.identity, err)
	}

	return file, nil
}

// MarshalJSON renders the asset.
func (a *Asset) MarshalJSON() ([]byte, error) {
	return a.marshal()
}
