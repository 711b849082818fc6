package cda

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is a collection response as returned by the delivery API.
type Envelope struct {
	Sys      Sys             `json:"sys"              yaml:"sys"`
	Total    int             `json:"total"            yaml:"total"`
	Skip     int             `json:"skip"             yaml:"skip"`
	Limit    int             `json:"limit"            yaml:"limit"`
	Items    []RawResource   `json:"items"            yaml:"items"`
	Includes Includes        `json:"includes"         yaml:"includes"`
	Errors   []EnvelopeError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Locale is the locale the collection was requested in. It is not part
	// of the wire format; the transport records it.
	Locale string `json:"-" yaml:"-"`
}

// Includes holds resources side-loaded with a collection to satisfy links.
type Includes struct {
	Entry []RawResource `json:"Entry,omitempty" yaml:"Entry,omitempty"`
	Asset []RawResource `json:"Asset,omitempty" yaml:"Asset,omitempty"`
}

// EnvelopeError is a non-fatal problem reported alongside a collection, such
// as a link whose target could not be resolved.
type EnvelopeError struct {
	Sys     Sys                  `json:"sys"     yaml:"sys"`
	Details EnvelopeErrorDetails `json:"details" yaml:"details"`
}

// EnvelopeErrorDetails identifies the resource an EnvelopeError is about.
type EnvelopeErrorDetails struct {
	Type     string `json:"type"     yaml:"type"`
	LinkType string `json:"linkType" yaml:"linkType"`
	ID       string `json:"id"       yaml:"id"`
}

// RawResource is one unprocessed resource: its sys block, its fields when they
// form an object (entries, assets), and the full original document.
type RawResource struct {
	Sys    Sys
	Fields map[string]any
	Body   json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawResource) UnmarshalJSON(data []byte) error {
	var aux struct {
		Sys    Sys             `json:"sys"`
		Fields json.RawMessage `json:"fields"`
	}

	err := json.Unmarshal(data, &aux)
	if err != nil {
		return fmt.Errorf("decoding resource: %w", err)
	}

	r.Sys = aux.Sys
	r.Body = append(json.RawMessage(nil), data...)
	r.Fields = nil

	trimmed := bytes.TrimSpace(aux.Fields)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &r.Fields)
		if err != nil {
			return fmt.Errorf("decoding fields of %s %q: %w", aux.Sys.Type, aux.Sys.ID, err)
		}
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (r RawResource) MarshalJSON() ([]byte, error) {
	if len(r.Body) > 0 {
		return r.Body, nil
	}

	data, err := json.Marshal(struct {
		Sys    Sys            `json:"sys"`
		Fields map[string]any `json:"fields,omitempty"`
	}{Sys: r.Sys, Fields: r.Fields})
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}

	return data, nil
}
