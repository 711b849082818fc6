package cda

// ContentType describes the fields entries of one type carry.
type ContentType struct {
	identity Identity

	SysInfo      Sys                `json:"sys"                    yaml:"sys"`
	Name         string             `json:"name"                   yaml:"name"`
	Description  string             `json:"description,omitempty"  yaml:"description,omitempty"`
	DisplayField string             `json:"displayField,omitempty" yaml:"displayField,omitempty"`
	Fields       []ContentTypeField `json:"fields"                 yaml:"fields"`
}

// ContentTypeField describes one field of a content type.
type ContentTypeField struct {
	ID        string          `json:"id"                 yaml:"id"`
	Name      string          `json:"name"               yaml:"name"`
	Type      string          `json:"type"               yaml:"type"`
	LinkType  string          `json:"linkType,omitempty" yaml:"linkType,omitempty"`
	Items     *FieldArrayItem `json:"items,omitempty"    yaml:"items,omitempty"`
	Localized bool            `json:"localized"          yaml:"localized"`
	Required  bool            `json:"required"           yaml:"required"`
	Disabled  bool            `json:"disabled"           yaml:"disabled"`
	Omitted   bool            `json:"omitted"            yaml:"omitted"`
}

// FieldArrayItem describes the element type of an Array field.
type FieldArrayItem struct {
	Type     string `json:"type"               yaml:"type"`
	LinkType string `json:"linkType,omitempty" yaml:"linkType,omitempty"`
}

// BindIdentity attaches the session identity to a decoded content type.
func (c *ContentType) BindIdentity(identity Identity) {
	c.identity = identity
}

// Identity implements Resource.
func (c *ContentType) Identity() Identity {
	return c.identity
}

// Sys implements Resource.
func (c *ContentType) Sys() Sys {
	return c.SysInfo
}

// Field returns the definition of a field by id.
func (c *ContentType) Field(id string) (ContentTypeField, bool) {
	for _, field := range c.Fields {
		if field.ID == id {
			return field, true
		}
	}

	return ContentTypeField{}, false
}
