package domain

// BusinessContext is the caller-supplied profile used to personalise responses.
type BusinessContext struct {
	Name            string            `json:"name" mapstructure:"name"`
	Domain          string            `json:"domain" mapstructure:"domain"`
	Capabilities    []string          `json:"capabilities" mapstructure:"capabilities"`
	Website         string            `json:"website,omitempty" mapstructure:"website"`
	SupportEmail    string            `json:"support_email,omitempty" mapstructure:"support_email"`
	BrandColor      string            `json:"brand_color,omitempty" mapstructure:"brand_color"`
	CustomVariables map[string]string `json:"custom_variables,omitempty" mapstructure:"custom_variables"`
}

// BusinessContextPatch carries a partial update; nil fields are left untouched.
type BusinessContextPatch struct {
	Name            *string           `json:"name,omitempty"`
	Domain          *string           `json:"domain,omitempty"`
	Capabilities    []string          `json:"capabilities,omitempty"`
	Website         *string           `json:"website,omitempty"`
	SupportEmail    *string           `json:"support_email,omitempty"`
	BrandColor      *string           `json:"brand_color,omitempty"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
}

// Apply returns a copy of c with the patch merged in. Custom variables are merged key by key.
func (c BusinessContext) Apply(p BusinessContextPatch) BusinessContext {
	out := c.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Domain != nil {
		out.Domain = *p.Domain
	}
	if p.Capabilities != nil {
		out.Capabilities = append([]string(nil), p.Capabilities...)
	}
	if p.Website != nil {
		out.Website = *p.Website
	}
	if p.SupportEmail != nil {
		out.SupportEmail = *p.SupportEmail
	}
	if p.BrandColor != nil {
		out.BrandColor = *p.BrandColor
	}
	if len(p.CustomVariables) > 0 {
		if out.CustomVariables == nil {
			out.CustomVariables = make(map[string]string, len(p.CustomVariables))
		}
		for k, v := range p.CustomVariables {
			out.CustomVariables[k] = v
		}
	}
	return out
}

// Clone deep-copies the slice and map fields.
func (c BusinessContext) Clone() BusinessContext {
	out := c
	if c.Capabilities != nil {
		out.Capabilities = append([]string(nil), c.Capabilities...)
	}
	if c.CustomVariables != nil {
		out.CustomVariables = make(map[string]string, len(c.CustomVariables))
		for k, v := range c.CustomVariables {
			out.CustomVariables[k] = v
		}
	}
	return out
}
