package onshape

import (
	"encoding/json"
	"strconv"
)

// DocumentRef addresses one element of an Onshape document.
// It is parsed once from the document URL and used to build every API path.
type DocumentRef struct {
	DocumentID string
	WVM        string // "w", "v" or "m": workspace, version or microversion
	WVMID      string
	ElementID  string
}

// Part represents a single part of a part studio element as returned by the parts API.
type Part struct {
	PartID string `json:"partId"`
	Name   string `json:"name"`
}

// ParameterKind is the kind of a configuration parameter.
type ParameterKind string

const (
	KindEnum        ParameterKind = "enum"
	KindBoolean     ParameterKind = "boolean"
	KindUnsupported ParameterKind = "unsupported"
)

// btType values of the configuration API.
const (
	btTypeEnum    = "BTMConfigurationParameterEnum-105"
	btTypeBoolean = "BTMConfigurationParameterBoolean-2550"
)

// ConfigOption is one selectable value of a configuration parameter.
// An empty Value marks an option the API returned without a usable value.
type ConfigOption struct {
	Value string `json:"option"`
	Name  string `json:"optionName"`
}

// ConfigParameter is a user-exposed variable of a configured part studio.
type ConfigParameter struct {
	ID      string
	Name    string
	Kind    ParameterKind
	Options []ConfigOption
	Default string
}

// IsDefault reports whether opt is the default option of p.
func (p ConfigParameter) IsDefault(opt ConfigOption) bool {
	return opt.Value != "" && opt.Value == p.Default
}

// ParameterAssignment is one concrete value for one configuration parameter.
type ParameterAssignment struct {
	ParameterID string `json:"parameterId"`
	Value       string `json:"parameterValue"`
}

// EncodedConfiguration is the response of the configuration encodings API.
// EncodedID is the opaque token passed to the export endpoints.
type EncodedConfiguration struct {
	EncodedID  string `json:"encodedId"`
	QueryParam string `json:"queryParam"`
}

// ConfigurationResponse represents the response of the element configuration API.
type ConfigurationResponse struct {
	RawParameters []RawConfigParameter `json:"configurationParameters"`
}

// RawConfigParameter is a configuration parameter as sent by the API.
// DefaultValue is a string for list parameters and a bool for checkbox parameters.
type RawConfigParameter struct {
	BTType       string          `json:"btType"`
	ParameterID  string          `json:"parameterId"`
	Name         string          `json:"parameterName"`
	DefaultValue json.RawMessage `json:"defaultValue"`
	Options      []rawOption     `json:"options,omitempty"`
}

type rawOption struct {
	Option     *string `json:"option"`
	OptionName string  `json:"optionName"`
}

// Parameters converts the raw API parameters into ConfigParameter values,
// preserving their order.
func (r *ConfigurationResponse) Parameters() []ConfigParameter {
	params := make([]ConfigParameter, 0, len(r.RawParameters))
	for _, raw := range r.RawParameters {
		params = append(params, raw.toParameter())
	}
	return params
}

func (raw RawConfigParameter) toParameter() ConfigParameter {
	p := ConfigParameter{
		ID:   raw.ParameterID,
		Name: raw.Name,
	}

	switch raw.BTType {
	case btTypeEnum:
		p.Kind = KindEnum
		var def string
		if err := json.Unmarshal(raw.DefaultValue, &def); err == nil {
			p.Default = def
		}
		p.Options = make([]ConfigOption, 0, len(raw.Options))
		for _, o := range raw.Options {
			opt := ConfigOption{Name: o.OptionName}
			if o.Option != nil {
				opt.Value = *o.Option
			}
			if opt.Name == "" {
				opt.Name = opt.Value
			}
			p.Options = append(p.Options, opt)
		}
	case btTypeBoolean:
		p.Kind = KindBoolean
		// Checkbox parameters have no option list; the default goes first.
		var def bool
		if err := json.Unmarshal(raw.DefaultValue, &def); err != nil {
			// Unknown default: nothing is marked, false goes first.
			p.Options = []ConfigOption{
				booleanOption(raw.Name, false),
				booleanOption(raw.Name, true),
			}
			break
		}
		p.Default = strconv.FormatBool(def)
		p.Options = []ConfigOption{
			booleanOption(raw.Name, def),
			booleanOption(raw.Name, !def),
		}
	default:
		p.Kind = KindUnsupported
	}

	return p
}

func booleanOption(paramName string, v bool) ConfigOption {
	s := strconv.FormatBool(v)
	return ConfigOption{Value: s, Name: paramName + "=" + s}
}
