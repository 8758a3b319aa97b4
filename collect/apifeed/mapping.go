package apifeed

// EndpointMapping declares how to call one supplier's price API and how
// to read its response. Mappings are injectable configuration supplied
// at collector construction; this module does not own a file format for
// them (the config package can parse them from YAML for hosts that
// want that).
type EndpointMapping struct {
	// URL is the absolute endpoint URL.
	URL string `yaml:"url" json:"url"`

	// Method defaults to GET.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`

	// AuthHeader / AuthValue form one auth header, e.g.
	// "Authorization" / "Bearer <token>". Both empty means no auth.
	AuthHeader string `yaml:"auth_header,omitempty" json:"auth_header,omitempty"`
	AuthValue  string `yaml:"auth_value,omitempty" json:"auth_value,omitempty"`

	// Query is appended to the URL as static query parameters.
	Query map[string]string `yaml:"query,omitempty" json:"query,omitempty"`

	// Items is the gjson path of the response's items array, e.g.
	// "data.list". Empty means the response root is the array.
	Items string `yaml:"items,omitempty" json:"items,omitempty"`

	// Fields maps observation fields to gjson paths inside one item.
	Fields FieldPaths `yaml:"fields" json:"fields"`

	// HealthPath optionally overrides the URL used by HealthCheck.
	HealthPath string `yaml:"health_path,omitempty" json:"health_path,omitempty"`
}

// FieldPaths are per-item gjson paths. Name and Price are required;
// the rest are optional.
type FieldPaths struct {
	Name      string `yaml:"name" json:"name"`
	Price     string `yaml:"price" json:"price"`
	Unit      string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Quality   string `yaml:"quality,omitempty" json:"quality,omitempty"`
	Timestamp string `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
}
