// Package brand holds the static tenant-partition configuration: a
// closed set of brand ids, each with display name, theme, feature
// flags, and a template allowlist. Brands are never stored — they are
// compiled-in configuration, mirroring how the teacher's provider
// registry treats its closed set of upstream vendors.
package brand

// ID is one of the closed set of brand identifiers.
type ID string

const (
	Root ID = "root"
	ABC  ID = "abc"
	CBC  ID = "cbc"
	CBL  ID = "cbl"

	// Default is the brand used when none is parsed from the path or
	// the brand query parameter.
	Default = Root
)

// Theme carries the display colors for a brand.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Config is a brand's static configuration.
type Config struct {
	ID                ID       `json:"id"`
	Name              string   `json:"name"`
	AppTitle          string   `json:"appTitle"`
	Logo              string   `json:"logo"`
	Theme             Theme    `json:"theme"`
	FeatureFlags      map[string]bool `json:"featureFlags"`
	AllowedTemplates  []string `json:"allowedTemplates"`
	DefaultTemplateID string   `json:"defaultTemplateId"`
}

var registry = map[ID]Config{
	Root: {
		ID: Root, Name: "Event Gateway", AppTitle: "Events",
		Logo:             "/static/root/logo.svg",
		Theme:            Theme{Primary: "#111827", Secondary: "#6366F1"},
		FeatureFlags:     map[string]bool{"sponsors": true, "bracket": true},
		AllowedTemplates: []string{"standard", "minimal"},
		DefaultTemplateID: "standard",
	},
	ABC: {
		ID: ABC, Name: "ABC Events", AppTitle: "ABC Live",
		Logo:             "/static/abc/logo.svg",
		Theme:            Theme{Primary: "#B91C1C", Secondary: "#111827"},
		FeatureFlags:     map[string]bool{"sponsors": true, "bracket": true},
		AllowedTemplates: []string{"standard", "trivia", "bracket"},
		DefaultTemplateID: "standard",
	},
	CBC: {
		ID: CBC, Name: "CBC Events", AppTitle: "CBC Live",
		Logo:             "/static/cbc/logo.svg",
		Theme:            Theme{Primary: "#1D4ED8", Secondary: "#F59E0B"},
		FeatureFlags:     map[string]bool{"sponsors": true, "bracket": false},
		AllowedTemplates: []string{"standard", "minimal"},
		DefaultTemplateID: "standard",
	},
	CBL: {
		ID: CBL, Name: "CBL Events", AppTitle: "CBL Live",
		Logo:             "/static/cbl/logo.svg",
		Theme:            Theme{Primary: "#047857", Secondary: "#111827"},
		FeatureFlags:     map[string]bool{"sponsors": false, "bracket": true},
		AllowedTemplates: []string{"standard", "bracket"},
		DefaultTemplateID: "standard",
	},
}

// Valid reports whether id belongs to the closed brand set.
func Valid(id string) bool {
	_, ok := registry[ID(id)]
	return ok
}

// Get returns the brand config for id, falling back to Root when id is
// not recognized.
func Get(id string) Config {
	if c, ok := registry[ID(id)]; ok {
		return c
	}
	return registry[Root]
}

// TemplateAllowed reports whether templateID is in the brand's
// allowlist (an empty templateID is always allowed, since template
// selection is optional).
func (c Config) TemplateAllowed(templateID string) bool {
	if templateID == "" {
		return true
	}
	for _, t := range c.AllowedTemplates {
		if t == templateID {
			return true
		}
	}
	return false
}

// Public returns the subset of brand config exposed to public/display
// surfaces: id, name, app title, logo, theme, feature flags.
type Public struct {
	ID           ID              `json:"id"`
	Name         string          `json:"name"`
	AppTitle     string          `json:"appTitle"`
	Logo         string          `json:"logo"`
	Theme        Theme           `json:"theme"`
	FeatureFlags map[string]bool `json:"featureFlags"`
}

func (c Config) Public() Public {
	return Public{
		ID: c.ID, Name: c.Name, AppTitle: c.AppTitle, Logo: c.Logo,
		Theme: c.Theme, FeatureFlags: c.FeatureFlags,
	}
}

// Admin returns the brand config surfaced to the admin bundle:
// allowedTemplates + defaultTemplateId in addition to the public view.
type Admin struct {
	Public
	AllowedTemplates  []string `json:"allowedTemplates"`
	DefaultTemplateID string   `json:"defaultTemplateId"`
}

func (c Config) Admin() Admin {
	return Admin{
		Public:            c.Public(),
		AllowedTemplates:  c.AllowedTemplates,
		DefaultTemplateID: c.DefaultTemplateID,
	}
}
