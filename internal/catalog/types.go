// types.go
package catalog

// Role selects which potential set a character exposes in a slot.
type Role string

const (
	RoleMain    Role = "main"
	RoleSupport Role = "support"
)

// Catalog is the static character data; mirrors data/potential.json.
type Catalog struct {
	Version    string      `yaml:"version,omitempty" json:"version,omitempty"`
	Characters []Character `yaml:"characters" json:"characters"`
}

type Character struct {
	ID         string     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Icon       string     `yaml:"icon,omitempty" json:"icon,omitempty"`
	Potentials Potentials `yaml:"potentials" json:"potentials"`
}

// Potentials holds per-role sets. Common is reused for any role without its own set.
type Potentials struct {
	Main    *PotentialSet `yaml:"main,omitempty" json:"main,omitempty"`
	Support *PotentialSet `yaml:"support,omitempty" json:"support,omitempty"`
	Common  *PotentialSet `yaml:"common,omitempty" json:"common,omitempty"`
}

type PotentialSet struct {
	Core []Potential `yaml:"core" json:"core"`
	Sub  []Potential `yaml:"sub" json:"sub"`
}

type Potential struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Image       string `yaml:"image,omitempty" json:"image,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// PotentialSet returns the set used when the character sits in a slot of the given role.
func (c Character) PotentialSet(role Role) (PotentialSet, bool) {
	var set *PotentialSet
	switch role {
	case RoleMain:
		set = c.Potentials.Main
	case RoleSupport:
		set = c.Potentials.Support
	}
	if set == nil {
		set = c.Potentials.Common
	}
	if set == nil {
		return PotentialSet{}, false
	}
	return *set, true
}

// CoreIDs lists core potential identifiers in catalog order.
func (s PotentialSet) CoreIDs() []string {
	return ids(s.Core)
}

// SubIDs lists sub potential identifiers in catalog order.
func (s PotentialSet) SubIDs() []string {
	return ids(s.Sub)
}

func ids(ps []Potential) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

// Character looks up a character by id.
func (c *Catalog) Character(id string) (Character, bool) {
	if c == nil {
		return Character{}, false
	}
	for _, ch := range c.Characters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Character{}, false
}
