package catalog

import (
	"fmt"
	"strings"
)

// Validate performs existence checks only: ids are present and unique, and every
// character resolves a potential set for both roles.
func Validate(cat Catalog) error {
	var errs []string

	if len(cat.Characters) == 0 {
		errs = append(errs, "characters must not be empty")
	}

	seen := make(map[string]bool, len(cat.Characters))
	for i, ch := range cat.Characters {
		if ch.ID == "" {
			errs = append(errs, fmt.Sprintf("characters[%d].id is required", i))
			continue
		}
		if seen[ch.ID] {
			errs = append(errs, fmt.Sprintf("characters[%d].id %q is duplicated", i, ch.ID))
		}
		seen[ch.ID] = true

		for _, role := range []Role{RoleMain, RoleSupport} {
			set, ok := ch.PotentialSet(role)
			if !ok {
				errs = append(errs, fmt.Sprintf("character %q has no %s potentials (set potentials.%s or potentials.common)", ch.ID, role, role))
				continue
			}
			errs = append(errs, checkIDs(ch.ID, role, "core", set.Core)...)
			errs = append(errs, checkIDs(ch.ID, role, "sub", set.Sub)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func checkIDs(charID string, role Role, kind string, ps []Potential) []string {
	var errs []string
	seen := make(map[string]bool, len(ps))
	for i, p := range ps {
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Sprintf("character %q %s.%s[%d].id is required", charID, role, kind, i))
		case seen[p.ID]:
			errs = append(errs, fmt.Sprintf("character %q %s.%s id %q is duplicated", charID, role, kind, p.ID))
		}
		seen[p.ID] = true
	}
	return errs
}
