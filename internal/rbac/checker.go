package rbac

import (
	"strings"

	"github.com/mind-engage/examportal/internal/users"
)

// Checker answers permission questions for profile roles. Exact grants are
// indexed; grants ending in "*" match by prefix.
type Checker struct {
	exact    map[users.Role]map[string]struct{}
	prefixes map[users.Role][]string
}

func NewChecker(table map[users.Role][]string) *Checker {
	if table == nil {
		table = RolePermissions
	}
	c := &Checker{
		exact:    make(map[users.Role]map[string]struct{}, len(table)),
		prefixes: make(map[users.Role][]string),
	}
	for role, grants := range table {
		set := make(map[string]struct{}, len(grants))
		for _, g := range grants {
			if p, ok := strings.CutSuffix(g, "*"); ok {
				c.prefixes[role] = append(c.prefixes[role], p)
				continue
			}
			set[g] = struct{}{}
		}
		c.exact[role] = set
	}
	return c
}

func (c *Checker) Has(role users.Role, perm string) bool {
	if _, ok := c.exact[role][perm]; ok {
		return true
	}
	for _, p := range c.prefixes[role] {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role users.Role, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}
