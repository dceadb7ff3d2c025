package export

import "strings"

// DefaultFieldAliases maps lower-cased technical or label-derived aliases to the
// canonical field name the bulk service queries by. Several aliases for one field
// would otherwise produce one remote sub-query each.
var DefaultFieldAliases = map[string]string{
	"assignee.name": "Assignee.Name",
	"user name":     "Assignee.Name",

	"assignee.email": "Assignee.Email",
	"user email":     "Assignee.Email",

	"assigneeid":  "AssigneeId",
	"assignee.id": "AssigneeId",
	"user id":     "AssigneeId",

	"assignee.profile.name": "Assignee.Profile.Name",
	"user profile":          "Assignee.Profile.Name",

	"assignee.isactive": "Assignee.IsActive",
	"user active":       "Assignee.IsActive",

	"permissionset.name":  "PermissionSet.Name",
	"permissionset.label": "PermissionSet.Name",
	"permission set":      "PermissionSet.Name",

	"permissionsetgroup.developername": "PermissionSetGroup.DeveloperName",
	"permissionsetgroup.masterlabel":   "PermissionSetGroup.DeveloperName",
	"permission set group":             "PermissionSetGroup.DeveloperName",
}

type FieldCanonicalizer struct {
	aliases map[string]string
}

// NewFieldCanonicalizer starts from DefaultFieldAliases and layers overrides on
// top. Override keys are matched case-insensitively.
func NewFieldCanonicalizer(overrides map[string]string) *FieldCanonicalizer {
	aliases := make(map[string]string, len(DefaultFieldAliases)+len(overrides))
	for k, v := range DefaultFieldAliases {
		aliases[k] = v
	}
	for k, v := range overrides {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &FieldCanonicalizer{aliases: aliases}
}

// Canonical returns the canonical name for field, or field unchanged.
func (c *FieldCanonicalizer) Canonical(field string) string {
	if canonical, ok := c.aliases[strings.ToLower(strings.TrimSpace(field))]; ok {
		return canonical
	}
	return field
}

// Apply canonicalizes every field and drops later duplicates, keeping the
// order of first appearance.
func (c *FieldCanonicalizer) Apply(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		canonical := c.Canonical(f)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
