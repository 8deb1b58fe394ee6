package models

import (
	"fmt"
	"strings"
)

// OwnerType selects the GitHub listing endpoint for an account
type OwnerType string

const (
	OwnerTypeUser         OwnerType = "user"
	OwnerTypeOrganization OwnerType = "org"
)

// ParseOwnerType normalizes a configured owner type. "organization" is accepted as an
// alias of "org".
func ParseOwnerType(value string) (OwnerType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "", fmt.Errorf("owner type must be provided")
	case string(OwnerTypeUser):
		return OwnerTypeUser, nil
	case string(OwnerTypeOrganization), "organization":
		return OwnerTypeOrganization, nil
	default:
		return "", fmt.Errorf("owner type %q is not supported (use user or org)", value)
	}
}

// Repository is one entry of the source account inventory
type Repository struct {
	Name     string `json:"name"`
	Private  bool   `json:"private"`
	CloneURL string `json:"clone_url"`
}

// Visibility returns a human readable visibility label
func (r Repository) Visibility() string {
	if r.Private {
		return "private"
	}
	return "public"
}
