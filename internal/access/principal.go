package access

import (
	"github.com/noah-isme/mailtrack-api/internal/models"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

// Principal is the resolved identity for one request. Every service
// operation takes it as an explicit argument; there is no ambient identity.
type Principal struct {
	ID           string
	Role         models.Role
	FullName     string
	DepartmentID *string
	SectionID    *string
}

// FromClaims converts validated token claims into a Principal.
func FromClaims(claims *models.JWTClaims) Principal {
	return Principal{
		ID:           claims.UserID,
		Role:         claims.Role,
		FullName:     claims.FullName,
		DepartmentID: claims.DepartmentID,
		SectionID:    claims.SectionID,
	}
}

// Validate enforces the affiliation invariants: a manager always carries a
// department, a head always carries a section, an admin carries neither
// scope requirement.
func (p Principal) Validate() error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleManager:
		if p.DepartmentID == nil || *p.DepartmentID == "" {
			return appErrors.Clone(appErrors.ErrUnauthorized, "manager principal has no department")
		}
		return nil
	case models.RoleHead:
		if p.SectionID == nil || *p.SectionID == "" {
			return appErrors.Clone(appErrors.ErrUnauthorized, "head principal has no section")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
}

// Department returns the manager's department id, empty otherwise.
func (p Principal) Department() string {
	if p.DepartmentID == nil {
		return ""
	}
	return *p.DepartmentID
}

// Section returns the head's section id, empty otherwise.
func (p Principal) Section() string {
	if p.SectionID == nil {
		return ""
	}
	return *p.SectionID
}
