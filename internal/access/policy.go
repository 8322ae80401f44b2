package access

import (
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/query"
)

// The access policy is pure: it maps a principal to query scope predicates
// and yes/no authorization answers. It performs no I/O.
//
// Scope rules (role is the sole discriminator):
//   - admin: unscoped.
//   - manager: mail items touching the manager's department, either side.
//   - head: mail items referred to the head's section; referrals and
//     comments of that section only.
//
// Denials are translated to the wire in the service layer: mail reads fold
// the scope into the existence predicate (absence and denial are both 404,
// so cross-department existence never leaks), while referral access by id
// confirms existence first and yields an explicit 403 on section mismatch.

// MailScope returns the mandatory clause restricting mail rows visible to
// the principal. Table alias "m" is assumed.
func MailScope(p Principal) query.Clause {
	switch p.Role {
	case models.RoleAdmin:
		return query.Clause{}
	case models.RoleManager:
		dept := p.Department()
		return query.Or(
			query.Eq("m.from_department_id", dept),
			query.Eq("m.to_department_id", dept),
		)
	case models.RoleHead:
		return query.Exists(
			"SELECT 1 FROM referrals r WHERE r.mail_id = m.id AND r.section_id = ?",
			p.Section(),
		)
	default:
		// Unknown roles see nothing.
		return query.Expr("FALSE")
	}
}

// CanCreateMail reports whether the principal may register new mail.
func CanCreateMail(p Principal) bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleManager
}

// CanCreateReferral reports whether the principal may refer mail to a section.
func CanCreateReferral(p Principal) bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleManager
}

// CanDeleteReferral reports whether the principal may remove a referral.
func CanDeleteReferral(p Principal) bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleManager
}

// CanAccessSection reports whether the principal may read or act on
// referrals of the given section.
func CanAccessSection(p Principal, sectionID string) bool {
	switch p.Role {
	case models.RoleAdmin, models.RoleManager:
		return true
	case models.RoleHead:
		return p.Section() == sectionID
	default:
		return false
	}
}

// CanAccessReferral gates referral reads, status updates and comments by the
// owning section.
func CanAccessReferral(p Principal, referral *models.Referral) bool {
	if referral == nil {
		return false
	}
	return CanAccessSection(p, referral.SectionID)
}
