package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

func strPtr(s string) *string { return &s }

func admin() Principal {
	return Principal{ID: "u-admin", Role: models.RoleAdmin, FullName: "Admin"}
}

func manager(dept string) Principal {
	return Principal{ID: "u-mgr", Role: models.RoleManager, FullName: "Manager", DepartmentID: strPtr(dept)}
}

func head(section string) Principal {
	return Principal{ID: "u-head", Role: models.RoleHead, FullName: "Head", SectionID: strPtr(section)}
}

func TestMailScopeAdminIsUnscoped(t *testing.T) {
	require.True(t, MailScope(admin()).Empty())
}

func TestMailScopeManagerMatchesEitherSide(t *testing.T) {
	where, args := MailScope(manager("dept-1")).Where()
	require.Equal(t, " WHERE (m.from_department_id = $1 OR m.to_department_id = $2)", where)
	require.Equal(t, []interface{}{"dept-1", "dept-1"}, args)
}

func TestMailScopeHeadRequiresReferralToSection(t *testing.T) {
	where, args := MailScope(head("sec-1")).Where()
	require.Equal(t, " WHERE EXISTS (SELECT 1 FROM referrals r WHERE r.mail_id = m.id AND r.section_id = $1)", where)
	require.Equal(t, []interface{}{"sec-1"}, args)
}

func TestMailScopeUnknownRoleSeesNothing(t *testing.T) {
	where, _ := MailScope(Principal{Role: "intern"}).Where()
	require.Equal(t, " WHERE FALSE", where)
}

func TestCanAccessSection(t *testing.T) {
	require.True(t, CanAccessSection(admin(), "sec-1"))
	require.True(t, CanAccessSection(manager("dept-1"), "sec-1"))
	require.True(t, CanAccessSection(head("sec-1"), "sec-1"))
	require.False(t, CanAccessSection(head("sec-1"), "sec-2"))
	require.False(t, CanAccessSection(Principal{Role: "intern"}, "sec-1"))
}

func TestCanAccessReferral(t *testing.T) {
	referral := &models.Referral{ID: "ref-1", SectionID: "sec-1"}
	require.True(t, CanAccessReferral(head("sec-1"), referral))
	require.False(t, CanAccessReferral(head("sec-2"), referral))
	require.False(t, CanAccessReferral(head("sec-1"), nil))
}

func TestMutationPermissionsExcludeHeads(t *testing.T) {
	for _, check := range []func(Principal) bool{CanCreateMail, CanCreateReferral, CanDeleteReferral} {
		require.True(t, check(admin()))
		require.True(t, check(manager("dept-1")))
		require.False(t, check(head("sec-1")))
	}
}

func TestPrincipalValidate(t *testing.T) {
	require.NoError(t, admin().Validate())
	require.NoError(t, manager("dept-1").Validate())
	require.NoError(t, head("sec-1").Validate())

	require.Error(t, Principal{Role: models.RoleManager}.Validate())
	require.Error(t, Principal{Role: models.RoleHead, SectionID: strPtr("")}.Validate())
	require.Error(t, Principal{Role: "intern"}.Validate())
}
