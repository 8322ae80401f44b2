package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWhereRenumbersPlaceholders(t *testing.T) {
	clause := And(
		Eq("m.id", "mail-1"),
		Or(
			Eq("m.from_department_id", "dept-1"),
			Eq("m.to_department_id", "dept-1"),
		),
	)

	where, args := clause.Where()
	require.Equal(t, " WHERE (m.id = $1 AND (m.from_department_id = $2 OR m.to_department_id = $3))", where)
	require.Equal(t, []interface{}{"mail-1", "dept-1", "dept-1"}, args)
}

func TestEmptyClausesAreSkipped(t *testing.T) {
	clause := And(Clause{}, Eq("m.direction", "incoming"), Clause{})

	where, args := clause.Where()
	require.Equal(t, " WHERE m.direction = $1", where)
	require.Equal(t, []interface{}{"incoming"}, args)

	empty := And(Clause{}, Or())
	require.True(t, empty.Empty())
	whereEmpty, argsEmpty := empty.Where()
	require.Equal(t, "", whereEmpty)
	require.Nil(t, argsEmpty)
}

func TestILikeKeepsWildcardsOutOfQueryText(t *testing.T) {
	clause := ILike("m.subject", "budget % report")

	where, args := clause.Where()
	require.Equal(t, " WHERE m.subject ILIKE $1", where)
	require.Equal(t, []interface{}{"%budget % report%"}, args)
}

func TestExistsSubquery(t *testing.T) {
	clause := Exists("SELECT 1 FROM referrals r WHERE r.mail_id = m.id AND r.section_id = ?", "sec-1")

	where, args := clause.Where()
	require.Equal(t, " WHERE EXISTS (SELECT 1 FROM referrals r WHERE r.mail_id = m.id AND r.section_id = $1)", where)
	require.Equal(t, []interface{}{"sec-1"}, args)
}

func TestPlaceholderFollowsClauseArgs(t *testing.T) {
	clause := And(Eq("a", 1), Eq("b", 2))
	require.Equal(t, "$3", clause.Placeholder(1))
	require.Equal(t, "$4", clause.Placeholder(2))

	var empty Clause
	require.Equal(t, "$1", empty.Placeholder(1))
}

func TestWhereCopiesArgs(t *testing.T) {
	clause := Eq("a", 1)
	_, args1 := clause.Where()
	_, args2 := clause.Where()
	args1[0] = 99
	require.Equal(t, []interface{}{1}, args2)
}
