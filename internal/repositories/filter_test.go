package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateBuildNested(t *testing.T) {
	viewer := uuid.New()
	p := Or(
		And(Eq(friendStatus, "accepted"), Or(Eq(friendRequester, viewer), Eq(friendRequestee, viewer))),
		And(Eq(friendStatus, "requested"), Eq(friendRequestee, viewer)),
	)

	clause, args, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t,
		"((status = ?) AND ((requester = ?) OR (requestee = ?))) OR ((status = ?) AND (requestee = ?))",
		clause)
	require.Len(t, args, 5)
	assert.Equal(t, "accepted", args[0])
	assert.Equal(t, "requested", args[3])
}

func TestPredicateInExpandsSlices(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	clause, args, err := And(In(friendRequester, ids), Eq(friendStatus, "accepted")).Build()
	require.NoError(t, err)
	assert.Equal(t, "(requester IN (?, ?, ?)) AND (status = ?)", clause)
	assert.Len(t, args, 4)
}

func TestPredicateEmptyIn(t *testing.T) {
	clause, args, err := In(friendRequester, []uuid.UUID{}).Build()
	require.NoError(t, err)
	assert.Equal(t, "FALSE", clause)
	assert.Empty(t, args)

	clause, _, err = NotIn(memberMember, []uuid.UUID(nil)).Build()
	require.NoError(t, err)
	assert.Equal(t, "TRUE", clause)
}

func TestPredicateValuesAreNeverInlined(t *testing.T) {
	hostile := `x'); DROP TABLE friends; --`
	clause, args, err := Eq(profilePhone, hostile).Build()
	require.NoError(t, err)
	assert.Equal(t, "phone = ?", clause)
	assert.Equal(t, []any{hostile}, args)
}

func TestEmptyAndOr(t *testing.T) {
	clause, _, err := And().Build()
	require.NoError(t, err)
	assert.Equal(t, "TRUE", clause)

	clause, _, err = Or().Build()
	require.NoError(t, err)
	assert.Equal(t, "FALSE", clause)
}
