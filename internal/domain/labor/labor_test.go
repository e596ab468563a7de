package labor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/econsim-go/internal/domain/labor"
	"github.com/andrescamacho/econsim-go/internal/domain/shared"
)

func newTestContract(t *testing.T, acceptedStep, length int) *labor.Contract {
	t.Helper()
	employer := shared.MustNewAgentID("employer-1")
	worker := shared.MustNewAgentID("worker-1")
	c, err := labor.NewFromListing(employer, worker, 4, 100, 3, "farmhand", length, acceptedStep)
	require.NoError(t, err)
	return c
}

func TestNewFromListing_ComputesEndStep(t *testing.T) {
	c := newTestContract(t, 10, 5)
	assert.Equal(t, 10, c.StartStep())
	assert.Equal(t, 14, c.EndStep())
	assert.NotEmpty(t, c.Hash())
}

func TestNewFromListing_RejectsInvalidTerms(t *testing.T) {
	employer := shared.MustNewAgentID("employer-1")
	worker := shared.MustNewAgentID("worker-1")

	_, err := labor.NewFromListing(employer, worker, 0, 100, 3, "farmhand", 5, 10)
	assert.Error(t, err)

	_, err = labor.NewFromListing(employer, worker, 4, -1, 3, "farmhand", 5, 10)
	assert.Error(t, err)

	_, err = labor.NewFromListing(employer, worker, 4, 100, 3, "farmhand", 0, 10)
	assert.Error(t, err)
}

func TestContract_ActiveAndExpiredAtStep(t *testing.T) {
	c := newTestContract(t, 10, 5) // active 10..14

	assert.False(t, c.ActiveAtStep(9))
	assert.True(t, c.ActiveAtStep(10))
	assert.True(t, c.ActiveAtStep(14))
	assert.False(t, c.ActiveAtStep(15))

	assert.False(t, c.ExpiredAtStep(14))
	assert.True(t, c.ExpiredAtStep(15))
}

func TestContract_CancelMakesInactiveAndExpired(t *testing.T) {
	c := newTestContract(t, 10, 5)
	c.Cancel()

	assert.False(t, c.ActiveAtStep(12))
	assert.True(t, c.ExpiredAtStep(12))
	// Cancel is idempotent.
	c.Cancel()
	assert.True(t, c.Cancelled())
}

func TestSameTermsProduceSameHash(t *testing.T) {
	a := newTestContract(t, 10, 5)
	b := newTestContract(t, 10, 5)
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestContractSet_AddGetRemove(t *testing.T) {
	s := labor.NewContractSet()
	c := newTestContract(t, 10, 5)

	s.Add(c)
	got, ok := s.Get(c.Hash())
	require.True(t, ok)
	assert.Equal(t, c.Hash(), got.Hash())

	s.Remove(c.Hash())
	_, ok = s.Get(c.Hash())
	assert.False(t, ok)

	// Removing an absent hash is a no-op.
	s.Remove(c.Hash())
}

func TestContractSet_ExpiringAtStep(t *testing.T) {
	s := labor.NewContractSet()
	c := newTestContract(t, 10, 5) // endStep 14

	s.Add(c)

	assert.Empty(t, s.ExpiringAtStep(14))
	expiring := s.ExpiringAtStep(15)
	require.Len(t, expiring, 1)
	assert.Equal(t, c.Hash(), expiring[0].Hash())
}

func TestContractSet_All(t *testing.T) {
	s := labor.NewContractSet()
	c1 := newTestContract(t, 10, 5)
	c2, err := labor.NewFromListing(shared.MustNewAgentID("e"), shared.MustNewAgentID("w"), 4, 50, 1, "other", 3, 20)
	require.NoError(t, err)

	s.Add(c1)
	s.Add(c2)

	assert.Len(t, s.All(), 2)
}
