package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppradar/oppradar/internal/core/domain"
)

func opp(id string, score int) *domain.AppOpportunity {
	return &domain.AppOpportunity{ID: id, OpportunityScore: score}
}

func TestTopOrdersDescending(t *testing.T) {
	opportunities := []*domain.AppOpportunity{opp("a", 40), opp("b", 90), opp("c", 70)}

	ranked := Top(opportunities, 20)
	require.Len(t, ranked, 3)
	assert.Equal(t, "b", ranked[0].ID)
	assert.Equal(t, "c", ranked[1].ID)
	assert.Equal(t, "a", ranked[2].ID)
}

func TestTopTruncates(t *testing.T) {
	var opportunities []*domain.AppOpportunity
	for i := 0; i < 30; i++ {
		opportunities = append(opportunities, opp("x", i))
	}

	ranked := Top(opportunities, 20)
	assert.Len(t, ranked, 20)
	assert.Equal(t, 29, ranked[0].OpportunityScore)
}

func TestTopStableOnTies(t *testing.T) {
	opportunities := []*domain.AppOpportunity{opp("first", 50), opp("second", 50), opp("third", 50)}

	ranked := Top(opportunities, 20)
	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
	assert.Equal(t, "third", ranked[2].ID)
}

func TestTopDoesNotMutateInput(t *testing.T) {
	opportunities := []*domain.AppOpportunity{opp("a", 10), opp("b", 99)}

	_ = Top(opportunities, 20)
	assert.Equal(t, "a", opportunities[0].ID)
}

func TestTopEmpty(t *testing.T) {
	assert.Empty(t, Top(nil, 20))
}
