package application

import (
	"context"
	"errors"
	"testing"

	"card-collection/collection/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CollectionServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *sliceStore
	source *fakeSource
	svc    CollectionService
}

func TestCollectionServiceSuite(t *testing.T) {
	suite.Run(t, new(CollectionServiceSuite))
}

func (s *CollectionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = &sliceStore{}
	s.source = newFakeSource("Lightning Bolt", "Counterspell", "Dark Ritual")
	s.svc = CollectionService{
		Store:  s.store,
		Lookup: LookupService{Source: s.source},
	}
}

func (s *CollectionServiceSuite) TestAddToEmptyCollection() {
	res, err := s.svc.Add(s.ctx, domain.Identity{}, []string{"Lightning Bolt", "Counterspell"})
	s.Require().NoError(err)

	s.Equal([]string{"Lightning Bolt", "Counterspell"}, res.Added)
	s.Empty(res.Skipped)
	s.Empty(res.Errors)
	s.Equal(2, res.TotalInCollection)
}

func (s *CollectionServiceSuite) TestAddSkipsExistingCaseInsensitive() {
	s.store.cards = []domain.Card{cardNamed("Lightning Bolt")}

	res, err := s.svc.Add(s.ctx, domain.Identity{}, []string{"lightning bolt"})
	s.Require().NoError(err)

	s.Equal([]string{"lightning bolt"}, res.Skipped)
	s.Empty(res.Added)
	s.Equal(1, res.TotalInCollection)
	s.Empty(s.source.calls, "skipped names must not be fetched")
}

func (s *CollectionServiceSuite) TestSkippedIsIntersectionWithPriorCollection() {
	s.store.cards = []domain.Card{cardNamed("Counterspell"), cardNamed("Dark Ritual")}

	input := []string{"LIGHTNING BOLT", "counterspell", "Unknown Card", "dark ritual"}
	res, err := s.svc.Add(s.ctx, domain.Identity{}, input)
	s.Require().NoError(err)

	s.Equal([]string{"counterspell", "dark ritual"}, res.Skipped)
	s.Equal([]string{"Lightning Bolt"}, res.Added)
	s.Equal([]string{"Unknown Card"}, res.Errors)
	s.Equal(3, res.TotalInCollection)
}

func (s *CollectionServiceSuite) TestAddRepeatedNameInBatchIsNotSkipped() {
	res, err := s.svc.Add(s.ctx, domain.Identity{}, []string{"Lightning Bolt", "lightning bolt"})
	s.Require().NoError(err)

	// a coleção anterior estava vazia: nada é skipped, e o store não duplica
	s.Empty(res.Skipped)
	s.Equal([]string{"Lightning Bolt", "Lightning Bolt"}, res.Added)
	s.Equal(1, res.TotalInCollection)
	s.Equal([]string{"Lightning Bolt"}, cardNames(s.store.cards))
}

func (s *CollectionServiceSuite) TestAddFuzzyResolvingToHeldCardIsAddedWithoutDuplicate() {
	s.source.known["bolt"] = "Lightning Bolt"
	s.store.cards = []domain.Card{cardNamed("Lightning Bolt")}

	res, err := s.svc.Add(s.ctx, domain.Identity{}, []string{"bolt"})
	s.Require().NoError(err)

	s.Empty(res.Skipped, "bolt is not a held name")
	s.Equal([]string{"Lightning Bolt"}, res.Added)
	s.Equal(1, res.TotalInCollection)
}

func (s *CollectionServiceSuite) TestSkippedIsExactlyPriorIntersectionWithRepeats() {
	s.store.cards = []domain.Card{cardNamed("Counterspell")}

	input := []string{"Dark Ritual", "COUNTERSPELL", "dark ritual", "counterspell"}
	res, err := s.svc.Add(s.ctx, domain.Identity{}, input)
	s.Require().NoError(err)

	s.Equal([]string{"COUNTERSPELL", "counterspell"}, res.Skipped)
	s.Equal(2, res.TotalInCollection)
}

func (s *CollectionServiceSuite) TestAddStoreFailureAbortsRequest() {
	s.store.appendErr = errBoom

	_, err := s.svc.Add(s.ctx, domain.Identity{}, []string{"Lightning Bolt"})
	s.Require().Error(err)
	s.True(errors.Is(err, errBoom))
}

func (s *CollectionServiceSuite) TestAddPropagatesUnauthenticated() {
	s.store.loadErr = domain.ErrUnauthenticated

	_, err := s.svc.Add(s.ctx, domain.Identity{}, []string{"Lightning Bolt"})
	s.ErrorIs(err, domain.ErrUnauthenticated)
}

func (s *CollectionServiceSuite) TestRemove() {
	s.store.cards = []domain.Card{cardNamed("Lightning Bolt"), cardNamed("Counterspell")}

	total, err := s.svc.Remove(s.ctx, domain.Identity{}, "LIGHTNING BOLT")
	s.Require().NoError(err)
	s.Equal(1, total)

	cards, err := s.svc.List(s.ctx, domain.Identity{})
	s.Require().NoError(err)
	s.False(domain.ContainsName(cards, "Lightning Bolt"))
}

func (s *CollectionServiceSuite) TestRemoveAbsentIsNotFound() {
	s.store.cards = []domain.Card{cardNamed("Counterspell")}

	_, err := s.svc.Remove(s.ctx, domain.Identity{}, "Lightning Bolt")
	s.ErrorIs(err, domain.ErrNotFound)
	s.Len(s.store.cards, 1)
}

func (s *CollectionServiceSuite) TestClearIsIdempotent() {
	s.store.cards = []domain.Card{cardNamed("Counterspell")}

	s.Require().NoError(s.svc.Clear(s.ctx, domain.Identity{}))
	s.Require().NoError(s.svc.Clear(s.ctx, domain.Identity{}))

	cards, err := s.svc.List(s.ctx, domain.Identity{})
	s.Require().NoError(err)
	s.Empty(cards)
}

func TestCollectionService_AddThenListRoundTrip(t *testing.T) {
	store := &sliceStore{}
	svc := CollectionService{Store: store, Lookup: LookupService{Source: newFakeSource("Lightning Bolt")}}

	_, err := svc.Add(context.Background(), domain.Identity{}, []string{"lightning bolt"})
	require.NoError(t, err)

	cards, err := svc.List(context.Background(), domain.Identity{})
	require.NoError(t, err)
	assert.True(t, domain.ContainsName(cards, "lightning bolt"))
}

func cardNames(cards []domain.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Name)
	}
	return out
}
