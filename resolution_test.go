package compose_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"

	"github.com/centraunit/compose"
	"github.com/centraunit/compose/mock"
)

type ResolutionTestSuite struct {
	suite.Suite
	catalog *compose.Catalog
}

func (s *ResolutionTestSuite) SetupTest() {
	s.catalog = compose.NewCatalog(mock.Hierarchy())
}

// ranked builds a plain notifier registration with the given priorities.
func (s *ResolutionTestSuite) ranked(name string, override, processing int) *compose.ServiceRegistration {
	reg, err := s.catalog.ForType(mock.EmailNotifierType).
		As(mock.NotifierType).
		Named(name).
		WithOverridePriority(override).
		WithProcessingPriority(processing).
		Build()
	s.Require().NoError(err)
	return reg
}

func (s *ResolutionTestSuite) typed(t compose.TypeID, override bool) *compose.ServiceRegistration {
	b := s.catalog.ForType(t).As(mock.NotifierType).Named(t.Name)
	if override {
		b.Override()
	}
	reg, err := b.Build()
	s.Require().NoError(err)
	return reg
}

func names(regs []*compose.ServiceRegistration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.Name()
	}
	return out
}

func (s *ResolutionTestSuite) TestPriorityOrdering() {
	s.Run("ProcessingPriorityBreaksTies", func() {
		regs := []*compose.ServiceRegistration{
			s.ranked("plus", 3, 1),
			s.ranked("minus", 3, -1),
		}
		ordered := compose.Order(regs, mock.Hierarchy())
		s.Equal([]string{"minus", "plus"}, names(ordered))
	})

	s.Run("FourWayOrder", func() {
		regs := []*compose.ServiceRegistration{
			s.ranked("3-1", 3, 1),
			s.ranked("2-2", 2, 2),
			s.ranked("2-3", 2, 3),
			s.ranked("1-1", 1, 1),
		}
		ordered := compose.Order(regs, mock.Hierarchy())
		s.Equal([]string{"1-1", "2-2", "2-3", "3-1"}, names(ordered))
	})

	s.Run("StableForEqualPriorities", func() {
		regs := []*compose.ServiceRegistration{
			s.ranked("a", 1, 0),
			s.ranked("b", 0, 0),
			s.ranked("c", 1, 0),
			s.ranked("d", 0, 0),
		}
		ordered := compose.Order(regs, mock.Hierarchy())
		s.Equal([]string{"b", "d", "a", "c"}, names(ordered))
		s.Equal("a", regs[0].Name(), "input must not be reordered")
	})

	s.Run("PlaceholdersDropped", func() {
		placeholder, err := s.catalog.ForContract(mock.NotifierType).AllowMultiple(true).Build()
		s.Require().NoError(err)
		ordered := compose.Order([]*compose.ServiceRegistration{placeholder, s.ranked("a", 0, 0)}, mock.Hierarchy())
		s.Equal([]string{"a"}, names(ordered))
	})
}

func (s *ResolutionTestSuite) TestOverrideElimination() {
	h := mock.Hierarchy()

	s.Run("OverrideRemovesAncestor", func() {
		regs := []*compose.ServiceRegistration{
			s.typed(mock.EmailNotifierType, false),
			s.typed(mock.SMTPNotifierType, true),
		}
		s.Equal([]string{mock.SMTPNotifierType.Name}, names(compose.Order(regs, h)))
	})

	s.Run("ChainCollapsesToTop", func() {
		regs := []*compose.ServiceRegistration{
			s.typed(mock.TLSSMTPNotifierType, true),
			s.typed(mock.EmailNotifierType, false),
			s.typed(mock.SMTPNotifierType, true),
		}
		s.Equal([]string{mock.TLSSMTPNotifierType.Name}, names(compose.Order(regs, h)))
	})

	s.Run("ChainCollapsesWithDirectParentHierarchy", func() {
		parent := map[compose.TypeID]compose.TypeID{
			mock.EmailNotifierType:   mock.NotifierType,
			mock.SMTPNotifierType:    mock.EmailNotifierType,
			mock.TLSSMTPNotifierType: mock.SMTPNotifierType,
		}
		direct := compose.HierarchyFunc(func(a, b compose.TypeID) bool {
			return a == b || parent[b] == a
		})
		regs := []*compose.ServiceRegistration{
			s.typed(mock.EmailNotifierType, false),
			s.typed(mock.SMTPNotifierType, true),
			s.typed(mock.TLSSMTPNotifierType, true),
		}
		s.Equal([]string{mock.TLSSMTPNotifierType.Name}, names(compose.Order(regs, direct)))
	})

	s.Run("SiblingsSurvive", func() {
		regs := []*compose.ServiceRegistration{
			s.typed(mock.SMSNotifierType, false),
			s.typed(mock.EmailNotifierType, false),
			s.typed(mock.SMTPNotifierType, true),
		}
		s.ElementsMatch([]string{mock.SMSNotifierType.Name, mock.SMTPNotifierType.Name}, names(compose.Order(regs, h)))
	})

	s.Run("SameDeclaredTypeSurvives", func() {
		regs := []*compose.ServiceRegistration{
			s.typed(mock.SMTPNotifierType, false),
			s.typed(mock.SMTPNotifierType, true),
		}
		s.Len(compose.Order(regs, h), 2)
	})

	s.Run("UndeclaredNeverEliminated", func() {
		undeclared, err := s.catalog.ForInstance(&mock.EmailNotifier{}).
			As(mock.NotifierType).
			DeclaredAs(compose.TypeID{}).
			Named("undeclared").
			Build()
		s.Require().NoError(err)
		regs := []*compose.ServiceRegistration{undeclared, s.typed(mock.SMTPNotifierType, true)}
		s.ElementsMatch([]string{"undeclared", mock.SMTPNotifierType.Name}, names(compose.Order(regs, h)))
	})

	s.Run("UndeclaredOverrideEliminatesNothing", func() {
		override, err := s.catalog.ForType(mock.SMTPNotifierType).
			As(mock.NotifierType).
			DeclaredAs(compose.TypeID{}).
			Override().
			Named("override").
			Build()
		s.Require().NoError(err)
		regs := []*compose.ServiceRegistration{s.typed(mock.EmailNotifierType, false), override}
		s.Len(compose.Order(regs, h), 2)
	})

	s.Run("NilHierarchyEliminatesNothing", func() {
		regs := []*compose.ServiceRegistration{
			s.typed(mock.EmailNotifierType, false),
			s.typed(mock.SMTPNotifierType, true),
		}
		s.Len(compose.Order(regs, nil), 2)
	})
}

func (s *ResolutionTestSuite) TestWinner() {
	s.Run("LowestOverridePriorityWins", func() {
		ordered := compose.Order([]*compose.ServiceRegistration{
			s.ranked("second", 2, 0),
			s.ranked("first", 1, 5),
		}, mock.Hierarchy())
		winner, err := compose.Winner(mock.NotifierType, ordered)
		s.Require().NoError(err)
		s.Equal("first", winner.Name())
	})

	s.Run("EqualOverridePriorityIsAmbiguous", func() {
		ordered := compose.Order([]*compose.ServiceRegistration{
			s.ranked("a", 1, 0),
			s.ranked("b", 1, 2),
			s.ranked("c", 4, 0),
		}, mock.Hierarchy())
		_, err := compose.Winner(mock.NotifierType, ordered)
		var ambiguous *compose.AmbiguousRegistrationError
		s.Require().True(errors.As(err, &ambiguous))
		s.Equal(mock.NotifierType.String(), ambiguous.Type)
		s.Len(ambiguous.Candidates, 2)
		s.Contains(ambiguous.Candidates[0], "a=")
		s.Contains(ambiguous.Candidates[1], "b=")
	})

	s.Run("LoneOverrideBreaksTie", func() {
		ordered := compose.Order([]*compose.ServiceRegistration{
			s.typed(mock.EmailNotifierType, false),
			s.typed(mock.SMSNotifierType, true),
		}, mock.Hierarchy())
		s.Len(ordered, 2)
		winner, err := compose.Winner(mock.NotifierType, ordered)
		s.Require().NoError(err)
		s.Equal(mock.SMSNotifierType.Name, winner.Name())
	})

	s.Run("Empty", func() {
		_, err := compose.Winner(mock.NotifierType, nil)
		var notFound *compose.BindingNotFoundError
		s.True(errors.As(err, &notFound))
	})
}

func TestResolutionSuite(t *testing.T) {
	suite.Run(t, new(ResolutionTestSuite))
}

func TestOrderStrictlyAscendingForDistinctPriorities(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		priorities := rapid.SliceOfNDistinct(rapid.IntRange(-1000, 1000), 1, 30, rapid.ID[int]).Draw(rt, "priorities")

		catalog := compose.NewCatalog(mock.Hierarchy())
		regs := make([]*compose.ServiceRegistration, len(priorities))
		for i, p := range priorities {
			reg, err := catalog.ForType(mock.EmailNotifierType).
				As(mock.NotifierType).
				WithOverridePriority(p).
				WithProcessingPriority(rapid.IntRange(-5, 5).Draw(rt, fmt.Sprintf("processing%d", i))).
				Build()
			require.NoError(rt, err)
			regs[i] = reg
		}

		ordered := compose.Order(regs, mock.Hierarchy())
		require.Len(rt, ordered, len(regs))
		for i := 1; i < len(ordered); i++ {
			assert.Less(rt, ordered[i-1].OverridePriority(), ordered[i].OverridePriority())
		}
	})
}

func TestOrderIsDeterministicAndStable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 25).Draw(rt, "n")

		catalog := compose.NewCatalog(mock.Hierarchy())
		regs := make([]*compose.ServiceRegistration, n)
		index := make(map[*compose.ServiceRegistration]int, n)
		for i := range regs {
			reg, err := catalog.ForType(mock.EmailNotifierType).
				As(mock.NotifierType).
				WithOverridePriority(rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("override%d", i))).
				WithProcessingPriority(rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("processing%d", i))).
				Build()
			require.NoError(rt, err)
			regs[i] = reg
			index[reg] = i
		}

		first := compose.Order(regs, mock.Hierarchy())
		second := compose.Order(regs, mock.Hierarchy())
		require.Equal(rt, first, second)

		for i := 1; i < len(first); i++ {
			prev, cur := first[i-1], first[i]
			if prev.OverridePriority() != cur.OverridePriority() {
				assert.Less(rt, prev.OverridePriority(), cur.OverridePriority())
				continue
			}
			if prev.ProcessingPriority() != cur.ProcessingPriority() {
				assert.Less(rt, prev.ProcessingPriority(), cur.ProcessingPriority())
				continue
			}
			assert.Less(rt, index[prev], index[cur], "ties keep registration order")
		}
	})
}
