package scopegraph_test

import (
	"time"

	"github.com/centraunit/scopegraph"
	"github.com/centraunit/scopegraph/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

// treeSuite gives every test a fresh registry and root container.
type treeSuite struct {
	suite.Suite
	reg  *scopegraph.Registry
	root *scopegraph.Container
}

func (s *treeSuite) SetupTest() {
	s.reg = scopegraph.NewRegistry()
	s.root = scopegraph.New(
		scopegraph.WithRegistry(s.reg),
		scopegraph.WithLogger(zaptest.NewLogger(s.T())),
	)
}

func (s *treeSuite) scenario() *mock.Scenario {
	sc, err := mock.RegisterScenario(s.reg)
	s.Require().NoError(err)
	return sc
}

func (s *treeSuite) register(key any, opts ...scopegraph.ProducerOption) *scopegraph.Producer {
	p, err := s.reg.Register(key, opts...)
	s.Require().NoError(err)
	return p
}

// counter returns a factory producing distinct *int values and the number
// of calls made so far.
func counter() (scopegraph.Factory, func() int) {
	n := 0
	return func(*scopegraph.Resolver, ...any) (any, error) {
		n++
		v := n
		return &v, nil
	}, func() int { return n }
}
