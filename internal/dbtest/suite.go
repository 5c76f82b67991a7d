package dbtest

import (
	"github.com/stretchr/testify/suite"

	"github.com/m0rjc/OrmTestKit/internal/db"
)

// Suite is an embeddable testify suite that builds a new session factory
// before each test. Set Fixture before the tests run, typically in
// SetupSuite or when constructing the suite:
//
//	type CarSuite struct{ dbtest.Suite }
//
//	func TestCarSuite(t *testing.T) {
//		s := &CarSuite{}
//		s.Fixture = s
//		suite.Run(t, s)
//	}
//
// A suite that defines its own SetupTest must call s.Suite.SetupTest().
type Suite struct {
	suite.Suite

	Fixture Fixture

	factory *db.SessionFactory
}

// SetupTest builds the session factory; it is closed when the test ends.
func (s *Suite) SetupTest() {
	s.Require().NotNil(s.Fixture, "dbtest.Suite requires a Fixture")
	s.factory = NewSessionFactory(s.T(), s.Fixture)
}

// SessionFactory returns the factory built for the current test.
func (s *Suite) SessionFactory() *db.SessionFactory {
	return s.factory
}
