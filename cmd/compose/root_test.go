package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/centraunit/compose"
)

type RootCmdTestSuite struct {
	suite.Suite
}

func (s *RootCmdTestSuite) run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color", "--manifest", "testdata/notifiers.yaml"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *RootCmdTestSuite) TestContracts() {
	out, err := s.run("contracts")
	s.Require().NoError(err)
	s.Contains(out, "Notifier (4 registrations, 2 survivors)")
	s.Contains(out, "Store (2 registrations, 2 survivors)")
}

func (s *RootCmdTestSuite) TestOrder() {
	out, err := s.run("order", "Notifier")
	s.Require().NoError(err)
	s.Contains(out, "Notifier (multiple)")
	s.Contains(out, "1. Notifier <- smtp=SMTPNotifier [override=0 processing=0 transient] override")
	s.Contains(out, "2. Notifier <- sms=factory(SMSNotifier) [override=1 processing=0 transient]")
	s.Contains(out, "eliminated: Notifier <- email=EmailNotifier")
	s.NotContains(out, "placeholder")
}

func (s *RootCmdTestSuite) TestResolve() {
	s.Run("Winner", func() {
		out, err := s.run("resolve", "Notifier")
		s.Require().NoError(err)
		s.Contains(out, "winner: Notifier <- smtp=SMTPNotifier")
	})

	s.Run("Ambiguous", func() {
		out, err := s.run("resolve", "Store")
		var ambiguous *compose.AmbiguousRegistrationError
		s.True(errors.As(err, &ambiguous))
		s.Contains(out, "ambiguous: Store")
		s.Contains(out, "- Store <- memory=MemoryStore")
		s.Contains(out, "- Store <- redis=RedisStore")
	})

	s.Run("NotFound", func() {
		_, err := s.run("resolve", "Cache")
		var notFound *compose.BindingNotFoundError
		s.True(errors.As(err, &notFound))
	})

	s.Run("MissingArgument", func() {
		_, err := s.run("resolve")
		s.Error(err)
	})
}

func (s *RootCmdTestSuite) TestMissingManifest() {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--manifest", "testdata/missing.yaml", "contracts"})
	s.ErrorContains(cmd.Execute(), "failed to open manifest")
}

func (s *RootCmdTestSuite) TestVersion() {
	out, err := s.run("version")
	s.Require().NoError(err)
	s.Equal("compose dev\n", out)
}

func TestRootCmdSuite(t *testing.T) {
	suite.Run(t, new(RootCmdTestSuite))
}
