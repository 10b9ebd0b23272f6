package compose_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/centraunit/compose"
	"github.com/centraunit/compose/mock"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(s.dir, "compose.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := compose.LoadConfig("")
	s.Require().NoError(err)
	s.Equal(compose.DefaultConfig(), *cfg)
}

func (s *ConfigTestSuite) TestLoadFromFile() {
	path := s.writeConfig(`
log:
  level: debug
  development: true
  encoding: console
metrics:
  enabled: true
  namespace: services
hierarchy:
  cache: false
`)
	cfg, err := compose.LoadConfig(path)
	s.Require().NoError(err)
	s.Equal("debug", cfg.Log.Level)
	s.True(cfg.Log.Development)
	s.Equal("console", cfg.Log.Encoding)
	s.True(cfg.Metrics.Enabled)
	s.Equal("services", cfg.Metrics.Namespace)
	s.False(cfg.Hierarchy.Cache)
}

func (s *ConfigTestSuite) TestEnvironmentOverridesFile() {
	path := s.writeConfig("log:\n  level: warn\n")
	s.T().Setenv("COMPOSE_LOG_LEVEL", "error")
	s.T().Setenv("COMPOSE_HIERARCHY_CACHE", "false")

	cfg, err := compose.LoadConfig(path)
	s.Require().NoError(err)
	s.Equal("error", cfg.Log.Level)
	s.False(cfg.Hierarchy.Cache)
}

func (s *ConfigTestSuite) TestInvalidConfig() {
	s.Run("MissingExplicitFile", func() {
		_, err := compose.LoadConfig(filepath.Join(s.dir, "missing.yaml"))
		s.Error(err)
	})

	s.Run("UnknownLevel", func() {
		_, err := compose.LoadConfig(s.writeConfig("log:\n  level: loud\n"))
		s.ErrorContains(err, "invalid log level")
	})

	s.Run("UnknownEncoding", func() {
		cfg := compose.DefaultConfig()
		cfg.Log.Encoding = "xml"
		s.ErrorContains(cfg.Validate(), "invalid log encoding")
	})

	s.Run("MetricsWithoutNamespace", func() {
		cfg := compose.DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Metrics.Namespace = ""
		s.Error(cfg.Validate())
	})
}

func (s *ConfigTestSuite) TestLoggerBuild() {
	logger, err := compose.LogConfig{Level: "debug", Development: true}.Build()
	s.Require().NoError(err)
	s.NotNil(logger)

	_, err = compose.LogConfig{Level: "nope"}.Build()
	s.Error(err)
}

func (s *ConfigTestSuite) TestOptions() {
	cfg := compose.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "cfgtest"
	reg := prometheus.NewRegistry()

	opts, err := compose.Options(&cfg, reg)
	s.Require().NoError(err)
	s.Len(opts, 3)

	catalog := compose.NewCatalog(mock.Hierarchy(), opts...)
	_, err = catalog.ForType(mock.MemoryStoreType).As(mock.StoreType).Register()
	s.Require().NoError(err)
	_, err = catalog.Compose().Resolve(mock.StoreType)
	s.Require().NoError(err)

	families, err := reg.Gather()
	s.Require().NoError(err)
	found := false
	for _, f := range families {
		if f.GetName() == "cfgtest_registry_resolutions_total" {
			found = true
		}
	}
	s.True(found, "resolution counter should be registered under the configured namespace")

	_, err = compose.Options(&cfg, reg)
	s.ErrorContains(err, "failed to register metrics")

	cfg.Metrics.Enabled = false
	opts, err = compose.Options(&cfg, nil)
	s.Require().NoError(err)
	s.Len(opts, 2)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
