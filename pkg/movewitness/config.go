package movewitness

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Config controls where a Recorder's witness output lands and how it logs
// fatal recording errors.
type Config struct {
	// BuildDir is the directory a recording session considers its build
	// output. Persisted witnesses are written under BuildDir's parent, in a
	// "witnesses" subdirectory.
	BuildDir string

	// Logger receives structured fatal-path log entries. Defaults to a
	// logrus.Logger writing to stderr when nil.
	Logger *logrus.Logger
}

// DefaultConfig returns a Config rooted at "build" with a default logger.
func DefaultConfig() *Config {
	return &Config{
		BuildDir: "build",
		Logger:   logrus.New(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BuildDir == "" {
		return fmt.Errorf("build dir must not be empty")
	}
	return nil
}

// WithBuildDir sets the build directory.
func (c *Config) WithBuildDir(dir string) *Config {
	c.BuildDir = dir
	return c
}

// WithLogger sets the logger used for fatal recording errors.
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.Logger = logger
	return c
}

// Clone returns an independent copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		BuildDir: c.BuildDir,
		Logger:   c.Logger,
	}
}
