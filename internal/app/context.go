package app

import (
	"github.com/birdeye-app/birdeye/internal/buildinfo"
	"github.com/birdeye-app/birdeye/internal/conf"
)

// Context carries the global command line options to the subcommands.
type Context struct {
	ConfigFile string
	Debug      bool
	Build      *buildinfo.Context
}

// NewContext creates a Context for the running binary.
func NewContext() *Context {
	return &Context{Build: buildinfo.Current()}
}

// Settings loads the configuration; the --debug flag overrides the file.
func (c *Context) Settings() (*conf.Settings, error) {
	s, err := conf.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	if c.Debug {
		s.Debug = true
	}
	return s, nil
}

// Open loads the settings and wires the application.
func (c *Context) Open(opts ...Option) (*App, error) {
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithBuildInfo(c.Build)}, opts...)
	return New(s, opts...)
}
