// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/lmptool/pkg/api"     //nolint:depguard
	"github.com/ssargent/lmptool/pkg/library" //nolint:depguard
)

// LibraryOpener opens the recording library in a data directory
type LibraryOpener func(dir string) (*library.Library, error)

// Container holds all the dependencies for the application
type Container struct {
	serverStarter api.ServerStarter
	libraryOpener LibraryOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverStarter: api.NewServerStarter(),
		libraryOpener: library.Open,
	}
}

// GetServerStarter returns the server starter
func (c *Container) GetServerStarter() api.ServerStarter {
	return c.serverStarter
}

// GetLibraryOpener returns the library opener
func (c *Container) GetLibraryOpener() LibraryOpener {
	return c.libraryOpener
}

// SetServerStarter allows overriding the server starter (for testing)
func (c *Container) SetServerStarter(starter api.ServerStarter) {
	c.serverStarter = starter
}

// SetLibraryOpener allows overriding the library opener (for testing)
func (c *Container) SetLibraryOpener(opener LibraryOpener) {
	c.libraryOpener = opener
}
