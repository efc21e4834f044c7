package api

import (
	"github.com/ssargent/lmptool/pkg/interchange"
	"github.com/ssargent/lmptool/pkg/library"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port          int
	Bind          string
	APIKey        string
	DefaultFormat interchange.Format
	Strict        bool  // reject recordings that only produce warnings
	MaxBodyBytes  int64 // zero means DefaultMaxBodyBytes
}

// DefaultMaxBodyBytes bounds request bodies. A half hour single player
// recording is well under a megabyte.
const DefaultMaxBodyBytes = 64 << 20

// WarningHeader carries decode warnings on conversion responses, one value
// per warning.
const WarningHeader = "X-Lmp-Warning"

// Library defines the recording catalog operations the server needs
type Library interface {
	Import(name string, data []byte) (*library.Entry, error)
	Get(id string) (*library.Entry, []byte, error)
	List() ([]*library.Entry, error)
	Delete(id string) error
}
