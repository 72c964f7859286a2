package engine

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ndn-go/ndnkit/engine/basic"
	"github.com/ndn-go/ndnkit/engine/face"
	"github.com/ndn-go/ndnkit/ndn"
)

// NewBasicEngine creates a single-threaded engine over the given face.
func NewBasicEngine(face ndn.Face) ndn.Engine {
	return basic.NewEngine(face, basic.NewTimer())
}

func NewUnixFace(addr string) ndn.Face {
	return face.NewStreamFace("unix", addr, true)
}

// NewDefaultFace creates a face from the client configuration.
func NewDefaultFace() ndn.Face {
	config := GetClientConfig()

	uri, err := url.Parse(config.TransportUri)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse transport URI %s: %v (invalid client config)\n", config.TransportUri, err)
		os.Exit(1)
	}

	switch uri.Scheme {
	case "unix":
		return NewUnixFace(uri.Path)
	case "tcp", "tcp4", "tcp6":
		return face.NewStreamFace(uri.Scheme, uri.Host, false)
	case "ws", "wss":
		return face.NewWebSocketFace(uri.String(), false)
	}

	fmt.Fprintf(os.Stderr, "Unsupported transport URI: %s (invalid client config)\n", uri)
	os.Exit(1)

	return nil
}
