package wsutil

import "github.com/kestrelhttp/kestrel/engine"

// DefaultCollaborators bundles this package's reference RequestParser,
// ResponseEncoder, FrameEncoder, and AcceptKeyGenerator into the
// engine.Collaborators a server.New call expects, for the common case of a
// caller with no custom wire-format implementation to supply.
func DefaultCollaborators() engine.Collaborators {
	return engine.Collaborators{
		Parser:       RequestParser{},
		Encoder:      ResponseEncoder{},
		FrameEncoder: FrameEncoder{},
		AcceptKeyGen: AcceptKeyGenerator{},
	}
}
