package native

import "github.com/redactyl/bextract/internal/abi"

// Callback is the registration a Library keeps for the lifetime of a session.
type Callback = abi.Callback
