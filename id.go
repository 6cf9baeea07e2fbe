package sequence

import "github.com/xraph/sequence/id"

// ID is the identifier type for sequences and run cycles.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
