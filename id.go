package fundledger

import "github.com/xraph/fundledger/id"

// ID is the TypeID reference type used for transfers, audit events and
// operation correlation.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
