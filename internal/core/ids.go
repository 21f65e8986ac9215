package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/maruel/ksid"
)

// IDGenerator produces opaque unique ids for records created without one.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator yields random version 4 UUIDs.
var UUIDGenerator IDGenerator = IDGeneratorFunc(uuid.NewString)

// KSIDGenerator yields time-sortable ids, so later rows sort after earlier ones.
var KSIDGenerator IDGenerator = IDGeneratorFunc(func() string {
	return ksid.NewID().String()
})

// NewIDGenerator returns the generator registered under kind ("uuid" or "ksid").
func NewIDGenerator(kind string) (IDGenerator, error) {
	switch kind {
	case "", "uuid":
		return UUIDGenerator, nil
	case "ksid":
		return KSIDGenerator, nil
	default:
		return nil, fmt.Errorf("unknown id generator: %s", kind)
	}
}
