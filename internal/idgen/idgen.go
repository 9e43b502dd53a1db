// Package idgen mints AudioIds: fresh, canonical-form UUIDs assigned at the
// start of each successful upload. Grounded on the id-generator seam at
// internal/services/id_generator.go, backed by github.com/google/uuid
// rather than hand-rolled timestamp+random hex, since an audio id must be a
// universally unique identifier in canonical hyphenated text form with
// negligible collision probability.
package idgen

import "github.com/google/uuid"

// Generator mints AudioIds. Kept as an interface so the upload pipeline can
// be tested against a deterministic stub.
type Generator interface {
	NewAudioID() string
}

// UUIDGenerator generates version-4 UUIDs in canonical hyphenated form.
type UUIDGenerator struct{}

// NewUUIDGenerator returns the default Generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewAudioID implements Generator.
func (UUIDGenerator) NewAudioID() string {
	return uuid.New().String()
}
