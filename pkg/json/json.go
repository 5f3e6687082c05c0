// Package json is the single JSON entry point for the repo, backed by
// json-iterator in standard-library-compatible mode.
package json

import jsoniter "github.com/json-iterator/go"

var (
	// JSON is the jsoniter.API instance used throughout the codebase.
	JSON = jsoniter.ConfigCompatibleWithStandardLibrary

	// Marshal is a shorthand for JSON.Marshal.
	Marshal = JSON.Marshal

	// Unmarshal is a shorthand for JSON.Unmarshal.
	Unmarshal = JSON.Unmarshal

	// NewDecoder is a shorthand for JSON.NewDecoder.
	NewDecoder = JSON.NewDecoder

	// NewEncoder is a shorthand for JSON.NewEncoder.
	NewEncoder = JSON.NewEncoder
)

// MarshalIndent renders v as indented JSON, used for campaign reports and
// brief fixtures.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return JSON.MarshalIndent(v, prefix, indent)
}
