// Package tomlmeta implements the /toml/upload wire grooming and parse
// contract: strip a legacy delimiter-wrapped envelope from the request
// body, then confirm the remainder parses as TOML. No TOML library appears
// anywhere in the retrieved corpus, so this names an out-of-pack ecosystem
// dependency: github.com/pelletier/go-toml/v2, the de facto standard Go
// TOML parser. Schema validation and persistence of the parsed document
// are out of scope; this package only confirms the body parses.
package tomlmeta

import (
	"bytes"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// networkTextDelim is the legacy top delimiter prefix; everything up to and
// including its first occurrence is discarded before parsing.
const networkTextDelim = "----"

// bottomDelim is the legacy multipart-style trailing boundary; everything
// from its first occurrence onward is discarded.
const bottomDelim = "--------------------------"

// Groom strips the legacy delimiter envelope from a /toml/upload body:
// content up to and including the first "----" marker is discarded (any
// text that follows the marker is kept), then content from the first run
// of 26 dashes onward is discarded.
func Groom(body []byte) []byte {
	if idx := bytes.Index(body, []byte(networkTextDelim)); idx != -1 {
		body = body[idx+len(networkTextDelim):]
	}

	if idx := bytes.Index(body, []byte(bottomDelim)); idx != -1 {
		body = body[:idx]
	}

	return body
}

// Parse groomes body and confirms it parses as TOML, returning an error if
// it does not. The parsed value is discarded; callers only need the
// pass/fail verdict.
func Parse(body []byte) error {
	groomed := Groom(body)

	var doc map[string]any
	if err := toml.Unmarshal(groomed, &doc); err != nil {
		return fmt.Errorf("tomlmeta: parse failed: %w", err)
	}
	return nil
}
