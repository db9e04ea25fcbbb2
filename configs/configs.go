// Package configs embeds the default persona and prompt template so the
// binary runs without any files on disk.
package configs

import _ "embed"

//go:embed francisco.yaml
var Persona []byte

//go:embed prompt.txt
var Prompt string
