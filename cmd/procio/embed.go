package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// Packagers overwrite embed_config.yaml to ship site defaults; it sits
// below the external config file, the environment and flags.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
