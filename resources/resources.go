// Package resources embeds the prompt definitions shipped with the binary.
package resources

import "embed"

//go:embed prompts/*.yaml
var PromptFiles embed.FS
