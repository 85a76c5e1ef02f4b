// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.diligence/config.toml
//   - PromptStore: user-editable prompt templates at ~/.diligence/prompts
package file
