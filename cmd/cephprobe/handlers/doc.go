// Package handlers implements the business logic for CLI commands.
//
// Each handler loads the configuration, wires the access, fact and rule
// layers together and renders the outcome. Handlers write to package-level
// writers so tests can capture output.
package handlers
