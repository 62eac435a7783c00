// Package model defines the domain types and value objects for the
// copse CLI.
//
// This package contains pure data structures with no external dependencies.
// DefaultRef captures the outcome of default-branch resolution,
// ProvisioningWarning records a non-fatal post-create command failure, and
// CLIError carries an ExitCode so the CLI layer can translate domain
// failures into process exit codes.
package model
