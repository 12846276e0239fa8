// Package common holds constants and helpers shared across commands.
package common

// PackageName identifies this project in metrics and logs.
const PackageName = "agent-trust-registry"

// Version is set at build time through ldflags.
var Version = "dev"
