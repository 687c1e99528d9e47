// Package miles holds release metadata for the miles module.
package miles

// Version is the current release.
const Version = "0.1.0"
