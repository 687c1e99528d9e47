// Package types defines the Cupboard and Table interfaces, the training
// entities (Block, Week, Day, Race), and the standard errors shared by the
// storage backend and the training components.
//
// Dates cross the API boundary as civil.Date values and are stored as
// YYYY-MM-DD text by the backend.
package types
