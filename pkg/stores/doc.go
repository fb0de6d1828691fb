// Package stores provides persistence layer implementations for the
// scaffolder. It includes SQLite-based storage with WAL mode and embedded
// migrations for the history of provisioning runs and their progress events.
package stores
