// Package history records separation jobs in a local SQLite database so the
// CLI can list recent runs and their outcomes.
//
// The schema is embedded and versioned through a schema_version table; a
// version mismatch is reported rather than migrated, and the database can be
// deleted safely since it only holds history.
package history
