// Package history persists completed analyses.
//
// SQLite (data_dir/history.db) is the default backend; setting
// history.postgres_url switches to PostgreSQL. SQLite schema changes ship as
// numbered files under migrations/.
package history
