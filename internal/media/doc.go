// Package media persists discovered media files in SQLite and owns every
// status transition. Rows are identified by (device_id, inode) so a file
// keeps its record across renames, and all state changes are guarded
// single-row updates so concurrent workers get at-most-once semantics.
package media
