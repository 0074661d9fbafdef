// Package logging standardizes slog construction and structured field names.
//
// All components log through *slog.Logger instances produced here, tagged with
// a component attribute and the shared field keys in fields.go so queue
// sequence ids and entity ids are searchable across the push, pull, and upload
// flows.
package logging
