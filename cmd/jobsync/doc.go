// Command jobsync is the CLI for the offline-first job tracker. All writes
// land in the local store immediately and are queued for background sync; the
// sync subcommand runs one push and pull cycle in the foreground.
package main
