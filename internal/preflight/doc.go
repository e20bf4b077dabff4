// Package preflight provides readiness checks for the filesystem paths and
// external services a batch depends on.
//
// The run command calls RunAll before discovering files so a missing input
// directory, an unwritable output directory, or an unconfigured backend is
// reported once up front instead of once per file. The deps command reuses
// the same checks to print a status table.
package preflight
