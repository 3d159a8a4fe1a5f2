// Package preflight provides readiness checks for the directories, binaries,
// python packages and remote APIs that dubber depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failed check; jobs
//     still run so a single missing optional engine does not block the API.
//   - The CLI "dubber deps" command and GET /api/health render the same
//     results for operators.
//
// Each check is gated by the configured backend; unused engines are skipped.
package preflight
