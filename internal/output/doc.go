// Package output renders review reports.
//
// A [Writer] exists for each supported format: plain text for terminals,
// JSON for scripting, markdown for pull request comments, and SARIF
// v2.1.0 for code-scanning uploads. [GetWriter] maps a format name to
// its Writer, and [WriteReport] handles destination selection, writing
// to stdout or a named file.
package output
