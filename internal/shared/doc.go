// Package shared holds cross-cutting helpers that belong to no single
// pipeline stage. Today that is only the testutil subpackage; keep
// domain logic out of here.
package shared
