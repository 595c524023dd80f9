package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and what is returned.

func describeScanIndex() string {
	return `Reports unused code in a project from an index dump of its symbol graph.

USE WHEN:
- Cleaning up code before a major refactoring
- Finding declarations orphaned after a feature removal
- Tightening access control on public API nobody outside the module uses
- Removing imports that no longer contribute symbols

INTERPRETING RESULTS:
- unused: nothing reachable from the entry points references the declaration
- assignOnlyProperty: a stored property that is written but never read
- redundantProtocol: a protocol only ever conformed to, never used as a type
- redundantConformance: a conformance site of a redundant protocol, listed after it
- redundantPublicAccessibility: public or open, but only used inside its own module
- unusedImport: no symbol from the imported module is referenced in the file
- Results are ordered by file, line and column, and are stable across runs
- Declarations with an unknown module are never flagged for redundant accessibility

METRICS RETURNED:
- Results: kind, name, modifiers, attributes, accessibility, ids, hints, location
- Stats: declaration, reference and file counts, roots, reachable and unreachable counts
- Import errors: files whose imports could not be resolved and were skipped
- Cached: whether the results came from the on-disk cache`
}

func describeExplainRetention() string {
	return `Explains why a declaration is considered used by returning the shortest chain of references from an entry point to it.

USE WHEN:
- A declaration you expected to be reported as unused is not
- Checking what keeps a type alive before deleting its callers
- Auditing which retention rule (attribute, modifier, name pattern, public API) applies

INTERPRETING RESULTS:
- retained false: the declaration is unreachable and would be reported as unused
- path[0] is the root: a declaration kept by a retention rule or an excluded file
- Each following step is referenced by the one before it, or is its parent or overrider
- The last step is the requested declaration

METRICS RETURNED:
- usr, retained flag
- path: name, kind, usr and location of each declaration in the chain`
}

func describeCheckIndex() string {
	return `Validates an index dump against the schema and reports its size without running any analysis.

USE WHEN:
- Producing an index dump and verifying it before scanning
- Diagnosing a scan_index failure caused by malformed input

INTERPRETING RESULTS:
- An error names the offending element, e.g. declarations[3]
- Unknown kinds, roles and accessibility keywords are rejected
- Parent links must name a declared USR and must not form a cycle

METRICS RETURNED:
- files, declarations, references, symbols (USRs with known modules)`
}
