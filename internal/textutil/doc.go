// Package textutil provides the text normalization primitives used to compare
// and order personal names.
//
// The primary use cases are:
//   - NormalizeText, the comparison form of a name (casefolded, diacritics
//     stripped, periods removed, whitespace collapsed)
//   - FoldKey and SortKey, the deterministic ordering keys for surnames and
//     canonical names
//   - Like, SQL LIKE style pattern matching for curated corrections that use
//     % wildcards
//
// Casers and transformers from golang.org/x/text are stateful, so every call
// builds its own.
package textutil
