// Package ledger persists the module path → numeric id mapping of one tier
// instance.
//
// # File Format
//
// A ledger is a UTF-8 text file with one record per line:
//
//	node_modules/react/index.js|0
//	app/src/cart/Cart.tsx|100000
//
// Lines are only ever appended. A ledger is truncated exactly once, at the
// start of its tier instance's build, and otherwise persists across
// invocations so that unchanged modules keep their ids.
//
// # Caching
//
// The first query parses the whole file into memory. Later queries use the
// cache only, even if another process appends to the file. [Ledger.Clear]
// is the single invalidation point.
//
// # Naming
//
// Ledger files live in the project's [DirName] directory:
//
//	basics.<platform>.txt
//	modules.<module>.<platform>.txt
//	modules.<module>_<screen>.<platform>.txt
//
// Every module and screen instance owns a distinct file, which is what makes
// concurrent instance builds safe without locks.
package ledger
