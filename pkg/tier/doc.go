// Package tier assigns module ids and selects bundle contents for the three
// build tiers.
//
// A basics bundle carries the runtime and third-party code. A module bundle
// carries one module's shared code, and a screen bundle one screen. Each
// bundle is produced by an external bundler that calls back into a [Plugin]:
//
//   - BeforeMain binds the plugin to the module or screen whose generated
//     entry file is being bundled and clears that instance's ledger.
//   - NewIDFactory returns the function that numbers modules. Ids are looked
//     up in the lower tiers first, so a module already shipped in basics
//     keeps its basics id everywhere.
//   - Filter drops modules a lower tier already ships.
//
// Id ranges:
//
//	basics               0, 1, 2, ...
//	module i             (i+1)*100000 + n
//	screen j of module i (i+1)*100000 + (j+1)*100000 + n
//
// where n counts the ids the instance has minted so far.
package tier
