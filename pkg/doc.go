// Package pkg provides the core libraries for tierpack, a tiered bundle
// splitter for React Native applications.
//
// # Overview
//
// tierpack splits an application into a shared basics bundle, one bundle per
// feature module and one bundle per screen. A mobile runtime loads basics plus
// only the modules and screens a user visits. Two guarantees make this work:
//
//  1. Every source module gets a numeric id that is stable across
//     independently built bundles.
//  2. A module shipped in a lower tier is never duplicated into a higher one.
//
// # Architecture
//
// The data flow of one build:
//
//	tierpack.config.json + module.config.json
//	         ↓
//	    [config] package (in-scope module/screen build configs)
//	         ↓
//	    [pipeline] package (basics → modules → screens → manifest)
//	         ↓
//	    [bundler] package (external react-native bundle process per entry)
//	         ↓
//	    [tier] package (id factory + output filter hooks)
//	         ↓
//	    [ledger] package (append-only path|id files per tier instance)
//
// # Main Packages
//
// [ledger] - Persisted path → id mapping for one tier instance and platform,
// with a read-through cache that is invalidated only by Clear.
//
// [tier] - The Allocator (id minting), the output Filter and the Plugin that
// exposes both to a bundler.
//
// [config] - Project and module configuration loading (JSON, TOML or YAML).
//
// [template] - Generated registration, debugger and Metro bridge sources.
//
// [bundler] - The external bundler contract and its react-native
// implementation.
//
// [manifest] - The version.json model consumed by the runtime loader.
//
// [pipeline] - Tier sequencing and concurrent dispatch.
//
// [observability] - Optional hooks for build and ledger events.
//
// [errors] - Structured error codes shared by CLI and library.
package pkg
