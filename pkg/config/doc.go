// Package config loads tierpack project and module configuration.
//
// A project root holds tierpack.config.json (or a .toml or .yaml file of the
// same name):
//
//	{
//	  "version": "v1.4.0",
//	  "depend": {"android": "0.72.4", "ios": "0.72.4"},
//	  "entry": "index.js",
//	  "output": "dist",
//	  "modules": ["modules/cart", "modules/profile"]
//	}
//
// Each listed directory holds module.config.json (or .toml, or .yaml):
//
//	{
//	  "name": "Cart",
//	  "prefix": "cart",
//	  "version": "v2.0.1",
//	  "entry": "src/common.ts",
//	  "screens": [
//	    {"prefix": "list", "path": "src/List.tsx", "preload": true, "deeplink": "app://cart"}
//	  ]
//	}
//
// [Resolve] turns these into [ModuleBuild] values. The index of a module in
// the resolved slice is its module-tier instance index, and the index of a
// screen within its module is its screen-tier instance index.
package config
