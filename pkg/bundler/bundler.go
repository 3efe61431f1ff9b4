// Package bundler runs the external JavaScript bundler for one tier
// instance.
//
// The [Exec] implementation shells out to the react-native CLI with a
// generated Metro config whose serializer hooks call back into tierpack
// (see the hook command). Tests substitute their own [Bundler] that drives a
// tier.Plugin in-process.
package bundler

import (
	"context"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/tier"
)

// Request describes one bundle to produce.
type Request struct {
	Platform     config.Platform
	EntryFile    string // absolute entry source
	BundleOutput string // absolute bundle path
	AssetsDest   string // asset directory, ends with a separator
	Hermes       bool   // also compile the bundle to Hermes bytecode
}

// ServeRequest describes a development server.
type ServeRequest struct {
	RootDir string
	Port    int
}

// Bundler produces bundles and serves development builds.
//
// Bundle must call the plugin's hooks in order: BeforeMain with the entry
// file, then the id factory and filter for every module. It returns only
// once the bundle is written or the bundler failed.
type Bundler interface {
	Bundle(ctx context.Context, req Request, plugin tier.PluginConfig) error
	Serve(ctx context.Context, req ServeRequest) error
}
