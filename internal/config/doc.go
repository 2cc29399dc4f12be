// Package config defines the format-agnostic configuration model: custom
// code definitions and the run settings, along with the Loader interface
// implemented by the format adapters.
//
// The Model is the single source of truth for the app package. Concrete
// loaders, such as for HCL and TOML, live in separate packages.
package config
