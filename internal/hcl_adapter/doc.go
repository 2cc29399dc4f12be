// Package hcl_adapter provides the concrete HCL implementation of the
// config.Loader interface. It is responsible for file parsing, HCL-to-model
// translation and CTY-to-Go data binding of code and run blocks.
package hcl_adapter
