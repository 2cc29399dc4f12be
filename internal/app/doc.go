// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: load the
// configuration, synthesize the circuit, write the artifact and optionally
// execute it. It is decoupled from any specific entrypoint like a CLI.
package app
