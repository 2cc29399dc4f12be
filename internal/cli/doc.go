// Package cli turns the qec command line into an app.Config. Flags that
// describe a run are only recorded as overrides when given explicitly, so a
// loaded configuration file keeps the values the user did not touch. Usage
// errors surface as ExitError with code 2.
package cli
