// Package hook resolves configured reference strings into invocable
// capabilities for the three per-provider extension points: login
// notification, logout notification and user mapping.
//
// A reference has the form "<module-path>:<symbol>". Modules are registered
// in code via RegisterModule, typically from an init function of the package
// exporting the hooks; the reference string in the provider configuration
// then selects one of the module's exports by name. Resolution validates the
// export against the expected signature class and caches the result for the
// process lifetime, so misconfiguration is caught at startup rather than on
// the first login, and repeated resolution never re-parses the reference.
package hook
