// Package controller implements model-generic CRUD on top of a storage
// adapter. A controller binds one model name to one adapter, resolves
// the matching schema from the registry at construction time, and runs
// every operation through the schema's conversions so callers only ever
// see domain-shaped records. Hooks let models inject defaulting and
// stamping without subclassing the controller.
package controller
