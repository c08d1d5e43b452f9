// Package flows contains the orchestration logic of the security-sensitive
// engine operations, expressed without any dependency on the root package.
//
// Each flow receives a Deps value whose function fields are bound once by
// the root engine at build time. Sentinel errors are injected the same way,
// so flows classify failures without importing the package that defines
// them. This keeps the request-path logic testable in isolation and the
// import graph acyclic.
package flows
