// Package postal provides Go bindings for libpostal.
//
// libpostal keeps its models in process-global state, so this package
// models each of its three subsystems (core normalizer, address parser,
// language classifier) as a reference-counted global. Setup and the
// Setup*DataDir variants acquire a reference and return a handle; Close
// releases it. The native setup runs on the first acquisition and the
// native teardown runs when the last handle of a subsystem is closed.
//
//	core, err := postal.Setup()
//	if err != nil {
//		return err
//	}
//	defer core.Close()
//
//	expansions, err := core.ExpandAddress("123 Main St", core.DefaultNormalizeOptions())
//
// Data directories: libpostal has a single data directory per subsystem.
// Acquiring a subsystem that is already initialized with a different
// directory does not reload the models. The new directory is recorded for
// every live handle of that subsystem and a warning is logged.
//
// Thread safety: only the reference counts are guarded by this package.
// Calls into libpostal are not serialized; whether concurrent inference
// calls are safe is a property of the linked libpostal build.
//
// Building: the native backend needs cgo and libpostal (headers and
// libpostal.so, see pkg-config). Building without cgo, or with the
// postal_stub tag, links a stub backend where every setup returns
// ErrUnavailable.
package postal
