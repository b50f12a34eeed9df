// Package dlcheck validates analytics dataLayer events against a static
// registry of event schemas.
//
//   - Schemas are plain immutable data (EventSchema, Primitive, Object, Array) assembled once
//     into a Registry and shared by every caller.
//   - Validate walks an event record and reports every violation it finds as an Issue
//     (dotted path, code, message). It never panics or returns an error for malformed data.
//   - Reports are deterministic: required fields in declared order, present keys in sorted order.
//
// Design policy:
//   - Keep the validator core in the root package; loaders, limits, queueing and transports
//     live in subpackages and only consume the public API.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg := dlcheck.Reference()
//	rep := dlcheck.Validate("purchase", record, reg)
//	if !rep.Valid() {
//		for _, msg := range rep.Messages() {
//			fmt.Println(msg)
//		}
//	}
package dlcheck
