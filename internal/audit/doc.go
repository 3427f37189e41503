// Package audit implements the audit trail for the Classroom Control
// Container.
//
// Every actuator command attempt is appended to a JSONL file with its
// destination, payload, and outcome (published, suppressed by the
// throttle, or failed at the transport), so the actuator-facing behavior
// of the loop can be reconstructed after the fact.
package audit
