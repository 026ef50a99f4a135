// Package audit records who changed what. It consumes lifecycle events from
// the history channel and writes them either as structured log lines or as
// rows in the audit_records table, one per affected id, stamped with the
// acting identity carried on the event's context.
//
// The pipeline is deliberately lossy in one direction only: audit failures
// never fail the mutation that produced them. They are logged, counted, and
// dropped.
package audit
