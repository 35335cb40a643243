// Package voice implements the temporary voice channel lifecycle.
//
// A user joining the well-known creator channel triggers creation of a
// personal, permission-scoped voice channel and relocation of that user into
// it. When a tracked channel empties, a grace-period countdown starts; any
// join cancels it, a fresh emptying restarts it, and expiry deletes the
// channel and its registry record.
//
// The Registry is the only shared mutable state. Check-then-act sequences on
// a record run under its write lock via Registry.Update so racing
// notifications never start two countdowns for the same channel. Deletion
// countdowns are explicit cancellable timers (DeletionTask); cancellation
// stops the timer step only, never an in-flight delete request.
//
// All platform access goes through the Platform interface; the gateway
// session satisfies it in production and tests substitute an in-memory fake.
package voice
