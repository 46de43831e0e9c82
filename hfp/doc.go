// Package hfp implements the per-device control plane of a Hands-Free
// Profile Audio Gateway: the state machine that drives one remote
// handsfree/headset peer through its signalling connection lifecycle, its
// SCO audio lifecycle, and the AT-command dialog exchanged during and
// after Service Level Connection establishment.
//
// A Machine is created per bonded peer and owns a single goroutine that
// serially processes an ordered queue of Message values. Handlers never
// block and never run concurrently with each other; state transitions,
// deferred-message redelivery and timers all happen on that one goroutine.
// Everything outside the package that wants to observe or drive a Machine
// does so through Send, the read-only accessors, or one of the three
// collaborator interfaces in collaborators.go.
package hfp
