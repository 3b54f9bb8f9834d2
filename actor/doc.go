// Package actor implements an in-process actor runtime: populations of
// isolated actors that communicate exclusively by asynchronous message
// passing, scheduled across a pool of worker goroutines owned by a
// Framework.
//
// A Framework owns a directory of actor mailboxes, a scheduler, and a
// fallback-handler slot. An Actor registers typed handlers with
// RegisterHandler and sends with ActorSend; a Receiver is a non-worker
// endpoint client code uses to block-receive replies. Addresses
// resolve to a (framework, mailbox) pair; sends within a framework
// take a fast path through a local mailbox, while cross-framework and
// receiver sends route through the process-wide Runtime's pin-
// protected directories.
package actor
