// pkg/util/call.go
package util

import "time"

// PendingCall tracks an in-flight asynchronous operation bounded by a
// timeout, the same shape as the teacher's pkg/server RPCClient.PendingCall.
// The Validator Client uses IssueTime to bound a plan round-trip by T_peer
// (validate.Peer.Update polls it against the transport's timeout rather
// than blocking, since the controller is cooperatively single-threaded)
// and to drive the restart-on-timeout counter.
type PendingCall struct {
	Done      <-chan error
	IssueTime time.Time
}
