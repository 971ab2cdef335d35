// Package bridge carries engine messages to a host callback.
//
// One call = one engine run on the caller's goroutine + one delivery
// goroutine draining a Channel. The call returns only after the engine has
// stopped producing and the last queued message was delivered.
//
//	entrypoint -> Params.Validate -> engine call (safe.Call) -> Channel
//	  -> delivery goroutine -> Builder.Build -> host callback -> release
package bridge
