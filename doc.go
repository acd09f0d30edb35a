/*
Package ledger defines the common interfaces that tie the fymoney escrow
protocol together, as well as implementations of some of the simpler
components (when interfaces would be too much overhead).

The escrow ledger is a single-writer-per-account state machine. Every
transaction carries one message that is routed to a handler, and the
handler either fully applies or fully rejects the instruction. Atomicity
comes from cache-wrapping the backing store per transaction and only
writing through on success.

We pass context through context.Context between the application,
middleware and handlers. The ledger declares a few common keys to store
block scoped information such as height, block time and chain id. Each
extension may add its own keys to enrich the context with specific data.

There should exist two functions for every XYZ of type T that we want to
support in Context:

	WithXYZ(Context, T) Context
	XYZ(Context) (val T, ok bool)
*/
package ledger
