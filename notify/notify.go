/*
Package notify pushes transfer lifecycle events to a message broker so
downstream consumers, eg. the email delivery service telling a
recipient that money waits for them, can react to them.

Notifications are best effort. The ledger is the source of truth and
the mirror reconciler repairs anything a lost notification left
behind.
*/
package notify

import (
	"context"

	"github.com/fymoney/ledger/client"
)

// Nop is an observer that drops every event. It stands in for the
// broker in tests and in setups that run without one.
type Nop struct{}

var _ client.Observer = Nop{}

func (Nop) EscrowCreated(context.Context, client.Event) error   { return nil }
func (Nop) EscrowClaimed(context.Context, client.Event) error   { return nil }
func (Nop) EscrowReclaimed(context.Context, client.Event) error { return nil }
