/*
Package cash defines a simple wallet to hold fungible token balances
and a controller to move them between accounts.

There are no transfer messages here. Balances only move as a side
effect of other extensions, most notably escrow funding and release,
through the CoinMover interface.
*/
package cash
