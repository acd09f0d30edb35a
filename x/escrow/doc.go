/*
Package escrow implements deposit-until-claimed transfers addressed to
an off-chain identifier.

A sender locks an amount for a recipient known only by the hash of an
identifier such as an email address. The funds sit in a custody wallet
derived from (sender, recipient hash, nonce) until the recipient claims
them with their own wallet, or until the sender reclaims them after the
escrow expired. Both terminal transitions are one-shot: whichever
instruction lands first wins and the loser fails on the status guard.
*/
package escrow
