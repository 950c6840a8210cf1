// Package workflow runs the demonstration ledger workflows: an NFT
// collection, a fungible token and a getter/setter smart contract.
//
// Each workflow is a fixed list of steps executed by a Runner. A step only
// starts once the previous one succeeded, so no entity ID is used before the
// receipt that created it was checked. The first failure halts the run and is
// returned as a *StepError. Progress is logged through the zerolog logger
// carried by the context.
package workflow
