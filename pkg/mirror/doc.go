// Package mirror is a small client for the Hedera mirror node REST API. It
// reads account, token relationship, NFT and transaction records that the
// consensus nodes do not expose through queries, such as the full list of
// tokens an account holds.
//
// The mirror node is eventually consistent: records appear a few seconds
// after consensus.
package mirror
