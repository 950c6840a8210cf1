// Package contract loads compiled Solidity artifacts and encodes and decodes
// call data with their ABI.
//
// Remix (data.bytecode.object), Hardhat and Truffle (bytecode) and solc
// standard JSON (evm.bytecode.object) artifact layouts are accepted. The
// bytecode is kept hex encoded because that is how the Hedera file service
// stores contract code.
package contract
