package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/contract"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/memledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/workflow"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/spf13/cobra"
)

var (
	nftName         string
	nftSymbol       string
	nftMaxSupply    int64
	nftMetadataURIs []string
	nftSerial       int64
	nftMintMaxFee   float64
	accountKeyType  string

	fungibleName     string
	fungibleSymbol   string
	fungibleDecimals uint
	fungibleInitial  uint64
	fungibleMax      int64
	fungibleAmount   int64

	contractArtifact  string
	contractMessage   string
	contractUpdate    string
	contractDeployGas uint64
	contractQueryGas  uint64
	contractCallGas   uint64
)

var nftCmd = &cobra.Command{
	Use:   "nft",
	Short: "Create an NFT collection, mint a batch and transfer one serial",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, logger, err := commandContext(cmd)
		if err != nil {
			return err
		}
		service, release, err := openLedger(logger)
		if err != nil {
			return err
		}
		defer release()

		config := workflow.DefaultNFTConfig()
		config.Name = nftName
		config.Symbol = nftSymbol
		config.MaxSupply = nftMaxSupply
		config.TransferSerial = nftSerial
		config.MintMaxFee = hedera.NewHbar(nftMintMaxFee)
		config.AccountKeyType = accountKeyType
		if len(nftMetadataURIs) > 0 {
			config.Metadata = nftMetadataURIs
		}

		result, err := workflow.RunNFT(ctx, service, config)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s\n", result.RunID)
		printAccount(out, result.Account)
		fmt.Fprintf(out, "collection: %s serials=%v\n", result.TokenID.String(), result.SerialNumbers)
		fmt.Fprintf(out, "treasury holds %d, new account holds %d after transferring serial %d\n",
			result.TreasuryAfter.Tokens.Get(result.TokenID),
			result.AccountAfter.Tokens.Get(result.TokenID),
			result.TransferredSerial,
		)
		return nil
	},
}

var fungibleCmd = &cobra.Command{
	Use:   "fungible",
	Short: "Create a fungible token and transfer units to a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, logger, err := commandContext(cmd)
		if err != nil {
			return err
		}
		service, release, err := openLedger(logger)
		if err != nil {
			return err
		}
		defer release()

		config := workflow.DefaultFungibleConfig()
		config.Name = fungibleName
		config.Symbol = fungibleSymbol
		config.Decimals = fungibleDecimals
		config.InitialSupply = fungibleInitial
		config.MaxSupply = fungibleMax
		config.TransferAmount = fungibleAmount
		config.AccountKeyType = accountKeyType

		result, err := workflow.RunFungible(ctx, service, config)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s\n", result.RunID)
		printAccount(out, result.Account)
		fmt.Fprintf(out, "token: %s\n", result.TokenID.String())
		fmt.Fprintf(out, "treasury: %d -> %d units\n",
			result.TreasuryBefore.Tokens.Get(result.TokenID),
			result.TreasuryAfter.Tokens.Get(result.TokenID),
		)
		fmt.Fprintf(out, "new account: %d -> %d units\n",
			result.AccountBefore.Tokens.Get(result.TokenID),
			result.AccountAfter.Tokens.Get(result.TokenID),
		)
		return nil
	},
}

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Deploy a getter/setter contract, update its message and read it back",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(contractArtifact) == "" {
			return fmt.Errorf("--artifact is required")
		}
		artifact, err := contract.LoadArtifact(contractArtifact)
		if err != nil {
			return err
		}

		ctx, logger, err := commandContext(cmd)
		if err != nil {
			return err
		}
		service, release, err := openLedger(logger, memledger.WithContractFactory(memledger.AccessorFactory(artifact.ABI)))
		if err != nil {
			return err
		}
		defer release()

		config := workflow.DefaultContractConfig(artifact)
		config.ConstructorMessage = contractMessage
		config.UpdatedMessage = contractUpdate
		config.DeployGas = contractDeployGas
		config.QueryGas = contractQueryGas
		config.CallGas = contractCallGas

		result, err := workflow.RunContract(ctx, service, config)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s\n", result.RunID)
		fmt.Fprintf(out, "bytecode file: %s\n", result.FileID.String())
		fmt.Fprintf(out, "contract: %s\n", result.ContractID.String())
		fmt.Fprintf(out, "message: %q -> %q\n", result.InitialMessage, result.UpdatedMessage)
		return nil
	},
}

func printAccount(out io.Writer, account workflow.Account) {
	fmt.Fprintf(out, "new account: %s\n", account.ID.String())
	if address, err := account.EVMAddress(); err == nil {
		fmt.Fprintf(out, "evm address: %s\n", address)
	}
}

func init() {
	nftDefaults := workflow.DefaultNFTConfig()
	nftCmd.Flags().StringVar(&nftName, "name", nftDefaults.Name, "collection name")
	nftCmd.Flags().StringVar(&nftSymbol, "symbol", nftDefaults.Symbol, "collection symbol")
	nftCmd.Flags().Int64Var(&nftMaxSupply, "max-supply", nftDefaults.MaxSupply, "maximum number of serials")
	nftCmd.Flags().StringSliceVar(&nftMetadataURIs, "metadata", nil, "metadata URI per serial (default: the bundled IPFS documents)")
	nftCmd.Flags().Int64Var(&nftSerial, "serial", nftDefaults.TransferSerial, "serial transferred to the new account")
	nftCmd.Flags().Float64Var(&nftMintMaxFee, "mint-max-fee", 20, "max transaction fee of each mint, in hbar")
	nftCmd.Flags().StringVar(&accountKeyType, "key-type", workflow.KeyTypeED25519, "new account key type: ed25519|ecdsa")

	fungibleDefaults := workflow.DefaultFungibleConfig()
	fungibleCmd.Flags().StringVar(&fungibleName, "name", fungibleDefaults.Name, "token name")
	fungibleCmd.Flags().StringVar(&fungibleSymbol, "symbol", fungibleDefaults.Symbol, "token symbol")
	fungibleCmd.Flags().UintVar(&fungibleDecimals, "decimals", fungibleDefaults.Decimals, "token decimals")
	fungibleCmd.Flags().Uint64Var(&fungibleInitial, "initial-supply", fungibleDefaults.InitialSupply, "initial supply in the smallest unit")
	fungibleCmd.Flags().Int64Var(&fungibleMax, "max-supply", 0, "finite max supply; 0 keeps the supply infinite")
	fungibleCmd.Flags().Int64Var(&fungibleAmount, "amount", fungibleDefaults.TransferAmount, "units transferred to the new account")
	fungibleCmd.Flags().StringVar(&accountKeyType, "key-type", workflow.KeyTypeED25519, "new account key type: ed25519|ecdsa")

	contractDefaults := workflow.DefaultContractConfig(contract.Artifact{})
	contractCmd.Flags().StringVar(&contractArtifact, "artifact", "", "compiled contract artifact JSON (Remix, Hardhat or solc standard JSON)")
	contractCmd.Flags().StringVar(&contractMessage, "message", contractDefaults.ConstructorMessage, "constructor message")
	contractCmd.Flags().StringVar(&contractUpdate, "update", contractDefaults.UpdatedMessage, "message written by set_message")
	contractCmd.Flags().Uint64Var(&contractDeployGas, "deploy-gas", contractDefaults.DeployGas, "gas for contract creation")
	contractCmd.Flags().Uint64Var(&contractQueryGas, "query-gas", contractDefaults.QueryGas, "gas for the first message read")
	contractCmd.Flags().Uint64Var(&contractCallGas, "call-gas", contractDefaults.CallGas, "gas for the update and the read after it")
}
