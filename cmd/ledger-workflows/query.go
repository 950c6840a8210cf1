package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/mirror"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/spf13/cobra"
)

var (
	balanceAccount string
	balanceTokens  []string
	balanceSerial  int64
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the hbar and token balances of an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.Sandbox {
			return fmt.Errorf("balance queries need a network; the sandbox ledger does not outlive a run")
		}
		ctx, logger, err := commandContext(cmd)
		if err != nil {
			return err
		}

		client, err := openNetworkClient()
		if err != nil {
			return err
		}
		defer client.Close()

		accountID := client.OperatorAccountID()
		if strings.TrimSpace(balanceAccount) != "" {
			accountID, err = hedera.AccountIDFromString(strings.TrimSpace(balanceAccount))
			if err != nil {
				return fmt.Errorf("invalid --account: %w", err)
			}
		}
		tokenIDs := make([]hedera.TokenID, 0, len(balanceTokens))
		for _, raw := range balanceTokens {
			tokenID, parseErr := hedera.TokenIDFromString(strings.TrimSpace(raw))
			if parseErr != nil {
				return fmt.Errorf("invalid --token %q: %w", raw, parseErr)
			}
			tokenIDs = append(tokenIDs, tokenID)
		}

		balance, err := client.QueryBalance(ctx, accountID, tokenIDs...)
		if err != nil {
			return err
		}
		logger.Debug().Str("account", accountID.String()).Int("tokens", len(balance.Tokens)).Msg("balance queried")

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "account %s: %s\n", accountID.String(), balance.Hbars.String())
		for _, tokenID := range balance.Tokens.TokenIDs() {
			fmt.Fprintf(out, "  %s: %d\n", tokenID.String(), balance.Tokens.Get(tokenID))
		}

		if balanceSerial > 0 {
			if len(tokenIDs) != 1 {
				return fmt.Errorf("--serial needs exactly one --token")
			}
			nft, err := client.MirrorClient().GetNft(ctx, tokenIDs[0].String(), balanceSerial)
			if err != nil {
				return err
			}
			metadata, err := nftMetadata(nft)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s#%d owned by %s metadata=%q\n", nft.TokenID, nft.SerialNumber, nft.AccountID, metadata)
		}
		return nil
	},
}

var transactionCmd = &cobra.Command{
	Use:   "transaction <transaction-id>",
	Short: "Look up a transaction on the mirror node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.Sandbox {
			return fmt.Errorf("transaction lookups need a network mirror node")
		}
		ctx, _, err := commandContext(cmd)
		if err != nil {
			return err
		}

		client, err := newMirrorClient()
		if err != nil {
			return err
		}
		transaction, err := client.GetTransaction(ctx, args[0])
		if err != nil {
			return err
		}
		if transaction == nil {
			return fmt.Errorf("transaction %s is not on the mirror node yet", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s %s at %s\n", transaction.TransactionID, transaction.Name, transaction.Result, transaction.ConsensusTimestamp)
		if transaction.EntityID != nil {
			fmt.Fprintf(out, "  entity: %s\n", *transaction.EntityID)
		}
		fmt.Fprintf(out, "  charged fee: %s\n", hedera.HbarFromTinybar(transaction.ChargedTxFee).String())
		for _, transfer := range transaction.TokenTransfers {
			fmt.Fprintf(out, "  token %s %s %+d\n", transfer.TokenID, transfer.Account, transfer.Amount)
		}
		for _, transfer := range transaction.NftTransfers {
			fmt.Fprintf(out, "  nft %s#%d %s -> %s\n", transfer.TokenID, transfer.SerialNumber, transfer.SenderAccountID, transfer.ReceiverAccountID)
		}
		return nil
	},
}

// newMirrorClient resolves the mirror node without operator credentials.
// nftMetadata decodes the base64 metadata the mirror node reports for nft.
func nftMetadata(nft mirror.Nft) (string, error) {
	metadata, err := base64.StdEncoding.DecodeString(nft.Metadata)
	if err != nil {
		return "", fmt.Errorf("mirror node returned invalid metadata for %s#%d: %w", nft.TokenID, nft.SerialNumber, err)
	}
	return string(metadata), nil
}

func newMirrorClient() (*mirror.Client, error) {
	network := globalFlags.Network
	if network == "" {
		network = firstEnv("HEDERA_NETWORK", "NETWORK")
	}
	if network == "" {
		network = shared.NetworkTestnet
	}
	return mirror.NewClient(mirror.Config{
		Network: network,
		BaseURL: firstEnv("MIRROR_NODE_URL", "HEDERA_MIRROR_NODE_URL"),
		APIKey:  firstEnv("MIRROR_NODE_API_KEY"),
	})
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func init() {
	balanceCmd.Flags().StringVar(&balanceAccount, "account", "", "account to query (default: the operator)")
	balanceCmd.Flags().StringArrayVar(&balanceTokens, "token", nil, "token to report; repeatable (default: every associated token)")
	balanceCmd.Flags().Int64Var(&balanceSerial, "serial", 0, "also print the owner and metadata of this NFT serial")
}
