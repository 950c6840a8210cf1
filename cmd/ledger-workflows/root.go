package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/hederaledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/memledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type GlobalFlags struct {
	Network   string
	Sandbox   bool
	LogLevel  string
	LogFormat string
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "ledger-workflows",
	Short: "Run NFT, fungible token and smart contract workflows on Hedera",
	Long: `ledger-workflows runs end-to-end Hedera workflows with the operator
account from the environment (HEDERA_ACCOUNT_ID / HEDERA_PRIVATE_KEY or
MY_ACCOUNT_ID / MY_PRIVATE_KEY, optionally from a .env file).

With --sandbox every workflow runs against an in-memory ledger and needs no
credentials.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Network, "network", "", "Hedera network: mainnet|testnet|previewnet (default from HEDERA_NETWORK, then testnet)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Sandbox, "sandbox", false, "run against an in-memory ledger")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFormat, "log-format", "console", "log format: console|json")

	rootCmd.AddCommand(nftCmd)
	rootCmd.AddCommand(fungibleCmd)
	rootCmd.AddCommand(contractCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(transactionCmd)
}

func newLogger(flags GlobalFlags, output io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(flags.LogLevel)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", flags.LogLevel, err)
	}

	switch strings.ToLower(strings.TrimSpace(flags.LogFormat)) {
	case "", "console":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	case "json":
	default:
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", flags.LogFormat)
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), nil
}

// commandContext attaches the configured logger to the command context.
func commandContext(cmd *cobra.Command) (context.Context, *zerolog.Logger, error) {
	logger, err := newLogger(globalFlags, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return logger.WithContext(cmd.Context()), &logger, nil
}

// openLedger returns the ledger selected by the global flags and a function
// releasing it.
func openLedger(logger *zerolog.Logger, sandboxOptions ...memledger.Option) (ledger.Ledger, func(), error) {
	if globalFlags.Sandbox {
		operatorKey, err := hedera.PrivateKeyGenerateEd25519()
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("using in-memory sandbox ledger")
		return memledger.New(operatorKey.PublicKey(), sandboxOptions...), func() {}, nil
	}

	client, err := openNetworkClient()
	if err != nil {
		return nil, nil, err
	}
	logger.Info().
		Str("network", client.Network()).
		Str("operator", client.OperatorAccountID().String()).
		Msg("connected to Hedera")
	return client, func() { _ = client.Close() }, nil
}

func openNetworkClient() (*hederaledger.Client, error) {
	operatorConfig, err := shared.OperatorConfigForNetwork(globalFlags.Network)
	if err != nil {
		return nil, err
	}
	return hederaledger.NewClient(hederaledger.Config{Operator: operatorConfig})
}
