package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/contract"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

type ContractConfig struct {
	Artifact           contract.Artifact
	ConstructorMessage string
	UpdatedMessage     string
	Getter             string
	Setter             string
	DeployGas          uint64
	// QueryGas is the gas of the first read; later reads use CallGas.
	QueryGas           uint64
	CallGas            uint64
	QueryPayment       hedera.Hbar
	Memo               string
}

// DefaultContractConfig returns the HelloHedera settings for artifact.
func DefaultContractConfig(artifact contract.Artifact) ContractConfig {
	return ContractConfig{
		Artifact:           artifact,
		ConstructorMessage: "Hello from Hedera!",
		UpdatedMessage:     "Hello from Hedera again!",
		Getter:             "get_message",
		Setter:             "set_message",
		DeployGas:          300_000,
		QueryGas:           300_000,
		CallGas:            100_000,
		QueryPayment:       hedera.NewHbar(2),
	}
}

type ContractResult struct {
	RunID          string
	FileID         hedera.FileID
	ContractID     hedera.ContractID
	InitialMessage string
	UpdatedMessage string
	ExecuteStatus  hedera.Status
	GasUsed        uint64
}

// RunContract uploads the artifact bytecode, instantiates it with the
// constructor message, reads the message, replaces it through a transaction
// and reads it again.
func RunContract(ctx context.Context, service ledger.Ledger, config ContractConfig) (ContractResult, error) {
	if err := config.validate(); err != nil {
		return ContractResult{}, err
	}

	runner := NewRunner(*zerolog.Ctx(ctx))
	logger := runner.Logger()
	artifact := config.Artifact
	result := ContractResult{RunID: runner.RunID()}

	readMessage := func(ctx context.Context, gas uint64) (string, error) {
		callData, err := artifact.EncodeCall(config.Getter)
		if err != nil {
			return "", err
		}
		callResult, err := service.CallContract(ctx, ledger.ContractCallRequest{
			ContractID:   result.ContractID,
			Gas:          gas,
			Params:       callData,
			QueryPayment: config.QueryPayment,
		})
		if err != nil {
			return "", err
		}
		result.GasUsed += callResult.GasUsed
		return artifact.DecodeString(config.Getter, callResult.Data)
	}

	steps := []Step{
		{Name: "deploy contract", Run: func(ctx context.Context) error {
			constructorParams, err := artifact.EncodeConstructor(config.ConstructorMessage)
			if err != nil {
				return err
			}
			deployment, err := ledger.DeployContract(ctx, service, ledger.DeployContractRequest{
				Bytecode:          artifact.BytecodeContents(),
				ConstructorParams: constructorParams,
				Gas:               config.DeployGas,
				Memo:              config.Memo,
			})
			if err != nil {
				return err
			}
			result.FileID = deployment.FileID
			result.ContractID = deployment.ContractID
			logger.Info().
				Str("file_id", result.FileID.String()).
				Str("contract_id", result.ContractID.String()).
				Msg("deployed contract")
			return nil
		}},
		{Name: "read message", Run: func(ctx context.Context) error {
			message, err := readMessage(ctx, config.QueryGas)
			if err != nil {
				return err
			}
			result.InitialMessage = message
			logger.Info().Str("function", config.Getter).Str("message", message).Msg("contract message")
			return nil
		}},
		{Name: "update message", Run: func(ctx context.Context) error {
			callData, err := artifact.EncodeCall(config.Setter, config.UpdatedMessage)
			if err != nil {
				return err
			}
			receipt, err := service.ExecuteContract(ctx, ledger.ContractExecuteRequest{
				ContractID: result.ContractID,
				Gas:        config.CallGas,
				Params:     callData,
			})
			if err != nil {
				return err
			}
			if err := ledger.RequireSuccess(ledger.OperationExecuteContract, receipt); err != nil {
				return err
			}
			result.ExecuteStatus = receipt.Status
			logger.Info().Str("function", config.Setter).Str("status", receipt.Status.String()).Msg("contract updated")
			return nil
		}},
		{Name: "read updated message", Run: func(ctx context.Context) error {
			message, err := readMessage(ctx, config.CallGas)
			if err != nil {
				return err
			}
			result.UpdatedMessage = message
			logger.Info().Str("function", config.Getter).Str("message", message).Msg("contract message")
			return nil
		}},
	}

	if err := runner.Run(ctx, steps); err != nil {
		return result, err
	}
	return result, nil
}

func (config ContractConfig) validate() error {
	if strings.TrimSpace(config.Artifact.Bytecode) == "" {
		return fmt.Errorf("contract artifact has no bytecode")
	}
	for _, name := range []string{config.Getter, config.Setter} {
		if _, ok := config.Artifact.ABI.Methods[name]; !ok {
			return fmt.Errorf("contract ABI has no function %q", name)
		}
	}
	if config.DeployGas == 0 || config.QueryGas == 0 || config.CallGas == 0 {
		return fmt.Errorf("deploy, query and call gas must be positive")
	}
	return nil
}
