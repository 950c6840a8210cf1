package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract: its ABI and hex-encoded creation bytecode.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode string
}

type rawBytecode struct {
	Object string `json:"object"`
}

type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
	Data         *struct {
		Bytecode rawBytecode `json:"bytecode"`
	} `json:"data"`
	EVM *struct {
		Bytecode rawBytecode `json:"bytecode"`
	} `json:"evm"`
}

// LoadArtifact reads and parses an artifact file. The contract name defaults
// to the file name without extension.
func LoadArtifact(path string) (Artifact, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Artifact{}, fmt.Errorf("artifact path is required")
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to read contract artifact: %w", err)
	}

	artifact, err := ParseArtifact(data)
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: %w", filepath.Base(trimmed), err)
	}
	if artifact.Name == "" {
		artifact.Name = strings.TrimSuffix(filepath.Base(trimmed), filepath.Ext(trimmed))
	}

	return artifact, nil
}

// ParseArtifact decodes an artifact document.
func ParseArtifact(data []byte) (Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("failed to decode contract artifact: %w", err)
	}

	if len(bytes.TrimSpace(raw.ABI)) == 0 || string(bytes.TrimSpace(raw.ABI)) == "null" {
		return Artifact{}, fmt.Errorf("contract artifact has no ABI")
	}
	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return Artifact{}, fmt.Errorf("invalid contract ABI: %w", err)
	}

	bytecode, err := resolveBytecode(raw)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{
		Name:     raw.ContractName,
		ABI:      parsedABI,
		Bytecode: bytecode,
	}, nil
}

func resolveBytecode(raw rawArtifact) (string, error) {
	candidate := ""
	switch {
	case raw.Data != nil && raw.Data.Bytecode.Object != "":
		candidate = raw.Data.Bytecode.Object
	case raw.EVM != nil && raw.EVM.Bytecode.Object != "":
		candidate = raw.EVM.Bytecode.Object
	case len(raw.Bytecode) > 0:
		var asString string
		if err := json.Unmarshal(raw.Bytecode, &asString); err == nil {
			candidate = asString
			break
		}
		var asObject rawBytecode
		if err := json.Unmarshal(raw.Bytecode, &asObject); err == nil {
			candidate = asObject.Object
		}
	}

	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(candidate), "0x"))
	if normalized == "" {
		return "", fmt.Errorf("contract artifact has no bytecode")
	}
	if strings.Contains(normalized, "__") {
		return "", fmt.Errorf("contract bytecode has unlinked library references")
	}
	if _, err := hex.DecodeString(normalized); err != nil {
		return "", fmt.Errorf("contract bytecode is not valid hex: %w", err)
	}

	return normalized, nil
}

// BytecodeContents is the file payload uploaded before instantiation.
func (a Artifact) BytecodeContents() []byte {
	return []byte(a.Bytecode)
}

// EncodeConstructor ABI-encodes constructor arguments, without a selector.
func (a Artifact) EncodeConstructor(args ...any) ([]byte, error) {
	encoded, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	return encoded, nil
}

// EncodeCall builds call data for method: selector followed by arguments.
func (a Artifact) EncodeCall(method string, args ...any) ([]byte, error) {
	if _, ok := a.ABI.Methods[method]; !ok {
		return nil, fmt.Errorf("contract %s has no function %q", a.displayName(), method)
	}
	encoded, err := a.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s arguments: %w", method, err)
	}
	return encoded, nil
}

// DecodeResult unpacks the return values of method.
func (a Artifact) DecodeResult(method string, data []byte) ([]any, error) {
	values, err := a.ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return values, nil
}

// DecodeString unpacks a method returning a single string.
func (a Artifact) DecodeString(method string, data []byte) (string, error) {
	values, err := a.DecodeResult(method, data)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("%s returned no values", method)
	}
	value, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%s returned %T, expected string", method, values[0])
	}
	return value, nil
}

func (a Artifact) displayName() string {
	if a.Name == "" {
		return "artifact"
	}
	return a.Name
}
