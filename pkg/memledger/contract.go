package memledger

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract emulates deployed bytecode. Call must not change state.
type Contract interface {
	Construct(params []byte) error
	Call(callData []byte) ([]byte, error)
	Execute(callData []byte) ([]byte, error)
}

// ContractFactory instantiates the emulation for uploaded bytecode.
type ContractFactory func(bytecode []byte) (Contract, error)

// AccessorFactory emulates every deployed contract as an AccessorContract
// described by contractABI.
func AccessorFactory(contractABI abi.ABI) ContractFactory {
	return func([]byte) (Contract, error) {
		return NewAccessorContract(contractABI), nil
	}
}

// AccessorContract emulates a getter/setter contract from its ABI alone.
// Constructor inputs seed named slots; get_x/getX read slot x and
// set_x/setX write it.
type AccessorContract struct {
	abi   abi.ABI
	slots map[string]any
}

func NewAccessorContract(contractABI abi.ABI) *AccessorContract {
	return &AccessorContract{abi: contractABI, slots: map[string]any{}}
}

func (c *AccessorContract) Construct(params []byte) error {
	inputs := c.abi.Constructor.Inputs
	if len(inputs) == 0 {
		return nil
	}

	values, err := inputs.Unpack(params)
	if err != nil {
		return fmt.Errorf("invalid constructor arguments: %w", err)
	}
	for index, input := range inputs {
		c.slots[slotName(input.Name, index)] = values[index]
	}
	return nil
}

func (c *AccessorContract) Call(callData []byte) ([]byte, error) {
	method, kind, slot, err := c.resolve(callData)
	if err != nil {
		return nil, err
	}
	if kind == accessorSet {
		// a query runs the setter without persisting its write
		return method.Outputs.Pack()
	}
	return c.read(method, slot)
}

func (c *AccessorContract) Execute(callData []byte) ([]byte, error) {
	method, kind, slot, err := c.resolve(callData)
	if err != nil {
		return nil, err
	}
	if kind == accessorGet {
		return c.read(method, slot)
	}

	values, err := method.Inputs.Unpack(callData[4:])
	if err != nil {
		return nil, fmt.Errorf("invalid %s arguments: %w", method.Name, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s must take exactly one argument", method.Name)
	}
	c.slots[slot] = values[0]
	return method.Outputs.Pack()
}

// Slot returns the stored value of a slot.
func (c *AccessorContract) Slot(name string) (any, bool) {
	value, ok := c.slots[name]
	return value, ok
}

type accessorKind int

const (
	accessorGet accessorKind = iota
	accessorSet
)

func (c *AccessorContract) resolve(callData []byte) (*abi.Method, accessorKind, string, error) {
	if len(callData) < 4 {
		return nil, 0, "", fmt.Errorf("call data is missing a function selector")
	}
	method, err := c.abi.MethodById(callData[:4])
	if err != nil {
		return nil, 0, "", err
	}

	switch {
	case strings.HasPrefix(method.Name, "get"):
		return method, accessorGet, slotName(strings.TrimPrefix(method.Name, "get"), 0), nil
	case strings.HasPrefix(method.Name, "set"):
		return method, accessorSet, slotName(strings.TrimPrefix(method.Name, "set"), 0), nil
	default:
		return nil, 0, "", fmt.Errorf("function %s is not an accessor", method.Name)
	}
}

func (c *AccessorContract) read(method *abi.Method, slot string) ([]byte, error) {
	value, ok := c.slots[slot]
	if !ok {
		return nil, fmt.Errorf("slot %q was never written", slot)
	}
	return method.Outputs.Pack(value)
}

// slotName maps "message_", "_message" and "Message" to "message".
func slotName(name string, index int) string {
	trimmed := strings.Trim(name, "_")
	if trimmed == "" {
		return fmt.Sprintf("arg%d", index)
	}
	first, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToLower(first)) + trimmed[size:]
}
