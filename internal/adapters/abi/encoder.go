package abi

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// Encoder packs resolved manifest arguments against an artifact's ABI.
// Manifest values arrive as YAML scalars, so they are converted to the Go
// types go-ethereum expects for each Solidity type first.
type Encoder struct{}

// NewEncoder creates a new calldata encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeConstructor returns the creation bytecode with ABI encoded constructor arguments appended
func (e *Encoder) EncodeConstructor(artifact *models.Artifact, args []any) ([]byte, error) {
	if artifact.ABI == nil {
		return nil, fmt.Errorf("artifact %s has no abi", artifact.Name)
	}
	inputs := artifact.ABI.Constructor.Inputs
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("constructor of %s takes %d argument(s), got %d", artifact.Name, len(inputs), len(args))
	}

	values, err := convertArgs(inputs, args)
	if err != nil {
		return nil, fmt.Errorf("constructor of %s: %w", artifact.Name, err)
	}
	packed, err := artifact.ABI.Pack("", values...)
	if err != nil {
		return nil, fmt.Errorf("constructor of %s: %w", artifact.Name, err)
	}

	code := make([]byte, 0, len(artifact.Bytecode)+len(packed))
	code = append(code, artifact.Bytecode...)
	return append(code, packed...), nil
}

// EncodeInitializer returns selector plus encoded arguments for method. A
// contract without the method and no arguments to pass needs no initializer
// call and yields empty calldata.
func (e *Encoder) EncodeInitializer(artifact *models.Artifact, method string, args []any) ([]byte, error) {
	m := artifact.Method(method)
	if m == nil {
		if len(args) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("artifact %s has no method %s", artifact.Name, method)
	}
	if len(args) != len(m.Inputs) {
		return nil, fmt.Errorf("%s.%s takes %d argument(s), got %d", artifact.Name, m.Sig, len(m.Inputs), len(args))
	}

	values, err := convertArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", artifact.Name, m.Sig, err)
	}
	return artifact.ABI.Pack(method, values...)
}

func convertArgs(inputs abi.Arguments, args []any) ([]any, error) {
	values := make([]any, len(args))
	for i, input := range inputs {
		v, err := convertValue(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type.String(), err)
		}
		values[i] = v
	}
	return values, nil
}

// convertValue converts a manifest value to the Go type go-ethereum packs for t
func convertValue(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)

	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
		return nil, fmt.Errorf("cannot use %T as bool", v)

	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil

	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return fitInteger(t, n)

	case abi.BytesTy:
		return toBytes(v)

	case abi.FixedBytesTy, abi.HashTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		size := t.Size
		if t.T == abi.HashTy {
			size = common.HashLength
		}
		if len(b) != size {
			return nil, fmt.Errorf("expected %d bytes, got %d", size, len(b))
		}
		out := reflect.New(t.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			if len(items) != t.Size {
				return nil, fmt.Errorf("expected %d items, got %d", t.Size, len(items))
			}
			out = reflect.New(t.GetType()).Elem()
		} else {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		}
		for i, item := range items {
			converted, err := convertValue(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(converted))
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported argument type %s", t.String())
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid address %q", a)
		}
		return common.HexToAddress(a), nil
	}
	return common.Address{}, fmt.Errorf("cannot use %T as address", v)
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%v is not an integer", n)
		}
		if math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("%v cannot be represented exactly, quote it as a string", n)
		}
		i, _ := big.NewFloat(n).Int(nil)
		return i, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), "_", "")
		i, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", n)
		}
		return i, nil
	}
	return nil, fmt.Errorf("cannot use %T as integer", v)
}

// fitInteger range checks n and converts it to the Go type used for t:
// (u)int8..64 map to native integers, wider types to *big.Int
func fitInteger(t abi.Type, n *big.Int) (any, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s out of range for uint%d", n, t.Size)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s out of range for int%d", n, t.Size)
		}
	}

	goType := t.GetType()
	if goType == bigIntType {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case common.Hash:
		return b.Bytes(), nil
	case string:
		if !strings.HasPrefix(b, "0x") {
			return nil, fmt.Errorf("bytes must be 0x-prefixed hex, got %q", b)
		}
		return hexutil.Decode(b)
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}

var _ usecase.CalldataEncoder = (*Encoder)(nil)
