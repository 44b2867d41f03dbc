package usecase

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// parseABI parses the ABI of an artifact
func parseABI(artifact *models.Artifact) (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("invalid ABI for %s: %w", artifact.ContractName, err)
	}
	return parsed, nil
}

// resolveArgs replaces step references with deployed addresses
func resolveArgs(args []models.Arg, lookup func(string) (common.Address, bool)) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		v, err := resolveArg(arg, lookup)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func resolveArg(arg models.Arg, lookup func(string) (common.Address, bool)) (any, error) {
	switch arg.Kind {
	case models.ArgRef:
		addr, ok := lookup(arg.Ref)
		if !ok {
			return nil, fmt.Errorf("%w: '%s' has not been deployed yet", domain.ErrDanglingReference, arg.Ref)
		}
		return addr, nil
	case models.ArgList:
		return resolveArgs(arg.Items, lookup)
	default:
		return arg.Value, nil
	}
}

// packArguments converts resolved plan values to the ABI input types and packs them
func packArguments(inputs abi.Arguments, values []any) ([]byte, error) {
	if len(values) != len(inputs) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", domain.ErrArgumentMismatch, len(inputs), len(values))
	}

	converted := make([]any, len(values))
	for i, input := range inputs {
		v, err := convertValue(input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("%w: argument %s (%s): %v", domain.ErrArgumentMismatch, name, input.Type.String(), err)
		}
		converted[i] = v
	}

	packed, err := inputs.Pack(converted...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArgumentMismatch, err)
	}
	return packed, nil
}

// convertValue coerces a plan value into the Go type abi expects for t
// fitsType reports whether n is within [0, 2^N-1] for uintN or [-2^(N-1), 2^(N-1)-1] for intN
func fitsType(t abi.Type, n *big.Int) bool {
	if t.T == abi.UintTy {
		return n.BitLen() <= t.Size
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Sign() < 0 {
		return n.Cmp(new(big.Int).Neg(limit)) >= 0
	}
	return n.Cmp(limit) < 0
}

func convertValue(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		switch x := v.(type) {
		case common.Address:
			return x, nil
		case string:
			if !common.IsHexAddress(x) {
				return nil, fmt.Errorf("%q is not an address", x)
			}
			return common.HexToAddress(x), nil
		}

	case abi.UintTy, abi.IntTy:
		s, ok := v.(string)
		if !ok {
			break
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("%s is negative", s)
		}
		if !fitsType(t, n) {
			return nil, fmt.Errorf("%s overflows %s", s, t.String())
		}
		rt := t.GetType()
		if rt == bigIntType {
			return n, nil
		}
		rv := reflect.New(rt).Elem()
		if t.T == abi.UintTy {
			rv.SetUint(n.Uint64())
		} else {
			rv.SetInt(n.Int64())
		}
		return rv.Interface(), nil

	case abi.BoolTy:
		if s, ok := v.(string); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("%q is not a bool", s)
			}
			return b, nil
		}

	case abi.StringTy:
		switch x := v.(type) {
		case string:
			return x, nil
		case common.Address:
			return x.Hex(), nil
		}

	case abi.BytesTy:
		if s, ok := v.(string); ok {
			return hexutil.Decode(s)
		}

	case abi.FixedBytesTy:
		s, ok := v.(string)
		if !ok {
			break
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			break
		}
		var rv reflect.Value
		if t.T == abi.ArrayTy {
			if len(items) != t.Size {
				return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
			}
			rv = reflect.New(t.GetType()).Elem()
		} else {
			rv = reflect.MakeSlice(t.GetType(), len(items), len(items))
		}
		for i, item := range items {
			c, err := convertValue(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			rv.Index(i).Set(reflect.ValueOf(c))
		}
		return rv.Interface(), nil

	default:
		return nil, fmt.Errorf("unsupported type %s", t.String())
	}

	return nil, fmt.Errorf("cannot use %s as %s", describeValue(v), t.String())
}

func describeValue(v any) string {
	switch x := v.(type) {
	case []any:
		return fmt.Sprintf("list of %d", len(x))
	case common.Address:
		return "address " + x.Hex()
	case string:
		return strconv.Quote(x)
	}
	return fmt.Sprintf("%T", v)
}
