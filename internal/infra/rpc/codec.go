package rpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/core/domain"
)

// Request and response field names.
const (
	fieldAdapter   = "adapter"
	fieldObjectID  = "object_id"
	fieldOperation = "operation"
	fieldArgs      = "args"
	fieldKind      = "kind"
	fieldResult    = "result"
)

// Result kinds. Object references travel as their string form.
const (
	kindValue = "value"
	kindRef   = "ref"
	kindNull  = "null"
)

func encodeRequest(ref domain.Ref, op string, args map[string]any) (*structpb.Struct, error) {
	argStruct, err := structpb.NewStruct(args)
	if err != nil {
		return nil, fmt.Errorf("encode args for %s: %w", op, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAdapter:   structpb.NewStringValue(ref.Adapter),
		fieldObjectID:  structpb.NewStringValue(string(ref.ObjectID)),
		fieldOperation: structpb.NewStringValue(op),
		fieldArgs:      structpb.NewStructValue(argStruct),
	}}, nil
}

func decodeRequest(in *structpb.Struct) (string, *adapter.Request, error) {
	fields := in.GetFields()
	adapterName := fields[fieldAdapter].GetStringValue()
	req := &adapter.Request{
		ObjectID:  domain.ObjectID(fields[fieldObjectID].GetStringValue()),
		Operation: fields[fieldOperation].GetStringValue(),
		Args:      fields[fieldArgs].GetStructValue().AsMap(),
	}
	if adapterName == "" || req.ObjectID == "" || req.Operation == "" {
		return "", nil, fmt.Errorf("request needs %s, %s and %s", fieldAdapter, fieldObjectID, fieldOperation)
	}
	return adapterName, req, nil
}

func encodeResult(result any) (*structpb.Struct, error) {
	var (
		kind  = kindValue
		value *structpb.Value
		err   error
	)
	switch v := result.(type) {
	case nil:
		kind, value = kindNull, structpb.NewNullValue()
	case domain.Ref:
		kind, value = kindRef, structpb.NewStringValue(v.String())
	case domain.ObjectID:
		value = structpb.NewStringValue(string(v))
	default:
		value, err = structpb.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKind:   structpb.NewStringValue(kind),
		fieldResult: value,
	}}, nil
}

func decodeResult(out *structpb.Struct) (any, error) {
	fields := out.GetFields()
	switch kind := fields[fieldKind].GetStringValue(); kind {
	case kindNull:
		return nil, nil
	case kindRef:
		return domain.ParseRef(fields[fieldResult].GetStringValue())
	case kindValue:
		return fields[fieldResult].AsInterface(), nil
	default:
		return nil, fmt.Errorf("unknown result kind %q", kind)
	}
}
