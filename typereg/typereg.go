// Package typereg implements the TypeHandler registry of spec section
// 4.6: handlers claim a declarative type descriptor and validate,
// serialize, and deserialize values that cross a typed port. Resolution
// walks a LIFO list exactly like the original's register_handler/
// get_type_handler pair (see original_source/rill/engine/types.py),
// reimplemented here as the teacher's xact/xreg registry shape: a
// package-private slice guarded by one mutex, newest registration wins.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package typereg

import (
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/flowcore-go/flowcore/cmn/xerrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind is one of the JSON-shaped primitive kinds a Spec can describe.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindInt     Kind = "int"
	KindNumber  Kind = "number"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Spec is the wire-shaped description a handler returns from GetSpec,
// kept structurally identical to rill's type descriptor so an external
// FBP-protocol layer built on top of this core can consume it unchanged.
type Spec struct {
	Type   Kind     `json:"type"`
	Values []string `json:"values,omitempty"`
}

// Handler validates and (de)serializes values that cross a port claiming
// a given descriptor.
type Handler interface {
	// Claim reports whether this handler is responsible for descriptor.
	Claim(descriptor string) bool
	Validate(value any) (any, error)
	ToPrimitive(value any) (any, error)
	ToNative(primitive any) (any, error)
	GetSpec() Spec
}

// Registry resolves a descriptor to a Handler, LIFO: the most recently
// registered handler is tried first.
type Registry struct {
	mu       sync.Mutex
	handlers []Handler
}

// NewRegistry returns a Registry pre-seeded with the seven built-in
// handlers named in spec section 4.6's get_spec enum.
func NewRegistry() *Registry {
	r := &Registry{}
	for _, k := range []Kind{KindAny, KindString, KindBoolean, KindInt, KindNumber, KindObject, KindArray} {
		r.handlers = append(r.handlers, builtin{kind: k})
	}
	return r
}

// Register inserts h at the head of the LIFO list, per spec section 6.3.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append([]Handler{h}, r.handlers...)
}

// Resolve returns the first handler that claims descriptor, or
// TypeHandlerError if none does. An empty descriptor resolves to "any".
func (r *Registry) Resolve(descriptor string) (Handler, error) {
	if descriptor == "" {
		descriptor = string(KindAny)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.handlers {
		if h.Claim(descriptor) {
			return h, nil
		}
	}
	return nil, xerrors.NewTypeHandlerError(descriptor)
}

// envelope wraps a non-builtin handler's primitive form for transport,
// per spec section 4.6's "envelope {kind, value}" serialization rule.
type envelope struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func isBuiltin(descriptor string) bool {
	switch Kind(descriptor) {
	case KindAny, KindString, KindBoolean, KindInt, KindNumber, KindObject, KindArray:
		return true
	default:
		return false
	}
}

// Marshal validates and serializes value for descriptor, emitting the
// primitive directly for a built-in JSON-native kind or an
// envelope{kind,value} for a custom handler.
func (r *Registry) Marshal(descriptor string, value any) ([]byte, error) {
	h, err := r.Resolve(descriptor)
	if err != nil {
		return nil, err
	}
	valid, err := h.Validate(value)
	if err != nil {
		return nil, xerrors.NewPacketValidationError(descriptor, value, err)
	}
	prim, err := h.ToPrimitive(valid)
	if err != nil {
		return nil, err
	}
	if isBuiltin(descriptor) {
		return json.Marshal(prim)
	}
	return json.Marshal(envelope{Kind: descriptor, Value: prim})
}

// Unmarshal parses data, recovering the registered handler named by the
// envelope's "kind" field, if present, and calling ToNative on it;
// otherwise it treats data as a bare JSON value of kind "any".
func (r *Registry) Unmarshal(data []byte) (descriptor string, value any, err error) {
	var probe map[string]jsoniter.RawMessage
	if jerr := json.Unmarshal(data, &probe); jerr == nil {
		if kindRaw, ok := probe["kind"]; ok {
			var kind string
			if err = json.Unmarshal(kindRaw, &kind); err != nil {
				return "", nil, err
			}
			h, rerr := r.Resolve(kind)
			if rerr != nil {
				return "", nil, rerr
			}
			var prim any
			if valRaw, ok := probe["value"]; ok {
				if err = json.Unmarshal(valRaw, &prim); err != nil {
					return "", nil, err
				}
			}
			native, nerr := h.ToNative(prim)
			if nerr != nil {
				return "", nil, nerr
			}
			return kind, native, nil
		}
	}
	var v any
	if err = json.Unmarshal(data, &v); err != nil {
		return "", nil, err
	}
	return string(KindAny), v, nil
}
