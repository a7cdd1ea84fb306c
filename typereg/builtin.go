package typereg

import "fmt"

// builtin claims exactly the descriptor matching its own kind name and
// implements the seven JSON-native kinds spec section 4.6 enumerates.
// It never performs an envelope wrap: these kinds are JSON-native by
// definition.
type builtin struct{ kind Kind }

func (b builtin) Claim(descriptor string) bool { return descriptor == string(b.kind) }

func (b builtin) GetSpec() Spec { return Spec{Type: b.kind} }

func (b builtin) ToPrimitive(value any) (any, error) { return value, nil }

func (b builtin) ToNative(primitive any) (any, error) { return b.Validate(primitive) }

func (b builtin) Validate(value any) (any, error) {
	switch b.kind {
	case KindAny:
		return value, nil
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected string, got %T", value)
	case KindBoolean:
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", value)
	case KindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
			return nil, fmt.Errorf("expected int, got non-integral float %v", v)
		default:
			return nil, fmt.Errorf("expected int, got %T", value)
		}
	case KindNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
	case KindObject:
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		return nil, fmt.Errorf("expected object, got %T", value)
	case KindArray:
		if a, ok := value.([]any); ok {
			return a, nil
		}
		return nil, fmt.Errorf("expected array, got %T", value)
	default:
		return nil, fmt.Errorf("unknown kind %q", b.kind)
	}
}
