package typereg_test

import (
	"strings"
	"testing"

	"github.com/flowcore-go/flowcore/typereg"
)

func TestBuiltinResolveAndValidate(t *testing.T) {
	r := typereg.NewRegistry()
	h, err := r.Resolve("int")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Validate("abc"); err == nil {
		t.Fatal("expected validation error for non-int value")
	}
	v, err := h.Validate(float64(3))
	if err != nil || v != 3 {
		t.Fatalf("Validate(3.0) = %v, %v; want 3, nil", v, err)
	}
}

func TestUnclaimedDescriptorFails(t *testing.T) {
	r := typereg.NewRegistry()
	if _, err := r.Resolve("widget"); err == nil {
		t.Fatal("expected TypeHandlerError for unclaimed descriptor")
	}
}

type upperHandler struct{}

func (upperHandler) Claim(descriptor string) bool { return descriptor == "upper" }
func (upperHandler) Validate(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, errNotString
	}
	return strings.ToUpper(s), nil
}
func (upperHandler) ToPrimitive(value any) (any, error) { return value, nil }
func (upperHandler) ToNative(primitive any) (any, error) {
	s, _ := primitive.(string)
	return s, nil
}
func (upperHandler) GetSpec() typereg.Spec { return typereg.Spec{Type: typereg.KindString} }

type errString string

func (e errString) Error() string { return string(e) }

const errNotString = errString("not a string")

func TestRegisterCustomHandlerEnvelopeRoundTrip(t *testing.T) {
	r := typereg.NewRegistry()
	r.Register(upperHandler{})

	data, err := r.Marshal("upper", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"kind":"upper"`) {
		t.Fatalf("expected envelope with kind=upper, got %s", data)
	}

	kind, value, err := r.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if kind != "upper" || value != "HELLO" {
		t.Fatalf("round-trip got kind=%q value=%v", kind, value)
	}
}

func TestBuiltinSerializesBare(t *testing.T) {
	r := typereg.NewRegistry()
	data, err := r.Marshal("string", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"hi"` {
		t.Fatalf("builtin string should serialize bare, got %s", data)
	}
}
