package orderregistry

import (
	"errors"
	"testing"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

type fakeFactory struct {
	std         types.OrderStandard
	sigs        [][32]byte
	validateErr error
	parseErr    error
	order       *types.Order
}

func (f *fakeFactory) Standard() types.OrderStandard  { return f.std }
func (f *fakeFactory) EventSignatures() [][32]byte    { return f.sigs }
func (f *fakeFactory) ValidateFormat(raw []byte) error { return f.validateErr }
func (f *fakeFactory) Parse(raw []byte) (*types.Order, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.order, nil
}
func (f *fakeFactory) ToFillInstructions(order *types.Order) ([]types.FillInstruction, error) {
	return nil, nil
}
func (f *fakeFactory) GenerateFillTransaction(order *types.Order, params types.ExecutionParams) (*types.Transaction, error) {
	return nil, nil
}
func (f *fakeFactory) GenerateClaimTransaction(order *types.Order, proof *types.FillProof) (*types.Transaction, error) {
	return nil, nil
}

func TestRegistry_ParseWithHintDispatchesDirectly(t *testing.T) {
	r := New()
	want := &types.Order{Standard: "std-a"}
	r.Register(&fakeFactory{std: "std-a", order: want})
	r.Register(&fakeFactory{std: "std-b", validateErr: errors.New("never tried")})

	got, err := r.Parse([]byte("x"), "std-a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != want {
		t.Fatalf("got a different order back")
	}
}

func TestRegistry_ParseFallsThroughOnHintFailure(t *testing.T) {
	r := New()
	want := &types.Order{Standard: "std-b"}
	r.Register(&fakeFactory{std: "std-a", parseErr: errors.New("bad hint match")})
	r.Register(&fakeFactory{std: "std-b", order: want})

	got, err := r.Parse([]byte("x"), "std-a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != want {
		t.Fatal("expected fallback to std-b's factory")
	}
}

func TestRegistry_ParseTriesAllInRegistrationOrder(t *testing.T) {
	r := New()
	want := &types.Order{Standard: "std-b"}
	r.Register(&fakeFactory{std: "std-a", validateErr: errors.New("format mismatch")})
	r.Register(&fakeFactory{std: "std-b", order: want})

	got, err := r.Parse([]byte("x"), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != want {
		t.Fatal("expected std-b's order")
	}
}

func TestRegistry_ParseReturnsParseErrorWhenNoFactoryMatches(t *testing.T) {
	r := New()
	r.Register(&fakeFactory{std: "std-a", validateErr: errors.New("nope")})

	_, err := r.Parse([]byte("x"), "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if solvererr.KindOf(err) != solvererr.KindParse {
		t.Fatalf("KindOf(err) = %v, want KindParse", solvererr.KindOf(err))
	}
}

func TestRegistry_EventSignaturesAggregatesAllFactories(t *testing.T) {
	r := New()
	r.Register(&fakeFactory{std: "std-a", sigs: [][32]byte{{1}}})
	r.Register(&fakeFactory{std: "std-b", sigs: [][32]byte{{2}, {3}}})

	sigs := r.EventSignatures()
	if len(sigs) != 3 {
		t.Fatalf("expected 3 aggregated signatures, got %d", len(sigs))
	}
}

func TestRegistry_FactoryForUnknownStandard(t *testing.T) {
	r := New()
	if _, ok := r.FactoryFor("nope"); ok {
		t.Fatal("expected FactoryFor to report not-found for an unregistered standard")
	}
}

func TestRegistry_RegisterTwiceReplacesButKeepsPosition(t *testing.T) {
	r := New()
	first := &types.Order{Standard: "std-a-v1"}
	second := &types.Order{Standard: "std-a-v2"}
	r.Register(&fakeFactory{std: "std-a", order: first})
	r.Register(&fakeFactory{std: "std-a", order: second})

	got, err := r.Parse([]byte("x"), "std-a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != second {
		t.Fatal("expected re-registration to replace the factory")
	}
}
