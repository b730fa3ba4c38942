package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ponziworld/pwclient-go/internal/domain"
	"github.com/ponziworld/pwclient-go/internal/infra/observability"
	"github.com/ponziworld/pwclient-go/internal/service"
)

func newTestFlow(api *fakeAPI) (*service.TransactionFlow, *service.Reconciler, *service.StatusSignal) {
	rec := newTestReconciler(api)
	status := service.NewStatusSignal()
	flow := service.NewTransactionFlow(api, rec, status, observability.NewMetrics(), zap.NewNop())
	return flow, rec, status
}

func seedHoldings(t *testing.T, rec *service.Reconciler, api *fakeAPI) {
	t.Helper()
	api.bank = testBank()
	api.details["cash-1"] = detail("cash-1", domain.CashAssetName, "500.00", "0")
	api.details["a1"] = detail("a1", "Gold", "100.00", "0")
	api.details["a2"] = detail("a2", "Oil", "0", "0")
	if err := rec.RefreshBank(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := rec.RefreshAllDetails(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestFlow_SellExceedingProjectedHoldingBlocksSubmit(t *testing.T) {
	api := newFakeAPI()
	flow, rec, _ := newTestFlow(api)
	seedHoldings(t, rec, api)

	if err := flow.Begin(service.IntentSell, "a1"); err != nil {
		t.Fatal(err)
	}
	err := flow.SetAmount("150.00")

	var exceeds *domain.ErrExceedsHoldings
	if !errors.As(err, &exceeds) {
		t.Fatalf("expected ErrExceedsHoldings, got %v", err)
	}
	if flow.CanSubmit() {
		t.Error("submit must stay disabled while a validation error stands")
	}
	if err := flow.Submit(context.Background()); err == nil {
		t.Error("Submit must refuse while invalid")
	}
	if len(api.sells) != 0 {
		t.Error("validation errors must never reach the network layer")
	}
}

func TestFlow_BuyExceedingCashBlocksSubmit(t *testing.T) {
	api := newFakeAPI()
	flow, rec, _ := newTestFlow(api)
	seedHoldings(t, rec, api)

	if err := flow.Begin(service.IntentBuy, "a2"); err != nil {
		t.Fatal(err)
	}
	err := flow.SetAmount("500.01")

	var insufficient *domain.ErrInsufficientCash
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
	if insufficient.Available.WireString() != "500" {
		t.Errorf("Available = %s, want the live cash balance", insufficient.Available)
	}
}

func TestFlow_InvalidAmountInputs(t *testing.T) {
	api := newFakeAPI()
	flow, rec, _ := newTestFlow(api)
	seedHoldings(t, rec, api)

	if err := flow.Begin(service.IntentBuy, "a2"); err != nil {
		t.Fatal(err)
	}

	for _, input := range []string{"", "abc", "NaN", "-5", "0"} {
		err := flow.SetAmount(input)
		var invalid *domain.ErrInvalidAmount
		if !errors.As(err, &invalid) {
			t.Errorf("SetAmount(%q): expected ErrInvalidAmount, got %v", input, err)
		}
		if flow.CanSubmit() {
			t.Errorf("SetAmount(%q): submit should be disabled", input)
		}
	}
}

func TestFlow_SellAllIsExactlyProjectedHolding(t *testing.T) {
	api := newFakeAPI()
	flow, rec, _ := newTestFlow(api)
	api.bank = testBank()
	// A pending sell and an awkward fraction: sell-all must still match.
	api.details["cash-1"] = detail("cash-1", domain.CashAssetName, "500.00", "0")
	api.details["a1"] = detail("a1", "Gold", "100.123456789", "-0.000000089")
	api.details["a2"] = detail("a2", "Oil", "0", "0")
	if err := rec.RefreshBank(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := rec.RefreshAllDetails(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := flow.Begin(service.IntentSell, "a1"); err != nil {
		t.Fatal(err)
	}
	if err := flow.SellAll(); err != nil {
		t.Fatal(err)
	}

	amount, err := domain.ParseMoney(flow.Amount())
	if err != nil {
		t.Fatal(err)
	}
	projected, err := rec.Snapshot().Projected("a1")
	if err != nil {
		t.Fatal(err)
	}
	if amount.Compare(projected) != 0 {
		t.Errorf("sell-all amount %s != projected %s", amount, projected)
	}
	if !flow.IsSellAll() {
		t.Error("expected sell-all flag")
	}
	if !flow.CanSubmit() {
		t.Error("sell-all amount must be submittable")
	}
}

func TestFlow_SuccessfulBuyReconcilesInOrder(t *testing.T) {
	api := newFakeAPI()
	flow, rec, _ := newTestFlow(api)
	seedHoldings(t, rec, api)

	// Scenario: bank refresh must complete before any registered per-asset
	// callback fires, and each fires exactly once.
	var order []string
	rec.Registry().Subscribe(func() {
		if rec.Bank() == nil {
			t.Error("callback observed a nil bank aggregate")
		}
		order = append(order, "asset-1")
	})
	rec.Registry().Subscribe(func() { order = append(order, "asset-2") })

	baseline := api.bankFetches

	if err := flow.Begin(service.IntentBuy, "a2"); err != nil {
		t.Fatal(err)
	}
	if err := flow.SetAmount("50.00"); err != nil {
		t.Fatal(err)
	}
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(api.buys) != 1 {
		t.Fatalf("expected 1 buy, got %d", len(api.buys))
	}
	if api.buys[0].Amount.WireString() != "50" {
		t.Errorf("buy amount = %s", api.buys[0].Amount)
	}
	if api.bankFetches != baseline+1 {
		t.Errorf("bank fetched %d times during reconcile, want 1", api.bankFetches-baseline)
	}
	if len(order) != 2 {
		t.Errorf("callbacks fired %d times, want 2 (exactly once each)", len(order))
	}
	if flow.State() != service.FlowIdle {
		t.Errorf("flow state = %v, want idle", flow.State())
	}
}

func TestFlow_FailedSubmissionSurfacesBackendMessageVerbatim(t *testing.T) {
	api := newFakeAPI()
	flow, rec, status := newTestFlow(api)
	seedHoldings(t, rec, api)
	api.sellErr = &domain.ErrRemoteRejected{Status: 400, Message: "Market is closed for the day"}

	if err := flow.Begin(service.IntentSell, "a1"); err != nil {
		t.Fatal(err)
	}
	if err := flow.SetAmount("10.00"); err != nil {
		t.Fatal(err)
	}

	before, err := rec.Snapshot().Projected("a1")
	if err != nil {
		t.Fatal(err)
	}

	submitErr := flow.Submit(context.Background())
	if submitErr == nil {
		t.Fatal("expected submission to fail")
	}
	if submitErr.Error() != "Market is closed for the day" {
		t.Errorf("error = %q, want the backend message verbatim", submitErr.Error())
	}

	// No optimistic mutation: the snapshot is untouched.
	after, err := rec.Snapshot().Projected("a1")
	if err != nil {
		t.Fatal(err)
	}
	if before.Compare(after) != 0 {
		t.Errorf("snapshot mutated on failure: %s -> %s", before, after)
	}

	st, msg := status.Current()
	if st != service.StatusError || msg != "Market is closed for the day" {
		t.Errorf("status = %v %q", st, msg)
	}
	if flow.State() != service.FlowIdle {
		t.Errorf("flow state = %v, want idle after failure", flow.State())
	}
}

func TestFlow_SingleFlightSubmission(t *testing.T) {
	api := newFakeAPI()
	flow, rec, status := newTestFlow(api)
	seedHoldings(t, rec, api)

	// Simulate an in-flight submission holding the global status.
	if !status.BeginLoading("buy in progress") {
		t.Fatal("failed to enter loading state")
	}

	if err := flow.Begin(service.IntentBuy, "a2"); err != nil {
		t.Fatal(err)
	}
	if err := flow.SetAmount("10.00"); err != nil {
		t.Fatal(err)
	}

	err := flow.Submit(context.Background())
	var inFlight *domain.ErrSubmissionInFlight
	if !errors.As(err, &inFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if len(api.buys) != 0 {
		t.Error("second submission must not reach the backend")
	}
}

func TestFlow_CancelDiscardsEnteredState(t *testing.T) {
	api := newFakeAPI()
	flow, rec, _ := newTestFlow(api)
	seedHoldings(t, rec, api)

	if err := flow.Begin(service.IntentBuy, "a2"); err != nil {
		t.Fatal(err)
	}
	if err := flow.SetAmount("42.00"); err != nil {
		t.Fatal(err)
	}
	if err := flow.Cancel(); err != nil {
		t.Fatal(err)
	}

	if flow.Amount() != "" {
		t.Error("expected entered amount to be discarded")
	}
	if flow.State() != service.FlowIdle {
		t.Errorf("state = %v, want idle", flow.State())
	}
}

func TestStatusSignal_CannotDismissWhileLoading(t *testing.T) {
	status := service.NewStatusSignal()

	if !status.BeginLoading("working") {
		t.Fatal("BeginLoading refused on idle signal")
	}
	if status.Dismiss() {
		t.Error("loading status must not be dismissable")
	}

	status.Resolve(service.StatusSuccess, "done")
	if !status.Dismiss() {
		t.Error("resolved status must be dismissable")
	}
}
