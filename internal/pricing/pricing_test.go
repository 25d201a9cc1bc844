package pricing

import "testing"

func TestComputeNoRedemption(t *testing.T) {
	q, err := Compute(Input{BasePrice: 150000, RequestedPoints: 0, AvailablePoints: 0, ServicePoints: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.FinalAmount != 150000 {
		t.Errorf("final = %d, want 150000", q.FinalAmount)
	}
	if q.Commission != 22500 {
		t.Errorf("commission = %d, want 22500", q.Commission)
	}
	if q.ProviderEarning != 127500 {
		t.Errorf("provider earning = %d, want 127500", q.ProviderEarning)
	}
	if q.PointsEarned != 15 {
		t.Errorf("points earned = %d, want 15", q.PointsEarned)
	}
}

func TestComputeDiscountCappedAt30Percent(t *testing.T) {
	// Base 1500.00, client holds 1000 points and asks for all of them.
	// Cap is 450.00, so only 450 points are used.
	q, err := Compute(Input{BasePrice: 150000, RequestedPoints: 1000, AvailablePoints: 1000, ServicePoints: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PointsUsed != 450 {
		t.Errorf("points used = %d, want 450", q.PointsUsed)
	}
	if q.Discount != 45000 {
		t.Errorf("discount = %d, want 45000", q.Discount)
	}
	if q.FinalAmount != 105000 {
		t.Errorf("final = %d, want 105000", q.FinalAmount)
	}
	if q.Commission != 15750 {
		t.Errorf("commission = %d, want 15750", q.Commission)
	}
	if q.ProviderEarning != 89250 {
		t.Errorf("provider earning = %d, want 89250", q.ProviderEarning)
	}
}

func TestComputeLimitedByBalance(t *testing.T) {
	q, err := Compute(Input{BasePrice: 150000, RequestedPoints: 300, AvailablePoints: 120, ServicePoints: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PointsUsed != 120 {
		t.Errorf("points used = %d, want 120", q.PointsUsed)
	}
	if q.FinalAmount != 138000 {
		t.Errorf("final = %d, want 138000", q.FinalAmount)
	}
}

func TestComputeSettlementAlwaysBalances(t *testing.T) {
	cases := []Input{
		{BasePrice: 99, RequestedPoints: 0},
		{BasePrice: 101, RequestedPoints: 0},
		{BasePrice: 333333, RequestedPoints: 1000, AvailablePoints: 1000},
		{BasePrice: 1, RequestedPoints: 50, AvailablePoints: 50},
		{BasePrice: 1234567, RequestedPoints: 5000, AvailablePoints: 200},
	}
	for _, in := range cases {
		q, err := Compute(in)
		if err != nil {
			t.Fatalf("Compute(%+v): %v", in, err)
		}
		if q.Commission+q.ProviderEarning != q.FinalAmount {
			t.Errorf("Compute(%+v): commission %d + earning %d != final %d", in, q.Commission, q.ProviderEarning, q.FinalAmount)
		}
		if q.Discount > in.BasePrice*MaxDiscountBps/10000 {
			t.Errorf("Compute(%+v): discount %d exceeds cap", in, q.Discount)
		}
		if q.FinalAmount <= 0 {
			t.Errorf("Compute(%+v): final %d not positive", in, q.FinalAmount)
		}
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	if _, err := Compute(Input{BasePrice: 0}); err != ErrInvalidBasePrice {
		t.Errorf("zero base: err = %v, want ErrInvalidBasePrice", err)
	}
	if _, err := Compute(Input{BasePrice: -100}); err != ErrInvalidBasePrice {
		t.Errorf("negative base: err = %v, want ErrInvalidBasePrice", err)
	}
	if _, err := Compute(Input{BasePrice: 100, RequestedPoints: -1}); err != ErrNegativePoints {
		t.Errorf("negative points: err = %v, want ErrNegativePoints", err)
	}
}
