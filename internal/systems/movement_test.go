package systems

import (
	"math"
	"testing"

	"isekai-server/internal/domain"
)

func TestValidateMove(t *testing.T) {
	start := domain.Position{X: 1200, Y: 1200}

	// Ровно на границе - принимается
	res := ValidateMove(start, domain.Position{X: 1210, Y: 1200}, domain.MaxMoveDistance)
	if !res.Accepted {
		t.Fatalf("move of exactly max distance must be accepted, got %+v", res)
	}
	if res.Pos.X != 1210 {
		t.Errorf("expected new X 1210, got %v", res.Pos.X)
	}

	// На единицу дальше - отказ, позиция прежняя
	res = ValidateMove(start, domain.Position{X: 1211, Y: 1200}, domain.MaxMoveDistance)
	if res.Accepted {
		t.Fatal("move beyond max distance must be rejected")
	}
	if res.Pos != start {
		t.Errorf("rejected move must echo server position, got %+v", res.Pos)
	}

	// Диагональ 6-8-10
	res = ValidateMove(start, domain.Position{X: 1206, Y: 1208}, domain.MaxMoveDistance)
	if !res.Accepted {
		t.Error("diagonal 6/8 is exactly 10 and must be accepted")
	}
}

func TestValidateMove_RejectsNonFinite(t *testing.T) {
	start := domain.Position{X: 5, Y: 5}
	for _, p := range []domain.Position{
		{X: math.NaN(), Y: 5},
		{X: 5, Y: math.Inf(1)},
	} {
		if res := ValidateMove(start, p, domain.MaxMoveDistance); res.Accepted {
			t.Errorf("non-finite position %+v accepted", p)
		}
	}
}
