package signal

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"regime-radar/internal/domain"
)

func findRule(t *testing.T, statuses []domain.RuleStatus, name string) domain.RuleStatus {
	t.Helper()
	for _, s := range statuses {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("rule %q not found", name)
	return domain.RuleStatus{}
}

func TestRulePriceAboveShortSMALowVIX(t *testing.T) {
	lv := domain.Levels{Price: 5000, VIX: 12, SMA90: 4950, SMA125: 4950, SMA150: 4950}
	statuses := NewEngine().Evaluate(lv)

	m2k := findRule(t, statuses, "M2K SHORT")
	if !m2k.Active {
		t.Fatal("expected M2K SHORT active for price above SMA90 and VIX below 15")
	}
	if !strings.Contains(m2k.Margin, "+1.01%") {
		t.Fatalf("expected margin reporting price 1.01%% above SMA90, got %q", m2k.Margin)
	}
	if !strings.Contains(m2k.Margin, "VIX 12.00 (<15)") {
		t.Fatalf("unexpected vix margin: %q", m2k.Margin)
	}
}

func TestRulePriceBelowLongSMAHighVIX(t *testing.T) {
	lv := domain.Levels{Price: 4800, VIX: 25, SMA90: 4900, SMA125: 4900, SMA150: 4900}
	statuses := NewEngine().Evaluate(lv)

	mnq := findRule(t, statuses, "MNQ SHORT")
	if !mnq.Active {
		t.Fatal("expected MNQ SHORT active for price below SMA150 and VIX above 20")
	}
	if Classify(lv) != domain.RegimeRiskOff {
		t.Fatalf("expected risk-off, got %s", Classify(lv))
	}
}

func TestRuleUndefinedSMARendersDash(t *testing.T) {
	lv := domain.Levels{Price: 5000, VIX: 12, SMA90: 4950, SMA125: 0, SMA150: 4950}
	statuses := NewEngine().Evaluate(lv)

	mes := findRule(t, statuses, "MES SHORT")
	if !strings.Contains(mes.Margin, "—") {
		t.Fatalf("expected undefined margin against zero SMA125, got %q", mes.Margin)
	}
}

func TestRuleNaNSMANeverActivates(t *testing.T) {
	lv := domain.Levels{Price: 5000, VIX: 12, SMA90: math.NaN(), SMA125: math.NaN(), SMA150: math.NaN()}
	for _, s := range NewEngine().Evaluate(lv) {
		if s.Active {
			t.Fatalf("rule %s active against undefined averages", s.Name)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	lv := domain.Levels{Price: 5100, VIX: 18, SMA90: 5000, SMA125: 5050, SMA150: 5080}
	first := NewEngine().Evaluate(lv)
	second := NewEngine().Evaluate(lv)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical output for identical inputs")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		lv   domain.Levels
		want domain.Regime
	}{
		{"risk-on", domain.Levels{Price: 5100, VIX: 15, SMA125: 5000, SMA150: 5000}, domain.RegimeRiskOn},
		{"risk-off on vix even above sma125", domain.Levels{Price: 5100, VIX: 25, SMA125: 5000, SMA150: 5000}, domain.RegimeRiskOff},
		{"risk-off on price below sma150", domain.Levels{Price: 4800, VIX: 12, SMA125: 4900, SMA150: 4900}, domain.RegimeRiskOff},
		{"neutral between the averages", domain.Levels{Price: 4950, VIX: 18, SMA125: 5000, SMA150: 4900}, domain.RegimeNeutral},
		{"neutral on exact thresholds", domain.Levels{Price: 5000, VIX: 20, SMA125: 5000, SMA150: 5000}, domain.RegimeNeutral},
	}
	for _, tc := range cases {
		if got := Classify(tc.lv); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestClassifyTotalAndExclusive(t *testing.T) {
	prices := []float64{4800, 4950, 5000, 5050, 5200}
	vixes := []float64{10, 15, 19.9, 20, 20.1, 30}
	smas := []float64{4900, 5000, 5100}

	for _, p := range prices {
		for _, v := range vixes {
			for _, s125 := range smas {
				for _, s150 := range smas {
					lv := domain.Levels{Price: p, VIX: v, SMA125: s125, SMA150: s150}
					switch Classify(lv) {
					case domain.RegimeRiskOn, domain.RegimeNeutral, domain.RegimeRiskOff:
					default:
						t.Fatalf("classification not total for %+v", lv)
					}
				}
			}
		}
	}
}
