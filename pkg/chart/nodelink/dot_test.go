package nodelink

import (
	"strings"
	"testing"

	"github.com/mbertrand/alluvial/pkg/chart"
	"github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/flow"
)

func testDataset() flow.Dataset {
	return flow.Dataset{
		Nodes: []flow.Node{
			{Time: 1, Category: 1, Size: 10, CategoryLabel: "Employed"},
			{Time: 1, Category: 2, Size: 5, CategoryLabel: "Unemployed"},
			{Time: 2, Category: 1, Size: 8, CategoryLabel: "Employed"},
			{Time: 2, Category: 2, Size: 7, CategoryLabel: "Unemployed"},
		},
		Links: []flow.Link{
			{Time1: 1, Category1: 1, Time2: 2, Category2: 1, Thickness: 8},
			{Time1: 1, Category1: 2, Time2: 2, Category2: 2, Thickness: 5},
			{Time1: 1, Category1: 2, Time2: 2, Category2: 1, Thickness: 2},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot, err := ToDOT(testDataset(), chart.Default(), Options{})
	if err != nil {
		t.Fatalf("ToDOT() error: %v", err)
	}

	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("missing left-to-right layout")
	}
	for _, id := range []string{`"t1_c1"`, `"t1_c2"`, `"t2_c1"`, `"t2_c2"`} {
		if !strings.Contains(dot, id) {
			t.Errorf("missing node %s", id)
		}
	}
	if !strings.Contains(dot, `"t1_c1" -> "t2_c1"`) {
		t.Error("missing edge for link (1,1)->(2,1)")
	}
	if !strings.Contains(dot, `label="Employed"`) {
		t.Error("category label not used")
	}
	if !strings.Contains(dot, `fillcolor="#8dd3c7"`) {
		t.Error("category color not assigned positionally")
	}
	if strings.Contains(dot, "n=10") {
		t.Error("detailed labels emitted without Detailed option")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot, err := ToDOT(testDataset(), chart.Default(), Options{Detailed: true})
	if err != nil {
		t.Fatalf("ToDOT() error: %v", err)
	}
	if !strings.Contains(dot, "n=10 (66.7%)") {
		t.Errorf("detailed label missing size and share:\n%s", dot)
	}
}

func TestToDOTPenWidth(t *testing.T) {
	dot, err := ToDOT(testDataset(), chart.Default(), Options{})
	if err != nil {
		t.Fatalf("ToDOT() error: %v", err)
	}
	// thickness 8 of 15: 0.5 + 10*8/15 = 5.83
	if !strings.Contains(dot, "penwidth=5.83") {
		t.Errorf("edge pen width not proportional to share:\n%s", dot)
	}
}

func TestToDOTValidates(t *testing.T) {
	bad := testDataset()
	bad.Nodes[0].Size = 100 // time sums no longer agree

	_, err := ToDOT(bad, chart.Default(), Options{})
	if errors.GetCode(err) != errors.ErrCodeConfig {
		t.Errorf("expected %s, got %v", errors.ErrCodeConfig, err)
	}

	_, err = ToDOT(flow.Dataset{}, chart.Default(), Options{})
	if errors.GetCode(err) != errors.ErrCodeInputMissing {
		t.Errorf("expected %s for empty dataset, got %v", errors.ErrCodeInputMissing, err)
	}
}
