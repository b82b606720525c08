// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "testing"

func TestV3(t *testing.T) {
	a := V3{1, 2, 3}
	b := V3{4, -1, 0}

	var add V3
	add.Add(&a, &b)
	if add != (V3{5, 1, 3}) {
		t.Fatalf("V3.Add:\nhave %v\nwant %v", add, V3{5, 1, 3})
	}

	var sub V3
	sub.Sub(&a, &b)
	if sub != (V3{-3, 3, 3}) {
		t.Fatalf("V3.Sub:\nhave %v\nwant %v", sub, V3{-3, 3, 3})
	}

	if d := a.Dot(&b); d != 2 {
		t.Fatalf("V3.Dot:\nhave %v\nwant %v", d, 2)
	}

	var cr V3
	cr.Cross(&V3{1, 0, 0}, &V3{0, 1, 0})
	if cr != (V3{0, 0, 1}) {
		t.Fatalf("V3.Cross:\nhave %v\nwant %v", cr, V3{0, 0, 1})
	}
}

func TestV3MinMax(t *testing.T) {
	a := V3{1, 5, -2}
	b := V3{4, -1, 3}

	var min, max V3
	min.Min(&a, &b)
	max.Max(&a, &b)

	if min != (V3{1, -1, -2}) {
		t.Fatalf("V3.Min:\nhave %v\nwant %v", min, V3{1, -1, -2})
	}
	if max != (V3{4, 5, 3}) {
		t.Fatalf("V3.Max:\nhave %v\nwant %v", max, V3{4, 5, 3})
	}
}
