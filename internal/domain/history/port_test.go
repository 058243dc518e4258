package history

import "testing"

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 500, 1, 100},
	}
	for _, c := range cases {
		p, s := NormalizePage(c.page, c.size)
		if p != c.wantPage || s != c.wantSize {
			t.Errorf("NormalizePage(%d, %d) = %d, %d; want %d, %d", c.page, c.size, p, s, c.wantPage, c.wantSize)
		}
	}
}
