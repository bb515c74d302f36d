package ptr

import "testing"

func TestDeref(t *testing.T) {
	if got := Deref[int](nil, 7); got != 7 {
		t.Errorf("Deref(nil) = %d, want 7", got)
	}
	if got := Deref(To(3), 7); got != 3 {
		t.Errorf("Deref(To(3)) = %d, want 3", got)
	}
}
