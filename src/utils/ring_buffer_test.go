package utils

import (
	"testing"

	"trader-gateway/src/models"
)

func pushEvents(rb *EventRing, names ...string) {
	for _, n := range names {
		rb.Append(models.MPushEvent{Name: n})
	}
}

func names(events []models.MPushEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Name
	}
	return out
}

func TestEventRing(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		push     []string
		latest   int
		want     []string
	}{
		{"empty", 3, nil, 2, []string{}},
		{"partial", 3, []string{"a", "b"}, 5, []string{"a", "b"}},
		{"wrapped", 3, []string{"a", "b", "c", "d", "e"}, 3, []string{"c", "d", "e"}},
		{"latest subset", 3, []string{"a", "b", "c", "d"}, 2, []string{"c", "d"}},
		{"non positive", 3, []string{"a"}, 0, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rb := NewEventRing(tc.capacity)
			pushEvents(rb, tc.push...)
			got := names(rb.GetLatest(tc.latest))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestEventRingGetAllAndClear(t *testing.T) {
	rb := NewEventRing(0)
	if rb.Capacity() != defaultEventCapacity {
		t.Errorf("capacity = %d", rb.Capacity())
	}
	pushEvents(rb, "a", "b")
	if got := names(rb.GetAll()); len(got) != 2 || got[0] != "a" {
		t.Errorf("GetAll = %v", got)
	}
	rb.Clear()
	if rb.Size() != 0 || len(rb.GetAll()) != 0 {
		t.Error("Clear left events")
	}
}
