package state

import (
	"testing"
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

func TestComputePriority_Baseline(t *testing.T) {
	now := time.Now()
	got := ComputePriority(types.UrgencyNormal, 0, now, now)
	if got != 50 {
		t.Fatalf("baseline score = %d, want 50", got)
	}
}

func TestComputePriority_Urgency(t *testing.T) {
	now := time.Now()
	cases := []struct {
		urgency types.Urgency
		want    int32
	}{
		{types.UrgencyHigh, 60},
		{types.UrgencyNormal, 50},
		{types.UrgencyLow, 40},
	}
	for _, c := range cases {
		if got := ComputePriority(c.urgency, 0, now, now); got != c.want {
			t.Errorf("urgency %v: score = %d, want %d", c.urgency, got, c.want)
		}
	}
}

func TestComputePriority_Value(t *testing.T) {
	now := time.Now()
	cases := []struct {
		value float64
		want  int32
	}{
		{0, 50},
		{1e4, 50},
		{1e4 + 1, 55},
		{1e5, 55},
		{1e5 + 1, 60},
		{1e6, 60},
		{1e6 + 1, 65},
	}
	for _, c := range cases {
		if got := ComputePriority(types.UrgencyNormal, c.value, now, now); got != c.want {
			t.Errorf("value %v: score = %d, want %d", c.value, got, c.want)
		}
	}
}

func TestComputePriority_Age(t *testing.T) {
	discovered := time.Now()
	cases := []struct {
		age  time.Duration
		want int32
	}{
		{0, 50},
		{10 * time.Minute, 50},
		{10*time.Minute + time.Second, 52},
		{30 * time.Minute, 52},
		{30*time.Minute + time.Second, 55},
		{time.Hour, 55},
		{time.Hour + time.Second, 60},
	}
	for _, c := range cases {
		now := discovered.Add(c.age)
		if got := ComputePriority(types.UrgencyNormal, 0, discovered, now); got != c.want {
			t.Errorf("age %v: score = %d, want %d", c.age, got, c.want)
		}
	}
}

func TestComputePriority_AllComponentsStack(t *testing.T) {
	discovered := time.Now()
	now := discovered.Add(2 * time.Hour)
	got := ComputePriority(types.UrgencyHigh, 2e6, discovered, now)
	want := int32(50 + 10 + 15 + 10)
	if got != want {
		t.Fatalf("stacked score = %d, want %d", got, want)
	}
}

func TestClassifyUrgency_Boundaries(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      types.Urgency
	}{
		{0, types.UrgencyHigh},
		{60 * time.Second, types.UrgencyHigh},
		{61 * time.Second, types.UrgencyNormal},
		{300 * time.Second, types.UrgencyNormal},
		{301 * time.Second, types.UrgencyLow},
		{time.Hour, types.UrgencyLow},
	}
	for _, c := range cases {
		if got := types.ClassifyUrgency(c.remaining); got != c.want {
			t.Errorf("remaining %v: urgency = %v, want %v", c.remaining, got, c.want)
		}
	}
}
