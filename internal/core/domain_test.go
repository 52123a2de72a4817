package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateInMonth(t *testing.T) {
	june := YearMonth{Year: 2024, Month: time.June}
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2024, 6, 1), true},
		{NewDate(2024, 6, 30), true},
		{NewDate(2024, 5, 15), false},
		{NewDate(2023, 6, 15), false},
		{Date{}, false}, // zero date
	}
	for i, tc := range cases {
		if got := tc.d.InMonth(june); got != tc.ok {
			t.Fatalf("case %d: InMonth=%v, want %v", i, got, tc.ok)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var s Schedule
	if err := json.Unmarshal([]byte(`{"data":"2024-06-01","horas_trabalho":4.5}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Date.String() != "2024-06-01" || s.Hours != 4.5 {
		t.Fatalf("unexpected schedule: %+v", s)
	}

	// Timestamps and bare months are accepted; garbage is the zero date.
	inputs := map[string]string{
		`"2024-06-01T10:00:00Z"`: "2024-06-01",
		`"2024-06"`:              "2024-06-01",
		`"not a date"`:           "",
		`null`:                   "",
		`42`:                     "",
	}
	for in, want := range inputs {
		var d Date
		if err := d.UnmarshalJSON([]byte(in)); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if d.String() != want {
			t.Fatalf("%s: got %q, want %q", in, d.String(), want)
		}
	}

	out, err := json.Marshal(Date{})
	if err != nil || string(out) != "null" {
		t.Fatalf("zero date should marshal as null, got %s (%v)", out, err)
	}
}

func TestParseYearMonth(t *testing.T) {
	cases := []struct {
		in   string
		want YearMonth
		ok   bool
	}{
		{"2024-06", YearMonth{2024, time.June}, true},
		{" 2024-12 ", YearMonth{2024, time.December}, true},
		{"", YearMonth{}, true},
		{"2024-13", YearMonth{}, false},
		{"24-06", YearMonth{}, false},
		{"2024/06", YearMonth{}, false},
	}
	for _, tc := range cases {
		got, err := ParseYearMonth(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v (err=%v), want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
	if (YearMonth{2024, time.June}).String() != "2024-06" {
		t.Fatalf("unexpected String()")
	}
}

func TestValidate(t *testing.T) {
	good := []interface{ Validate() error }{
		Staff{Name: "Maria", TaxID: "123"},
		Condominium{Name: "Primavera", Address: "Rua A"},
		Schedule{Date: NewDate(2024, 6, 1), Hours: 4},
		Absence{Date: NewDate(2024, 6, 1)},
	}
	for i, v := range good {
		if err := v.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}

	bads := []interface{ Validate() error }{
		Staff{TaxID: "123"},
		Staff{Name: "Maria", TaxID: "  "},
		Condominium{Name: "Primavera"},
		Condominium{Address: "Rua A"},
		Schedule{Hours: 4},
		Schedule{Date: NewDate(2024, 6, 1), Hours: -1},
		Absence{},
	}
	for i, v := range bads {
		if err := v.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
