package helper

import (
	"strings"
	"testing"
)

func TestIsMoneyFormat(t *testing.T) {
	valid := []string{"0", "1", "10", "10.5", "10.55", "0.01", "999999.99", " 25 "}
	for _, s := range valid {
		if !IsMoneyFormat(s) {
			t.Errorf("expected valid: %q", s)
		}
	}
	invalid := []string{"", "abc", "-5", "1.234", "01", ".5", "1.", "+3", "1e3"}
	for _, s := range invalid {
		if IsMoneyFormat(s) {
			t.Errorf("expected invalid: %q", s)
		}
	}
}

func TestValidatePlay(t *testing.T) {
	cases := []struct {
		name string
		in   PlayParsed
		ok   bool
	}{
		{"rocket ok", PlayParsed{Game: "rocket", BetAmount: "10", IdempotencyKey: "k1"}, true},
		{"slots ok", PlayParsed{Game: "slots", BetAmount: "0.5", IdempotencyKey: "k2"}, true},
		{"game case insensitive", PlayParsed{Game: "Rocket", BetAmount: "10", IdempotencyKey: "k3"}, true},
		{"tower start", PlayParsed{Game: "tower", Action: "start", BetAmount: "10", IdempotencyKey: "k4"}, true},
		{"tower build level 3", PlayParsed{Game: "tower", Action: "build", Level: 3, BetAmount: "10", IdempotencyKey: "k5"}, true},
		{"tower cashout level 1", PlayParsed{Game: "tower", Action: "cashout", Level: 1, BetAmount: "10", IdempotencyKey: "k6"}, true},

		{"missing game", PlayParsed{BetAmount: "10", IdempotencyKey: "k"}, false},
		{"unknown game", PlayParsed{Game: "poker", BetAmount: "10", IdempotencyKey: "k"}, false},
		{"missing amount", PlayParsed{Game: "rocket", IdempotencyKey: "k"}, false},
		{"bad amount", PlayParsed{Game: "rocket", BetAmount: "1.234", IdempotencyKey: "k"}, false},
		{"missing idem key", PlayParsed{Game: "rocket", BetAmount: "10"}, false},
		{"idem key too long", PlayParsed{Game: "rocket", BetAmount: "10", IdempotencyKey: strings.Repeat("x", 65)}, false},
		{"tower no action", PlayParsed{Game: "tower", BetAmount: "10", IdempotencyKey: "k"}, false},
		{"tower bad action", PlayParsed{Game: "tower", Action: "jump", BetAmount: "10", IdempotencyKey: "k"}, false},
		{"tower build level 0", PlayParsed{Game: "tower", Action: "build", Level: 0, BetAmount: "10", IdempotencyKey: "k"}, false},
		{"action on rocket", PlayParsed{Game: "rocket", Action: "build", BetAmount: "10", IdempotencyKey: "k"}, false},
	}
	for _, c := range cases {
		in := c.in
		ok, msg := ValidatePlay(&in)
		if ok != c.ok {
			t.Errorf("%s: got ok=%v msg=%q, want ok=%v", c.name, ok, msg, c.ok)
		}
		if !ok && msg == "" {
			t.Errorf("%s: rejection must carry a message", c.name)
		}
	}
}

func TestValidatePlayNormalizes(t *testing.T) {
	in := PlayParsed{Game: " TOWER ", Action: " Start ", BetAmount: " 10 ", IdempotencyKey: " k "}
	ok, msg := ValidatePlay(&in)
	if !ok {
		t.Fatalf("unexpected rejection: %s", msg)
	}
	if in.Game != "tower" || in.Action != "start" || in.BetAmount != "10" || in.IdempotencyKey != "k" {
		t.Fatalf("fields not normalized: %+v", in)
	}
}

func TestParsePlayFromJSON(t *testing.T) {
	body := `{"game":"slots","bet_amount":"2.50","idempotency_key":"abc"}`
	out, ok, _ := ParsePlayFromJSON(strings.NewReader(body))
	if !ok {
		t.Fatal("expected parse success")
	}
	if out.Game != "slots" || out.BetAmount != "2.50" || out.IdempotencyKey != "abc" {
		t.Fatalf("unexpected parse result: %+v", out)
	}

	if _, ok, msg := ParsePlayFromJSON(strings.NewReader("{broken")); ok || msg == "" {
		t.Fatal("expected parse failure with message")
	}
}
