package osc

import "testing"

func mustParse(t *testing.T, seq string) Command {
	t.Helper()
	return NewParser(nil).Parse(seq)
}

func TestParseRunCommand(t *testing.T) {
	cmd := mustParse(t, "666666;run -x 10 -y 20 -w 40 -h 8 -c plot --name wave;extra-card-args;aGVsbG8=")
	if cmd.Err != nil {
		t.Fatalf("parse error: %v", cmd.Err)
	}
	if cmd.Type != CommandRun {
		t.Fatalf("type = %v, want CommandRun", cmd.Type)
	}
	want := RunArgs{X: 10, Y: 20, Width: 40, Height: 8, Card: "plot", Name: "wave"}
	if cmd.Run != want {
		t.Fatalf("run args = %+v, want %+v", cmd.Run, want)
	}
	if cmd.CardArgs != "extra-card-args" {
		t.Fatalf("card args = %q", cmd.CardArgs)
	}
	if string(cmd.Payload) != "hello" {
		t.Fatalf("payload = %q, want hello", cmd.Payload)
	}
}

func TestParseRunMissingCardIsError(t *testing.T) {
	cmd := mustParse(t, "666666;run -x 1")
	if cmd.Err == nil {
		t.Fatalf("expected error for missing --card")
	}
}

func TestParseUnknownVendorIsError(t *testing.T) {
	cmd := mustParse(t, "1;run -c plot")
	if cmd.Err == nil {
		t.Fatalf("expected error for unknown vendor")
	}
}

func TestParseUnknownCommandIsError(t *testing.T) {
	cmd := mustParse(t, "666666;frobnicate")
	if cmd.Err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestParseListAll(t *testing.T) {
	cmd := mustParse(t, "666666;ls --all")
	if cmd.Err != nil || cmd.Type != CommandList || !cmd.List.All {
		t.Fatalf("ls --all parse = %+v, err=%v", cmd, cmd.Err)
	}
}

func TestParseKillByID(t *testing.T) {
	cmd := mustParse(t, "666666;kill --id abc12345")
	if cmd.Err != nil || cmd.Target.ID != "abc12345" {
		t.Fatalf("kill parse = %+v, err=%v", cmd, cmd.Err)
	}
}

func TestParseTargetRequiresSomething(t *testing.T) {
	cmd := mustParse(t, "666666;stop")
	if cmd.Err == nil {
		t.Fatalf("expected error for stop with no target")
	}
}

func TestSplitFieldsRespectsQuotesAndBraces(t *testing.T) {
	fields := splitFields(`666666;run -c plot -n "a;b";{c;d};payload;with;semis`)
	if len(fields) != 4 {
		t.Fatalf("fields = %v, want 4", fields)
	}
	if fields[0] != "666666" {
		t.Fatalf("fields[0] = %q", fields[0])
	}
	if fields[1] != `run -c plot -n "a;b"` {
		t.Fatalf("fields[1] = %q", fields[1])
	}
	if fields[2] != "{c;d}" {
		t.Fatalf("fields[2] = %q", fields[2])
	}
	if fields[3] != "payload;with;semis" {
		t.Fatalf("fields[3] = %q, want payload kept intact with semicolons", fields[3])
	}
}

func TestTokenizeRespectsQuotes(t *testing.T) {
	tokens := tokenize(`"hello world" --foo bar`)
	want := []string{"hello world", "--foo", "bar"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestGenerateIDConsultsKnownIDsAndHasValidShape(t *testing.T) {
	calls := 0
	p := NewParser(func() map[string]bool {
		calls++
		return nil
	})
	id := p.GenerateID()
	if calls == 0 {
		t.Fatalf("GenerateID never consulted knownIDs")
	}
	if len(id) != idLength {
		t.Fatalf("id %q has length %d, want %d", id, len(id), idLength)
	}
	for _, r := range id {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			t.Fatalf("id %q contains disallowed rune %q", id, r)
		}
	}
}

func TestGenerateIDUniqueAcrossManyCalls(t *testing.T) {
	seen := make(map[string]bool)
	p := NewParser(func() map[string]bool { return seen })
	for i := 0; i < 50; i++ {
		id := p.GenerateID()
		if seen[id] {
			t.Fatalf("GenerateID produced a duplicate despite collision checking: %q", id)
		}
		seen[id] = true
	}
}

func TestParseMalformedVendorIDIsError(t *testing.T) {
	cmd := mustParse(t, "not-a-number;run -c plot")
	if cmd.Err == nil {
		t.Fatalf("expected error for non-numeric vendor id")
	}
}
