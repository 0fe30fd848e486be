package fieldpath

import "testing"

func TestResolveNestedPath(t *testing.T) {
	payload := map[string]any{
		"lead": map[string]any{
			"status": "qualified",
			"score":  42.0,
		},
	}

	value, ok := Path("lead.status").Resolve(payload)
	if !ok {
		t.Fatal("expected lead.status to be present")
	}
	if value != "qualified" {
		t.Fatalf("expected qualified, got %v", value)
	}
}

func TestResolveTopLevelKey(t *testing.T) {
	payload := map[string]any{"source": "webform"}

	value, ok := Path("source").Resolve(payload)
	if !ok || value != "webform" {
		t.Fatalf("expected webform present, got %v, %v", value, ok)
	}
}

func TestResolveMissingSegmentIsAbsent(t *testing.T) {
	payload := map[string]any{
		"lead": map[string]any{"status": "new"},
	}

	for _, path := range []string{"lead.missing", "missing", "lead.status.deeper", "lead.missing.deeper"} {
		if _, ok := Path(path).Resolve(payload); ok {
			t.Fatalf("expected %q to be absent", path)
		}
	}
}

func TestResolvePresentNilValue(t *testing.T) {
	payload := map[string]any{"note": nil}

	value, ok := Path("note").Resolve(payload)
	if !ok {
		t.Fatal("expected nil-valued key to be present")
	}
	if value != nil {
		t.Fatalf("expected nil value, got %v", value)
	}
}

func TestResolveEmptyPathAndNilPayload(t *testing.T) {
	if _, ok := Path("").Resolve(map[string]any{"a": 1}); ok {
		t.Fatal("expected empty path to be absent")
	}
	if _, ok := Path("a").Resolve(nil); ok {
		t.Fatal("expected nil payload to resolve to absent")
	}
}
