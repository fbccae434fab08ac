package notifications

import "testing"

func TestQueuedKeepsDeclaredTypes(t *testing.T) {
	for _, typ := range []string{TypeInfo, TypeWarning, TypeError, TypeSuccess} {
		q := Queued("Title", "Message", typ)
		if q.Type != typ {
			t.Errorf("Queued(%q).Type = %q, want %q", typ, q.Type, typ)
		}
	}
}

func TestQueuedNormalizesUnknownTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  string
	}{
		{"empty", ""},
		{"domain label", "carryover"},
		{"another domain label", "redistribution"},
		{"case mismatch", "Info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Queued("Title", "Message", tt.typ)
			if q.Type != TypeInfo {
				t.Errorf("Queued(%q).Type = %q, want %q", tt.typ, q.Type, TypeInfo)
			}
		})
	}
}
