package main

import "testing"

func TestParseConfigArgs(t *testing.T) {
	upd, err := parseConfigArgs([]string{"interval=30", "rotation=180", "current_image=a.jpg"})
	if err != nil {
		t.Fatalf("parseConfigArgs: %v", err)
	}
	if *upd.Interval != 30 || *upd.Rotation != 180 || *upd.CurrentImage != "a.jpg" {
		t.Errorf("update = %+v", upd)
	}

	partial, err := parseConfigArgs([]string{"interval=5"})
	if err != nil {
		t.Fatal(err)
	}
	if partial.Rotation != nil || partial.CurrentImage != nil {
		t.Errorf("unexpected fields set: %+v", partial)
	}

	for _, bad := range []string{"interval", "interval=x", "color=red"} {
		if _, err := parseConfigArgs([]string{bad}); err == nil {
			t.Errorf("parseConfigArgs(%q) expected error", bad)
		}
	}
}
