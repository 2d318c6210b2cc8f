package youtube

import "testing"

func TestExtractIdentifier_CanonicalChannelURL(t *testing.T) {
	id, kind, err := ExtractIdentifier("https://www.youtube.com/channel/UCabcdefghij1234567890AB")
	if err != nil {
		t.Fatal(err)
	}
	if kind != IdentifierChannelID || id != "UCabcdefghij1234567890AB" {
		t.Errorf("got (%q, %d)", id, kind)
	}
}

func TestExtractIdentifier_ChannelURLWithSectionPath(t *testing.T) {
	id, kind, err := ExtractIdentifier("https://www.youtube.com/channel/UCabcdefghij1234567890AB/videos")
	if err != nil {
		t.Fatal(err)
	}
	if kind != IdentifierChannelID || id != "UCabcdefghij1234567890AB" {
		t.Errorf("got (%q, %d)", id, kind)
	}
}

func TestExtractIdentifier_MalformedChannelID(t *testing.T) {
	// Right prefix, wrong length.
	if _, _, err := ExtractIdentifier("https://www.youtube.com/channel/UCshort"); err == nil {
		t.Error("malformed channel id should be rejected")
	}
}

func TestExtractIdentifier_Handle(t *testing.T) {
	id, kind, err := ExtractIdentifier("https://www.youtube.com/@SomeCreator/shorts")
	if err != nil {
		t.Fatal(err)
	}
	if kind != IdentifierHandle || id != "SomeCreator" {
		t.Errorf("got (%q, %d)", id, kind)
	}
}

func TestExtractIdentifier_PercentEncodedHandle(t *testing.T) {
	id, kind, err := ExtractIdentifier("https://www.youtube.com/@Caf%C3%A9Canal")
	if err != nil {
		t.Fatal(err)
	}
	if kind != IdentifierHandle || id != "CaféCanal" {
		t.Errorf("got (%q, %d)", id, kind)
	}
}

func TestExtractIdentifier_LegacyCustomAndUser(t *testing.T) {
	id, kind, err := ExtractIdentifier("https://www.youtube.com/c/OldCustomName/featured")
	if err != nil {
		t.Fatal(err)
	}
	if kind != IdentifierUsername || id != "OldCustomName" {
		t.Errorf("/c/ got (%q, %d)", id, kind)
	}

	id, kind, err = ExtractIdentifier("https://www.youtube.com/user/legacyuser")
	if err != nil {
		t.Fatal(err)
	}
	if kind != IdentifierUsername || id != "legacyuser" {
		t.Errorf("/user/ got (%q, %d)", id, kind)
	}
}

func TestExtractIdentifier_UnrecognizedURL(t *testing.T) {
	if _, _, err := ExtractIdentifier("https://example.com/watch?v=abc"); err == nil {
		t.Error("non-channel url should be rejected")
	}
}
