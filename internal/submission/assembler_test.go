package submission

import (
	"testing"

	"github.com/LukhazD/pyform-sub000/internal/module"
)

func buildModules(t *testing.T) []module.Module {
	t.Helper()
	l := module.NewList(nil)
	l.Add(module.TypeWelcome, -1)
	l.Add(module.TypeText, -1)
	l.Add(module.TypeEmail, -1)
	l.Add(module.TypeCheckboxes, -1)
	l.Add(module.TypeGoodbye, -1)
	return l.Items()
}

func TestAssembleOmitsUnvisitedModules(t *testing.T) {
	modules := buildModules(t)
	answers := map[string]any{
		modules[1].ClientID: "hello",
		// email never answered
		modules[3].ClientID: []string{"a"},
	}

	sub := Assemble("form1", "resp1", modules, answers, ClientInfo{}, 1234)

	if len(sub.Answers) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(sub.Answers))
	}
	if sub.Answers[0].QuestionID != modules[1].ClientID {
		t.Fatalf("entries not in module order")
	}
	if sub.Answers[0].QuestionType != string(module.TypeText) {
		t.Fatalf("unexpected question type %q", sub.Answers[0].QuestionType)
	}
	if sub.CompletionTimeMs != 1234 {
		t.Fatalf("completion time not carried")
	}
}

func TestAssembleSkipsInformationalAndNilAnswers(t *testing.T) {
	modules := buildModules(t)
	answers := map[string]any{
		modules[0].ClientID: "stray welcome answer",
		modules[1].ClientID: nil,
	}

	sub := Assemble("form1", "resp1", modules, answers, ClientInfo{}, 0)
	if len(sub.Answers) != 0 {
		t.Fatalf("expected no entries, got %+v", sub.Answers)
	}
}

func TestAssembleCarriesClientMetadata(t *testing.T) {
	sub := Assemble("form1", "resp1", nil, nil, ClientInfo{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		Language:  " en-GB ",
	}, 0)

	if sub.Metadata.DeviceClass != DeviceMobile {
		t.Fatalf("expected mobile, got %s", sub.Metadata.DeviceClass)
	}
	if sub.Metadata.Language != "en-GB" {
		t.Fatalf("language not trimmed: %q", sub.Metadata.Language)
	}
	if sub.Metadata.UserAgent == "" {
		t.Fatalf("user agent dropped")
	}
}

func TestDeviceClassFromUserAgent(t *testing.T) {
	cases := map[string]string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)":           DeviceDesktop,
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)":            DeviceMobile,
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile":     DeviceMobile,
		"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)":       DeviceTablet,
		"Mozilla/5.0 (Linux; Android 13; SM-X910) Silk/119.2": DeviceTablet,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)":     DeviceDesktop,
		"": DeviceDesktop,
	}
	for ua, want := range cases {
		if got := DeviceClassFromUserAgent(ua); got != want {
			t.Fatalf("%q: expected %s, got %s", ua, want, got)
		}
	}
}
