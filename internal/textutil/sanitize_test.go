package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":              "clip.mp4",
		"  my video.mp4 ":       "my video.mp4",
		"a/b\\c:d*e.mp4":        "a-b-c-d-e.mp4",
		"what?\"<now>|.wav":     "whatnow.wav",
		"..hidden.mp4":          "hidden.mp4",
		"..":                    "",
		"tab\tand\nnewline.mp4": "tabandnewline.mp4",
		"":                      "",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
