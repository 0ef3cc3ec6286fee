package playlist

import (
	"strings"
	"testing"
)

func twoLangMaster() string {
	return strings.Join([]string{
		`#EXTM3U`,
		`#EXT-X-VERSION:3`,
		`#EXT-X-STREAM-INF:BANDWIDTH=1000000`,
		`http://client:7000/x/variant1.m3u8`,
		`#EXT-X-MEDIA:URI="http://client:7000/x/en1.m3u8",TYPE=AUDIO,GROUP-ID="aud",NAME="English",DEFAULT=YES,LANGUAGE="en",YT-EXT-AUDIO-CONTENT-ID="abc"`,
		`#EXT-X-MEDIA:URI="http://client:7000/x/en2.m3u8",TYPE=AUDIO,GROUP-ID="aud",NAME="English",DEFAULT=YES,LANGUAGE="en",YT-EXT-AUDIO-CONTENT-ID="abc"`,
		`#EXT-X-MEDIA:URI="http://client:7000/x/en3.m3u8",TYPE=AUDIO,GROUP-ID="aud",NAME="English",DEFAULT=YES,LANGUAGE="en",YT-EXT-AUDIO-CONTENT-ID="abc"`,
		`#EXT-X-MEDIA:URI="http://client:7000/x/fr1.m3u8",TYPE=AUDIO,GROUP-ID="aud",NAME="French",DEFAULT=NO,LANGUAGE="fr",YT-EXT-AUDIO-CONTENT-ID="def"`,
		`#EXT-X-MEDIA:URI="http://client:7000/x/fr2.m3u8",TYPE=AUDIO,GROUP-ID="aud",NAME="French",DEFAULT=NO,LANGUAGE="fr",YT-EXT-AUDIO-CONTENT-ID="def"`,
		`#EXT-X-MEDIA:URI="http://client:7000/x/fr3.m3u8",TYPE=AUDIO,GROUP-ID="aud",NAME="French",DEFAULT=NO,LANGUAGE="fr",YT-EXT-AUDIO-CONTENT-ID="def"`,
		`#EXT-X-STREAM-INF:BANDWIDTH=2000000,AUDIO="aud"`,
		`http://client:7000/x/master.m3u8`,
		``,
	}, "\n")
}

func TestSliceMasterLanguages_PreferenceMatch(t *testing.T) {
	master := twoLangMaster()
	out, name, code, err := SliceMasterLanguages(master, "", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "fr" || name != "French" {
		t.Fatalf("got name=%q code=%q, want French/fr", name, code)
	}
	if strings.Contains(out, `NAME="English"`) {
		t.Fatalf("output still contains English slices:\n%s", out)
	}
	if strings.Count(out, `LANGUAGE="fr"`) != 3 {
		t.Fatalf("expected exactly 3 French slices, got output:\n%s", out)
	}
	if len(out) >= len(master) {
		t.Fatalf("sliced output (%d) should be shorter than input (%d)", len(out), len(master))
	}
}

func TestSliceMasterLanguages_DefaultFallback(t *testing.T) {
	master := twoLangMaster()
	out, name, code, err := SliceMasterLanguages(master, "", "de")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "en" || name != "English" {
		t.Fatalf("got name=%q code=%q, want English/en (DEFAULT)", name, code)
	}
	if !strings.Contains(out, `LANGUAGE="en"`) {
		t.Fatalf("expected English slices retained")
	}
}

func TestSliceMasterLanguages_StickyCurrentName(t *testing.T) {
	master := twoLangMaster()
	out, name, code, err := SliceMasterLanguages(master, "French", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "French" || code != "fr" {
		t.Fatalf("current selection should win over preference list, got %q/%q", name, code)
	}
	if strings.Contains(out, `NAME="English"`) {
		t.Fatalf("expected English removed when sticking with French")
	}
}

func TestSliceMasterLanguages_NoSlices(t *testing.T) {
	master := "#EXTM3U\n#EXT-X-VERSION:3\nhttp://client/a.m3u8\n"
	out, name, code, err := SliceMasterLanguages(master, "", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != master {
		t.Fatalf("expected unchanged output when there are no language slices")
	}
	if name != "" || code != "" {
		t.Fatalf("expected no language selected, got %q/%q", name, code)
	}
}

func TestSliceMasterLanguages_UnevenSlicesError(t *testing.T) {
	master := strings.Join([]string{
		`#EXTM3U`,
		`#EXT-X-MEDIA:URI="http://client/en1.m3u8",NAME="English",DEFAULT=YES,LANGUAGE="en",YT-EXT-AUDIO-CONTENT-ID="abc"`,
		`#EXT-X-MEDIA:URI="http://client/en2.m3u8",NAME="English",DEFAULT=YES,LANGUAGE="en",YT-EXT-AUDIO-CONTENT-ID="abc"`,
		`#EXT-X-MEDIA:URI="http://client/fr1.m3u8",NAME="French",DEFAULT=NO,LANGUAGE="fr",YT-EXT-AUDIO-CONTENT-ID="def"`,
		``,
	}, "\n")
	if _, _, _, err := SliceMasterLanguages(master, "", "en"); err == nil {
		t.Fatalf("expected error for uneven per-language slice counts")
	}
}

func TestURITable(t *testing.T) {
	master := twoLangMaster()
	uris, err := URITable(master, "http://client:7000/x/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"http://client:7000/x/variant1.m3u8",
		"http://client:7000/x/en1.m3u8",
		"http://client:7000/x/en2.m3u8",
		"http://client:7000/x/en3.m3u8",
		"http://client:7000/x/fr1.m3u8",
		"http://client:7000/x/fr2.m3u8",
		"http://client:7000/x/fr3.m3u8",
		"http://client:7000/x/master.m3u8",
	}
	if len(uris) != len(want) {
		t.Fatalf("got %d uris, want %d: %v", len(uris), len(want), uris)
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Errorf("uri[%d] = %q, want %q", i, uris[i], want[i])
		}
	}
}

func TestRewriteMasterURIs(t *testing.T) {
	master := "http://client:7000/x/a.m3u8\nhttp://client:7000/x/b.m3u8\n"
	out, count, err := RewriteMasterURIs(master, "http://client:7000/x/", "http://localhost:7100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count=2, got %d", count)
	}
	if !strings.Contains(out, "http://localhost:7100a.m3u8") {
		t.Fatalf("unexpected rewrite: %s", out)
	}
	wantLen := len(master) + count*(len("http://localhost:7100")-len("http://client:7000/x/"))
	if len(out) != wantLen {
		t.Fatalf("rewrite length = %d, want %d", len(out), wantLen)
	}
}

func TestAnalyze(t *testing.T) {
	media := strings.Join([]string{
		`#EXTM3U`,
		`#EXT-X-VERSION:4`,
		`#EXT-X-PLAYLIST-TYPE:VOD`,
		`#EXT-X-MEDIA-SEQUENCE:7`,
		`#EXTINF:10.0,`,
		`seg0.ts`,
		`#EXTINF:9.5,`,
		`seg1.ts`,
		`#EXT-X-ENDLIST`,
		``,
	}, "\n")
	a := Analyze(media)
	if a.Count != 2 {
		t.Fatalf("count = %d, want 2", a.Count)
	}
	if a.Duration != 19.5 {
		t.Fatalf("duration = %v, want 19.5", a.Duration)
	}
	if !a.Endlist {
		t.Fatalf("expected endlist true")
	}
	if a.PlaylistType != TypeVOD {
		t.Fatalf("playlist type = %v, want VOD", a.PlaylistType)
	}
	if a.HLSVersion != 4 {
		t.Fatalf("hls version = %d, want 4", a.HLSVersion)
	}
	if a.MediaSequence != 7 {
		t.Fatalf("media sequence = %d, want 7", a.MediaSequence)
	}
}

func TestExpandCondensedURI_NoHeader(t *testing.T) {
	plain := "#EXTM3U\n#EXTINF:10.0,\nseg0.ts\n"
	out, err := ExpandCondensedURI(plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != plain {
		t.Fatalf("expected unchanged copy, got %q", out)
	}
}

func TestExpandCondensedURI_Basic(t *testing.T) {
	text := strings.Join([]string{
		`#EXTM3U`,
		`#YT-EXT-CONDENSED-URL:BASE-URI="https://yt.example/videoplayback",PARAMS="range,sq",PREFIX="P"`,
		`#EXTINF:10.0,`,
		`P/0-1000/0`,
		``,
	}, "\n")
	out, err := ExpandCondensedURI(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "https://yt.example/videoplayback/range/0-1000/sq/0") {
		t.Fatalf("unexpected expansion:\n%s", out)
	}
}
