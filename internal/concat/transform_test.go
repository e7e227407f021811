package concat

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/htmlconcat/internal/assets"
	"git.home.luguber.info/inful/htmlconcat/internal/cssrebase"
	"git.home.luguber.info/inful/htmlconcat/internal/diagnostics"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/resolver"
)

func newTestTransformer(t *testing.T, fsys fstest.MapFS, mutate ...func(*Options)) (*Transformer, *diagnostics.Collector) {
	t.Helper()
	sink := &diagnostics.Collector{}
	opts := Options{
		Importer:    resolver.NewFSImporter(fsys),
		Diagnostics: sink,
	}
	for _, m := range mutate {
		m(&opts)
	}
	tr, err := New(opts)
	require.NoError(t, err)
	return tr, sink
}

func bundleName(t *testing.T, typ assets.Type, members ...string) string {
	t.Helper()
	name, err := BundleName(members, typ, MD5Hex, DefaultDigestLength)
	require.NoError(t, err)
	return name
}

func TestTransform_ExtensionDispatch(t *testing.T) {
	tr, _ := newTestTransformer(t, fstest.MapFS{})

	for _, p := range []string{"css/site.css", "app.js"} {
		t.Run(p, func(t *testing.T) {
			results, err := tr.Transform(context.Background(), Document{Path: p, Contents: []byte("x")})
			require.NoError(t, err)
			assert.Nil(t, results)
		})
	}

	for _, p := range []string{"img/logo.png", "README", "data.json"} {
		t.Run(p, func(t *testing.T) {
			contents := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
			results, err := tr.Transform(context.Background(), Document{Path: p, Contents: contents})
			require.NoError(t, err)
			assert.Equal(t, ResultSet{p: contents}, results)
		})
	}
}

func TestTransform_SingletonIsPreserved(t *testing.T) {
	doc := "<html><head>\n  <script src=\"a.js\"></script>\n</head></html>"
	tr, sink := newTestTransformer(t, fstest.MapFS{"a.js": {Data: []byte("A;")}})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)

	assert.Equal(t, ResultSet{
		"index.html": []byte(doc),
		"a.js":       []byte("A;"),
	}, results)
	assert.Zero(t, sink.Len())
}

func TestTransform_ConcatenatesScripts(t *testing.T) {
	doc := "<head>\n<script src=\"a.js\"></script>\n<script src=\"b.js\"></script>\n</head>"
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"a.js": {Data: []byte("A;")},
		"b.js": {Data: []byte("B;")},
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)

	name := bundleName(t, assets.TypeScript, "a.js", "b.js")
	assert.Regexp(t, `^concat-[0-9a-f]{5}\.js$`, name)

	wantHTML := "<head>\n<script src=\"" + name + "\"></script>\n</head>"
	assert.Equal(t, ResultSet{
		"index.html": []byte(wantHTML),
		name:         []byte("A;;B;"),
	}, results)
	assert.Equal(t, 1, strings.Count(string(results["index.html"]), "<script"))
}

func TestTransform_CustomSeparator(t *testing.T) {
	doc := `<script src="a.js"></script><script src="b.js"></script><script src="c.js"></script>`
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"a.js": {Data: []byte("a()")},
		"b.js": {Data: []byte("b()")},
		"c.js": {Data: []byte("c()")},
	}, func(o *Options) { o.Separator = []byte(";\n") })

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	assert.Equal(t, "a();\nb();\nc()", string(results[bundleName(t, assets.TypeScript, "a.js", "b.js", "c.js")]))
}

func TestTransform_MissingAssetDegrades(t *testing.T) {
	doc := "<html>\n  <body>\n    <script src=\"missing.js\"></script>\n  </body>\n</html>"
	tr, sink := newTestTransformer(t, fstest.MapFS{})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)

	assert.Equal(t, []byte(doc), results["index.html"])
	contents, ok := results["missing.js"]
	require.True(t, ok, "missing asset should still be emitted at its computed path")
	assert.Empty(t, contents)

	diags := sink.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.KindWarning, diags[0].Kind)
	assert.Equal(t, `Missing file "missing.js" will not be included in concatenation`, diags[0].Message)
	assert.Equal(t, "index.html", diags[0].File)
	assert.Equal(t, doc, diags[0].Contents)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, 5, diags[0].Column)
}

func TestTransform_MissingMemberInBundle(t *testing.T) {
	doc := `<script src="a.js"></script><script src="gone.js"></script>`
	tr, sink := newTestTransformer(t, fstest.MapFS{"a.js": {Data: []byte("A")}})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)

	assert.Equal(t, "A;", string(results[bundleName(t, assets.TypeScript, "a.js", "gone.js")]))
	assert.Equal(t, 1, sink.Len())
}

func TestTransform_NonLocalGroupIsSkipped(t *testing.T) {
	doc := "<head>\n" +
		`<script src="https://cdn.example.com/x.js"></script><script src="//cdn.example.com/y.js"></script>` + "\n" +
		`<p>content</p>` + "\n" +
		`<script src="a.js"></script><script src="b.js"></script>` + "\n" +
		"</head>"
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"a.js": {Data: []byte("A")},
		"b.js": {Data: []byte("B")},
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)

	name := bundleName(t, assets.TypeScript, "a.js", "b.js")
	want := "<head>\n" +
		`<script src="https://cdn.example.com/x.js"></script><script src="//cdn.example.com/y.js"></script>` + "\n" +
		`<p>content</p>` + "\n" +
		`<script src="` + name + `"></script>` + "\n" +
		"</head>"
	assert.Equal(t, want, string(results["index.html"]))
	assert.Len(t, results, 2)
}

func TestTransform_OnlyRemoteAssets(t *testing.T) {
	doc := `<script src="https://cdn.example.com/x.js"></script>`
	tr, _ := newTestTransformer(t, fstest.MapFS{})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	assert.Equal(t, ResultSet{"index.html": []byte(doc)}, results)
}

func TestTransform_StylesheetRebasing(t *testing.T) {
	doc := `<link rel="stylesheet" href="css/a.css"><link rel="stylesheet" href="b.css">`
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"css/a.css": {Data: []byte("a{background:url(img/x.png)}")},
		"b.css":     {Data: []byte("b{background:url(img/y.png)}")},
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)

	name := bundleName(t, assets.TypeStylesheet, "css/a.css", "b.css")
	assert.Equal(t, `<link rel="stylesheet" href="`+name+`">`, string(results["index.html"]))
	assert.Equal(t, "a{background:url(css/img/x.png)}b{background:url(img/y.png)}", string(results[name]))
}

func TestTransform_CoLocatedStylesheetsAreNotRebased(t *testing.T) {
	var calls atomic.Int32
	doc := `<link rel="stylesheet" href="a.css"><link rel="stylesheet" href="b.css">`
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"a.css": {Data: []byte("a{}")},
		"b.css": {Data: []byte("b{}")},
	}, func(o *Options) {
		o.Rebaser = cssrebase.RebaserFunc(func(css, _, _ string) (string, error) {
			calls.Add(1)
			return css, nil
		})
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	assert.Equal(t, "a{}b{}", string(results[bundleName(t, assets.TypeStylesheet, "a.css", "b.css")]))
	assert.Zero(t, calls.Load())
}

func TestTransform_NestedDocument(t *testing.T) {
	doc := `<script src="../js/a.js"></script><script src="../js/b.js"></script>`
	tr, sink := newTestTransformer(t, fstest.MapFS{
		"docs/js/a.js": {Data: []byte("A")},
		"docs/js/b.js": {Data: []byte("B")},
	})

	results, err := tr.Transform(context.Background(), Document{Path: "docs/guide/index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	require.Zero(t, sink.Len(), "every member must resolve")

	name := bundleName(t, assets.TypeScript, "../js/a.js", "../js/b.js")
	assert.Equal(t, `<script src="`+name+`"></script>`, string(results["docs/guide/index.html"]))
	assert.Equal(t, "A;B", string(results["docs/guide/"+name]))
}

func TestTransform_SingletonUsesImporterPath(t *testing.T) {
	doc := `<script src="vendor/lib"></script>`
	tr, _ := newTestTransformer(t, nil, func(o *Options) {
		o.Importer = resolver.NewFSImporter(fstest.MapFS{"vendor/lib.js": {Data: []byte("lib")}}, resolver.WithExtensions(".js"))
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	assert.Equal(t, "lib", string(results["vendor/lib.js"]))
	assert.Equal(t, doc, string(results["index.html"]))
}

func TestTransform_AbsoluteURLIsNotImplemented(t *testing.T) {
	doc := `<script src="/app.js"></script>`
	tr, _ := newTestTransformer(t, fstest.MapFS{"app.js": {Data: []byte("x")}})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.HasCategory(err, errors.CategoryUnsupported))
}

func TestTransform_ImportErrorAbortsDocument(t *testing.T) {
	boom := stderrors.New("disk on fire")
	doc := `<script src="a.js"></script><script src="b.js"></script><script src="c.js"></script>`
	tr, _ := newTestTransformer(t, nil, func(o *Options) {
		o.Importer = resolver.ImporterFunc(func(_ context.Context, name string) (resolver.File, error) {
			if name == "b.js" {
				return resolver.File{}, boom
			}
			return resolver.File{Path: name, Contents: []byte(name)}, nil
		})
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.Error(t, err)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestTransform_BundleNameCollision(t *testing.T) {
	doc := `<script src="a.js"></script><script src="b.js"></script><p></p><script src="c.js"></script><script src="d.js"></script>`
	fsys := fstest.MapFS{}
	for _, n := range []string{"a.js", "b.js", "c.js", "d.js"} {
		fsys[n] = &fstest.MapFile{Data: []byte(n)}
	}
	tr, _ := newTestTransformer(t, fsys, func(o *Options) {
		o.Digest = func([]byte) string { return "00000000" }
	})

	_, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestTransform_SingletonCollidingWithBundle(t *testing.T) {
	fsys := fstest.MapFS{
		"a.js": {Data: []byte("A")},
		"b.js": {Data: []byte("B")},
	}
	name := bundleName(t, assets.TypeScript, "a.js", "b.js")
	fsys[name] = &fstest.MapFile{Data: []byte("stale bundle")}
	pair := `<script src="a.js"></script><script src="b.js"></script>`
	single := `<script src="` + name + `"></script>`

	for _, tc := range []struct {
		name string
		doc  string
	}{
		{"bundle first", pair + "<p></p>" + single},
		{"singleton first", single + "<p></p>" + pair},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tr, _ := newTestTransformer(t, fsys)

			_, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(tc.doc)})
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}
}

func TestTransform_RepeatedSingletonIsAccepted(t *testing.T) {
	doc := `<script src="a.js"></script><p></p><script src="a.js"></script>`
	tr, _ := newTestTransformer(t, fstest.MapFS{"a.js": {Data: []byte("A")}})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	assert.Equal(t, "A", string(results["a.js"]))
	assert.Equal(t, doc, string(results["index.html"]))
}

func TestTransform_RepeatedGroupSharesBundle(t *testing.T) {
	pair := `<script src="a.js"></script><script src="b.js"></script>`
	doc := pair + "<hr>" + pair
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"a.js": {Data: []byte("A")},
		"b.js": {Data: []byte("B")},
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.NoError(t, err)
	name := bundleName(t, assets.TypeScript, "a.js", "b.js")
	tag := `<script src="` + name + `"></script>`
	assert.Equal(t, tag+"<hr>"+tag, string(results["index.html"]))
}

func TestTransform_UnknownGroupTypeIsInternalError(t *testing.T) {
	doc := "<img src=a.png><img src=b.png>"
	tr, _ := newTestTransformer(t, fstest.MapFS{
		"a.png": {Data: []byte("a")},
		"b.png": {Data: []byte("b")},
	}, func(o *Options) {
		o.Extractor = assets.ExtractorFunc(func(string) []assets.Group {
			return []assets.Group{{
				{URL: "a.png", Start: 0, End: 15, Type: "image"},
				{URL: "b.png", Start: 15, End: 30, Type: "image"},
			}}
		})
	})

	_, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc)})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryInternal))
}

func TestTransform_WaitsForEveryMemberAndHonoursConcurrency(t *testing.T) {
	var (
		inFlight, peak atomic.Int32
		mu             sync.Mutex
		seen           []string
	)
	var doc strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&doc, `<script src="s%d.js"></script>`, i)
	}
	doc.WriteString("<p></p>")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&doc, `<link rel="stylesheet" href="c%d.css">`, i)
	}

	tr, _ := newTestTransformer(t, nil, func(o *Options) {
		o.Concurrency = 3
		o.Importer = resolver.ImporterFunc(func(_ context.Context, name string) (resolver.File, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			mu.Lock()
			seen = append(seen, name)
			mu.Unlock()
			return resolver.File{Path: name, Contents: []byte(name)}, nil
		})
	})

	results, err := tr.Transform(context.Background(), Document{Path: "index.html", Contents: []byte(doc.String())})
	require.NoError(t, err)
	assert.Len(t, seen, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))

	scripts := make([]string, 8)
	for i := range scripts {
		scripts[i] = fmt.Sprintf("s%d.js", i)
	}
	// member order in the bundle follows document order, not completion order
	assert.Equal(t, strings.Join(scripts, ";"), string(results[bundleName(t, assets.TypeScript, scripts...)]))
}

func TestBundleName(t *testing.T) {
	a, err := BundleName([]string{"a.js", "b.js"}, assets.TypeScript, MD5Hex, 5)
	require.NoError(t, err)
	again, err := BundleName([]string{"a.js", "b.js"}, assets.TypeScript, MD5Hex, 5)
	require.NoError(t, err)
	reordered, err := BundleName([]string{"b.js", "a.js"}, assets.TypeScript, MD5Hex, 5)
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, reordered)
	assert.Equal(t, "concat-"+MD5Hex([]byte("a.js\nb.js"))[:5]+".js", a)

	css, err := BundleName([]string{"a.css", "b.css"}, assets.TypeStylesheet, MD5Hex, 8)
	require.NoError(t, err)
	assert.Regexp(t, `^concat-[0-9a-f]{8}\.css$`, css)

	_, err = BundleName([]string{"a.js"}, assets.TypeScript, MD5Hex, 33)
	assert.Error(t, err)
}

func TestIsLocalURL(t *testing.T) {
	tests := map[string]bool{
		"a.js":                         true,
		"../lib/a.js":                  true,
		"/abs/a.js":                    true,
		"":                             false,
		"https://cdn.example.com/x.js": false,
		"//cdn.example.com/x.js":       false,
		"data:text/javascript,1":       false,
	}
	for url, want := range tests {
		assert.Equal(t, want, IsLocalURL(url), url)
	}
}

func TestNew_RequiresImporter(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
