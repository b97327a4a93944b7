package minify

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
)

func defaultOptions(t *testing.T) Options {
	t.Helper()
	opts, err := OptionsFromConfig(config.Default().Minify)
	require.NoError(t, err)
	return opts
}

func TestStandardMinify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		input  string
		want   string
	}{
		{
			name:  "whitespace between blocks removed",
			input: "<div>\n  <p>Hello</p>\n</div>\n",
			want:  "<div><p>Hello</p></div>",
		},
		{
			name:  "space between inline elements kept",
			input: "<span>a</span>   <b>b</b>",
			want:  "<span>a</span> <b>b</b>",
		},
		{
			name:  "comments removed but bang comments kept",
			input: "<div><!-- gone --><!--! kept --></div>",
			want:  "<div><!--! kept --></div>",
		},
		{
			name:  "conditional comments kept",
			input: "<div><!--[if IE]><p>ie</p><![endif]--></div>",
			want:  "<div><!--[if IE]><p>ie</p><![endif]--></div>",
		},
		{
			name:   "comments kept when disabled",
			modify: func(o *Options) { o.RemoveComments = false },
			input:  "<div><!-- note --></div>",
			want:   "<div><!-- note --></div>",
		},
		{
			name:  "class whitespace collapsed",
			input: `<div class="  a   b ">x</div>`,
			want:  `<div class="a b">x</div>`,
		},
		{
			name:  "ng-class collapsed via custom pattern",
			input: "<div ng-class=\"{ 'a':x,\n   'b':y }\">x</div>",
			want:  `<div ng-class="{ 'a':x, 'b':y }">x</div>`,
		},
		{
			name:  "other attribute values untouched",
			input: `<div title="  a   b ">x</div>`,
			want:  `<div title="  a   b ">x</div>`,
		},
		{
			name:  "angular expressions preserved",
			input: `<li ng-repeat="item in items|orderBy:'name'">{{ item.name }}</li>`,
			want:  `<li ng-repeat="item in items|orderBy:'name'">{{ item.name }}</li>`,
		},
		{
			name:  "pre content preserved",
			input: "<div>\n  <pre>  a\n   b  </pre>\n</div>",
			want:  "<div><pre>  a\n   b  </pre></div>",
		},
		{
			name:  "textarea content preserved",
			input: "<textarea>  keep   this </textarea>",
			want:  "<textarea>  keep   this </textarea>",
		},
		{
			name:  "self closing slash kept",
			input: `<div><br/><img src="a.png" /></div>`,
			want:  `<div><br/><img src="a.png"/></div>`,
		},
		{
			name:   "self closing slash dropped",
			modify: func(o *Options) { o.KeepClosingSlash = false },
			input:  `<div><br/></div>`,
			want:   `<div><br></div>`,
		},
		{
			name:  "single quotes kept",
			input: `<div title='say "hi"'>x</div>`,
			want:  `<div title='say "hi"'>x</div>`,
		},
		{
			name:  "unquoted value gets quotes",
			input: `<div id=main>x</div>`,
			want:  `<div id="main">x</div>`,
		},
		{
			name:   "attribute quotes removed when safe",
			modify: func(o *Options) { o.RemoveAttributeQuotes = true },
			input:  `<div id="main" title="a b">x</div>`,
			want:   `<div id=main title="a b">x</div>`,
		},
		{
			name: "space before slash after unquoted value",
			modify: func(o *Options) {
				o.RemoveAttributeQuotes = true
			},
			input: `<input type="text"/>`,
			want:  `<input type=text />`,
		},
		{
			name:   "boolean attributes collapsed",
			modify: func(o *Options) { o.CollapseBooleanAttributes = true },
			input:  `<input type="checkbox" checked="checked" disabled="">`,
			want:   `<input type="checkbox" checked disabled>`,
		},
		{
			name:  "boolean attributes kept by default",
			input: `<input type="checkbox" checked="checked">`,
			want:  `<input type="checkbox" checked="checked">`,
		},
		{
			name:   "optional end tags removed",
			modify: func(o *Options) { o.RemoveOptionalTags = true },
			input:  "<ul>\n<li>a</li>\n<li>b</li>\n</ul>",
			want:   "<ul><li>a<li>b</ul>",
		},
		{
			name:   "conservative collapse keeps one space",
			modify: func(o *Options) { o.ConservativeCollapse = true },
			input:  "<div>\n  <p>a</p>\n</div>",
			want:   "<div> <p>a</p> </div>",
		},
		{
			name:   "whitespace kept when collapse disabled",
			modify: func(o *Options) { o.CollapseWhitespace = false },
			input:  "<div>\n  <p>a</p>\n</div>",
			want:   "<div>\n  <p>a</p>\n</div>",
		},
		{
			name:  "case preserved",
			input: `<DIV Class="a">x</DIV>`,
			want:  `<DIV Class="a">x</DIV>`,
		},
		{
			name:   "case folded",
			modify: func(o *Options) { o.CaseSensitive = false },
			input:  `<DIV Class="a">x</DIV>`,
			want:   `<div class="a">x</div>`,
		},
		{
			name:   "script comment wrapper removed",
			modify: func(o *Options) { o.RemoveCommentsFromCDATA = true },
			input:  "<script>\n<!--\nvar a = 1;\n-->\n</script>",
			want:   "<script>\nvar a = 1;\n</script>",
		},
		{
			name:   "style cdata wrapper removed",
			modify: func(o *Options) { o.RemoveCommentsFromCDATA = true },
			input:  "<style><![CDATA[ p { color: red } ]]></style>",
			want:   "<style> p { color: red } </style>",
		},
		{
			name:  "script body untouched by default",
			input: "<script>\n  var a  =  1;\n</script>",
			want:  "<script>\n  var a  =  1;\n</script>",
		},
		{
			name:  "implicitly closed paragraphs accepted",
			input: "<div><p>one<p>two</div>",
			want:  "<div><p>one<p>two</div>",
		},
		{
			name:  "empty template",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions(t)
			if tt.modify != nil {
				tt.modify(&opts)
			}

			got, err := NewStandard(opts).Minify("test.html", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardMaxLineLength(t *testing.T) {
	opts := defaultOptions(t)
	opts.MaxLineLength = 10

	got, err := NewStandard(opts).Minify("wrap.html", "<div><p>a</p></div>")
	require.NoError(t, err)
	assert.Equal(t, "<div><p>a</p>\n</div>", got)

	got, err = NewStandard(opts).Minify("wrap.html", "<pre><b>x</b><i>y</i><b>z</b></pre>")
	require.NoError(t, err)
	assert.NotContains(t, got, "\n", "pre content must not be wrapped")
}

func TestStandardMinifyErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "unclosed inline element",
			input:    "<div>\n<span>x\n</div>",
			wantLine: 3,
			wantMsg:  "unclosed <span>",
		},
		{
			name:     "unexpected closing tag",
			input:    "<div></div>\n</span>",
			wantLine: 2,
			wantMsg:  "unexpected closing tag </span>",
		},
		{
			name:     "unclosed at end of file",
			input:    "<section>\n<div>",
			wantLine: 2,
			wantMsg:  "unclosed tag <div>",
		},
		{
			name:     "tag cut off at end of file",
			input:    "<div>x</div>\n<span",
			wantLine: 2,
			wantMsg:  "unterminated markup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStandard(defaultOptions(t)).Minify("bad.html", tt.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsMinification(err))

			var merr *pkgerrors.MinificationError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, "bad.html", merr.Path)
			assert.Equal(t, tt.wantLine, merr.Line)
			assert.Contains(t, merr.Message, tt.wantMsg)
		})
	}
}

func TestStandardKeepsStructure(t *testing.T) {
	input := `<section class="list">
    <h2 ng-bind="title"></h2>
    <ul>
        <li ng-repeat="item in items" ng-class="{'done':item.done}">
            <input type="checkbox" ng-model="item.done">
            <span>{{item.name}}</span>
        </li>
    </ul>
    <!-- footer -->
    <footer><a href="#/new">New</a></footer>
</section>`

	got, err := NewStandard(defaultOptions(t)).Minify("list.html", input)
	require.NoError(t, err)
	assert.Less(t, len(got), len(input))
	assert.NotContains(t, got, "footer -->")

	before, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	require.NoError(t, err)
	after, err := goquery.NewDocumentFromReader(strings.NewReader(got))
	require.NoError(t, err)

	for _, sel := range []string{"section", "h2", "ul", "li", "input", "span", "footer", "a"} {
		assert.Equal(t, before.Find(sel).Length(), after.Find(sel).Length(), sel)
	}

	repeat, ok := after.Find("li").Attr("ng-repeat")
	require.True(t, ok)
	assert.Equal(t, "item in items", repeat)
	assert.Equal(t, "{{item.name}}", after.Find("span").Text())
}

func TestMinifyIsDeterministic(t *testing.T) {
	input := "<div class=\" a  b\">\n  <p>x</p>\n  <!-- c -->\n</div>"
	m := NewStandard(defaultOptions(t))

	first, err := m.Minify("a.html", input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.Minify("a.html", input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAggressiveMinify(t *testing.T) {
	m := NewAggressive(defaultOptions(t))

	input := "<div>\n  <p>Hello   world</p>\n  <!-- note -->\n</div>"
	got, err := m.Minify("a.html", input)
	require.NoError(t, err)
	assert.NotContains(t, got, "note")
	assert.Contains(t, got, "Hello world")
	assert.Less(t, len(got), len(input))

	_, err = m.Minify("bad.html", "<div><span></div>")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsMinification(err))
}

func TestNew(t *testing.T) {
	opts := Options{}

	m, err := New("", opts)
	require.NoError(t, err)
	assert.IsType(t, &Standard{}, m)

	m, err = New(EngineAggressive, opts)
	require.NoError(t, err)
	assert.IsType(t, &Aggressive{}, m)

	_, err = New("fast", opts)
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Minify
	cfg.CustomAttrCollapse = "^(ng-class|ng-style)$"

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, opts.CustomAttrCollapse)
	assert.True(t, opts.CustomAttrCollapse.MatchString("ng-style"))
	assert.Equal(t, cfg.MaxLineLength, opts.MaxLineLength)

	cfg.CustomAttrCollapse = "("
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)

	cfg.CustomAttrCollapse = ""
	opts, err = OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, opts.CustomAttrCollapse)
}
