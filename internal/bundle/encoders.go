package bundle

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paulhhowells/tmplpack/pkg/templatecache"
)

const (
	FormatJSON = templatecache.FormatJSON
	FormatYAML = templatecache.FormatYAML
	FormatJS   = "js"
)

// Encoder serializes an artifact.
type Encoder interface {
	Encode(w io.Writer, a *templatecache.Artifact) error
}

// EncoderFor returns the encoder for format. standalone only affects js.
func EncoderFor(format string, standalone bool) (Encoder, error) {
	switch format {
	case FormatJSON:
		return jsonEncoder{}, nil
	case FormatYAML:
		return yamlEncoder{}, nil
	case FormatJS:
		return jsEncoder{standalone: standalone}, nil
	default:
		return nil, fmt.Errorf("unsupported bundle format %q", format)
	}
}

type jsonEncoder struct{}

func (jsonEncoder) Encode(w io.Writer, a *templatecache.Artifact) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

type yamlEncoder struct{}

func (yamlEncoder) Encode(w io.Writer, a *templatecache.Artifact) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return err
	}
	return enc.Close()
}

// jsEncoder writes a script that fills an AngularJS $templateCache when
// loaded.
type jsEncoder struct {
	standalone bool
}

var jsSingleQuote = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func (e jsEncoder) Encode(w io.Writer, a *templatecache.Artifact) error {
	bw := bufio.NewWriter(w)

	deps := ""
	if e.standalone {
		deps = ", []"
	}
	fmt.Fprintf(bw, "angular.module('%s'%s).run(['$templateCache', function($templateCache) {\n", jsSingleQuote.Replace(a.Module), deps)
	bw.WriteString("  'use strict';\n")

	for _, t := range a.Templates {
		content, err := jsString(t.Content)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", t.Key, err)
		}
		fmt.Fprintf(bw, "\n  $templateCache.put('%s',\n    %s\n  );\n", jsSingleQuote.Replace(t.Key), content)
	}

	bw.WriteString("\n}]);\n")
	return bw.Flush()
}

// jsString quotes s as a double-quoted JavaScript string literal. JSON string
// syntax is a subset of it, and encoding/json already escapes U+2028 and
// U+2029.
func jsString(s string) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
