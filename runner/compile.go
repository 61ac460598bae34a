package runner

import (
	"fmt"
	"strings"

	"github.com/criyle/ts-judge/language"
	"github.com/evanw/esbuild/pkg/api"
)

const maxDiagnostics = 3

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Transpile strips type-only syntax from normalized source and returns
// script text the evaluator can run. Identical input yields identical output.
func Transpile(source string, param language.ExecParam) (string, error) {
	loader := api.LoaderTS
	if param.Dialect == language.DialectJavaScript {
		loader = api.LoaderJS
	}
	target, ok := targets[strings.ToLower(param.Target)]
	if !ok {
		target = api.ES2017
	}

	rt := api.Transform(source, api.TransformOptions{
		Loader:     loader,
		Target:     target,
		Sourcefile: param.SourceFileName,
		LogLevel:   api.LogLevelSilent,
		Charset:    api.CharsetUTF8,
	})
	if len(rt.Errors) > 0 {
		return "", compileError(rt.Errors)
	}
	return string(rt.Code), nil
}

func compileError(msgs []api.Message) *CompileError {
	ce := &CompileError{}
	texts := make([]string, 0, maxDiagnostics)
	for i, m := range msgs {
		if i >= maxDiagnostics {
			break
		}
		text := sanitizeDiagnostic(m.Text)
		if loc := m.Location; loc != nil {
			if i == 0 {
				ce.Line, ce.Column = loc.Line, loc.Column+1
			} else {
				text = fmt.Sprintf("line %d: %s", loc.Line, text)
			}
		}
		texts = append(texts, text)
	}
	if len(msgs) > maxDiagnostics {
		texts = append(texts, fmt.Sprintf("and %d more errors", len(msgs)-maxDiagnostics))
	}
	ce.Message = strings.Join(texts, "; ")
	return ce
}
