package templatevalidator

import (
	"errors"

	"github.com/auditdoc/auditdoc/pkg/preview"
)

// RenderSample renders a template file's body against the sample dataset.
// Front matter is stripped first and parse error lines refer to the whole
// file.
func RenderSample(r *preview.Renderer, src string) (*preview.Result, error) {
	_, body, bodyLine, err := SplitFrontMatter(src)
	if err != nil {
		return nil, err
	}
	res, err := r.RenderSample(body)
	if err != nil {
		var pe *preview.ParseError
		if errors.As(err, &pe) {
			return nil, &preview.ParseError{Line: pe.Line + bodyLine - 1, Msg: pe.Msg}
		}
		return nil, err
	}
	return res, nil
}
