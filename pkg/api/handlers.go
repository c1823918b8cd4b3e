package api

import (
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/syntax"
	"github.com/auditdoc/auditdoc/pkg/templateresolver"
	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
	"github.com/auditdoc/auditdoc/pkg/varpath"
)

type generateVariableRequest struct {
	SchemaKey string        `json:"schemaKey"`
	FieldPath string        `json:"fieldPath"`
	Format    syntax.Format `json:"format"`
	IsLoop    bool          `json:"isLoop"`
	LoopVar   string        `json:"loopVar"`
}

type generateLoopRequest struct {
	SchemaKey string `json:"schemaKey"`
	ItemVar   string `json:"itemVar"`
}

type generateConditionalRequest struct {
	Variable string `json:"variable"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type validateRequest struct {
	VariablePath string `json:"variablePath"`
}

type templateRequest struct {
	Template string `json:"template"`
	Name     string `json:"name"` // bundled or on-disk template, used when Template is empty
	Strict   bool   `json:"strict"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.List())
}

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg)
}

func (s *Server) handleSampleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schema.SampleData())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	d, ok := s.reg.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Schema '%s' not found", key))
		return
	}
	writeJSON(w, http.StatusOK, schema.Keyed{Domain: d})
}

func (s *Server) handleGenerateVariable(w http.ResponseWriter, r *http.Request) {
	var req generateVariableRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SchemaKey == "" || req.FieldPath == "" {
		writeError(w, http.StatusBadRequest, "schemaKey and fieldPath are required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"syntax": syntax.Variable(req.SchemaKey, req.FieldPath, syntax.Options{
			Format:  req.Format,
			IsLoop:  req.IsLoop,
			LoopVar: req.LoopVar,
		}),
	})
}

func (s *Server) handleGenerateLoop(w http.ResponseWriter, r *http.Request) {
	var req generateLoopRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SchemaKey == "" {
		writeError(w, http.StatusBadRequest, "schemaKey is required")
		return
	}
	writeJSON(w, http.StatusOK, syntax.Loop(req.SchemaKey, req.ItemVar))
}

func (s *Server) handleGenerateConditional(w http.ResponseWriter, r *http.Request) {
	var req generateConditionalRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Variable == "" {
		writeError(w, http.StatusBadRequest, "variable is required")
		return
	}
	writeJSON(w, http.StatusOK, syntax.Conditional(req.Variable, req.Operator, req.Value))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.VariablePath == "" {
		writeError(w, http.StatusBadRequest, "variablePath is required")
		return
	}
	res := varpath.Validate(s.reg, req.VariablePath)
	s.metrics.RecordValidation(res.Kind)
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("auditdoc.variable_path", req.VariablePath),
		attribute.String("auditdoc.validation", res.Kind.String()),
	)
	writeJSON(w, http.StatusOK, res)
}

// templateSource returns the template text of req, resolving Name when no
// inline template is given. It answers the request itself on failure.
func (s *Server) templateSource(w http.ResponseWriter, req templateRequest) (src, name string, ok bool) {
	if req.Template != "" {
		name = req.Name
		if name == "" {
			name = "inline"
		}
		return req.Template, name, true
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "template or name is required")
		return "", "", false
	}
	src, source, err := s.resolve.ReadName(req.Name)
	switch {
	case err == nil:
		return src, source, true
	case errors.Is(err, templateresolver.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, templateresolver.ErrTraversal), errors.Is(err, templateresolver.ErrNotName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return "", "", false
}

func (s *Server) handleValidateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	src, name, ok := s.templateSource(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.validator(req.Strict).ValidateSource(name, src))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	src, _, ok := s.templateSource(w, req)
	if !ok {
		return
	}

	_, span := s.tracer.Start(r.Context(), "preview.render")
	res, err := templatevalidator.RenderSample(s.render, src)
	if err != nil {
		span.RecordError(err)
		span.End()
		s.metrics.RecordPreview(false, 0, err)
		var pe *preview.ParseError
		if errors.As(err, &pe) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: pe.Error(), Line: pe.Line})
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Bool("auditdoc.preview.cached", res.Cached),
		attribute.Int("auditdoc.preview.warnings", len(res.Warnings)),
	)
	span.End()
	s.metrics.RecordPreview(res.Cached, len(res.Warnings), nil)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	infos, err := s.resolve.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}
